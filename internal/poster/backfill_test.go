// ABOUTME: Tests for concurrent poster backfill
// ABOUTME: Verifies bounded concurrency, per-item failure isolation and cancellation
package poster

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harper/tierworks/internal/models"
)

func TestBackfill(t *testing.T) {
	defer goleak.VerifyNone(t)

	items := []models.Item{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta", ImageRef: "already.jpg"},
		{ID: "c", Title: "Gamma"},
		{ID: "d", Title: "Delta"},
	}

	var calls atomic.Int32
	lookup := func(ctx context.Context, it models.Item) (string, error) {
		calls.Add(1)
		switch it.ID {
		case "a":
			return "a.jpg", nil
		case "c":
			return "", errors.New("upstream down")
		}
		return "", nil
	}

	updates, err := Backfill(context.Background(), items, lookup, 2)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "a.jpg"}, updates)
	require.Equal(t, int32(3), calls.Load(), "items with a ref are skipped")
}

func TestBackfillRespectsLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	lookup := func(ctx context.Context, it models.Item) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return it.ID + ".jpg", nil
	}

	var items []models.Item
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		items = append(items, models.Item{ID: id, Title: id})
	}
	updates, err := Backfill(context.Background(), items, lookup, 3)
	require.NoError(t, err)
	require.Len(t, updates, 8)
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBackfillCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	lookup := func(ctx context.Context, it models.Item) (string, error) {
		if it.ID == "first" {
			cancel()
			return "first.jpg", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}

	items := []models.Item{{ID: "first"}, {ID: "second"}, {ID: "third"}}
	updates, err := Backfill(ctx, items, lookup, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "first.jpg", updates["first"])
	require.NotContains(t, updates, "third")
}

func TestChain(t *testing.T) {
	miss := func(ctx context.Context, it models.Item) (string, error) { return "", nil }
	fail := func(ctx context.Context, it models.Item) (string, error) { return "", errors.New("nope") }
	hit := TitleLookup(func(ctx context.Context, title string) (string, error) { return "tmdb/" + title, nil })

	ref, err := Chain(miss, fail, hit)(context.Background(), models.Item{Title: "Dark"})
	require.NoError(t, err)
	require.Equal(t, "tmdb/Dark", ref)

	_, err = Chain(miss, fail)(context.Background(), models.Item{Title: "Dark"})
	require.Error(t, err)
}
