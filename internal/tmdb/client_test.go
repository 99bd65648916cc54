// ABOUTME: Tests for the TMDB client against an httptest server
// ABOUTME: Covers search, paging, retries and permanent failures
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/tierworks/internal/util"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("secret")
	cfg.BaseURL = srv.URL
	cfg.ImageBase = "https://img.test"
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 2
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(DefaultConfig(""))
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSearchPoster(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "ru-RU", r.URL.Query().Get("language"))
		if r.URL.Query().Get("query") == "Dark" {
			fmt.Fprint(w, `{"results":[{"id":1,"name":"Dark","poster_path":"/dark.jpg"}]}`)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	})

	ref, err := c.SearchPoster(context.Background(), "Dark")
	require.NoError(t, err)
	require.Equal(t, "https://img.test/dark.jpg", ref)

	ref, err = c.SearchPoster(context.Background(), "Nothing")
	require.NoError(t, err)
	require.Empty(t, ref)
}

func TestTopRatedTVPaging(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page := r.URL.Query().Get("page")
		fmt.Fprint(w, `{"page":`+page+`,"total_pages":5,"results":[`)
		for i := 0; i < pageSize; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			id := page + fmt.Sprintf("%02d", i)
			poster := ""
			if i%2 == 0 {
				poster = "/p" + id + ".jpg"
			}
			fmt.Fprintf(w, `{"id":%s,"name":"Show %s","poster_path":"%s"}`, id, id, poster)
		}
		fmt.Fprint(w, `]}`)
	})

	items, err := c.TopRatedTV(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, items, 25)
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, "tmdb-100", items[0].ID)
	require.Equal(t, "https://img.test/p100.jpg", items[0].ImageRef)
	require.Empty(t, items[1].ImageRef)
}

func TestTopRatedTVFallbackTitle(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_pages":1,"results":[{"id":7,"original_name":"Orig"},{"id":8}]}`)
	})
	items, err := c.TopRatedTV(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Orig", items[0].Title)
	require.Equal(t, "TV 8", items[1].Title)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":1,"name":"Lost","poster_path":"/lost.jpg"}]}`)
	})

	ref, err := c.SearchPoster(context.Background(), "Lost")
	require.NoError(t, err)
	require.Equal(t, "https://img.test/lost.jpg", ref)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.SearchPoster(context.Background(), "Lost")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrPermanent))
	require.Equal(t, int32(1), calls.Load())
}
