// ABOUTME: Churn benchmark runner - drives random session operations
// ABOUTME: Checks invariants after every step and reports throughput

package churn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
	"github.com/harper/tierworks/internal/storage/sqlite"
)

// Result holds the outcome of one scenario
type Result struct {
	ScenarioID string         `json:"scenario_id"`
	Name       string         `json:"name"`
	Items      int            `json:"items"`
	Steps      int            `json:"steps"`
	Ops        map[string]int `json:"ops"`
	NoOps      int            `json:"no_ops"`
	Snapshots  int            `json:"snapshots_written"`
	Violation  string         `json:"violation,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	OpsPerSec  float64        `json:"ops_per_sec"`
	Status     string         `json:"status"`
}

// Runner executes churn scenarios
type Runner struct {
	persist bool
	logger  *zap.Logger
}

// NewRunner creates a runner. With persist, every changing step hands a
// snapshot to an async writer over an in-memory SQLite store.
func NewRunner(persist bool, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{persist: persist, logger: logger}
}

type countingStore struct {
	storage.SnapshotStore
	writes int
}

func (c *countingStore) SavePartitionSnapshot(ctx context.Context, key string, snap *models.Snapshot) error {
	c.writes++
	return c.SnapshotStore.SavePartitionSnapshot(ctx, key, snap)
}

func buildTemplate(s Scenario) *models.Template {
	items := make([]models.Item, s.Items)
	for i := range items {
		items[i] = models.Item{ID: fmt.Sprintf("item-%04d", i), Title: fmt.Sprintf("Item %d", i)}
	}
	return &models.Template{ID: "churn-" + s.ID, Name: s.Name, Items: items}
}

// Run executes one scenario. A broken invariant stops the run and marks it FAIL.
func (r *Runner) Run(s Scenario) (Result, error) {
	if s.Items <= 0 || s.Steps <= 0 || s.Mix.total() <= 0 {
		return Result{}, errors.New("scenario needs items, steps and a non-empty op mix")
	}

	tpl := buildTemplate(s)
	opts := []core.SessionOption{core.WithRand(rand.New(rand.NewPCG(s.Seed, s.Seed+1)))}

	var (
		writer *storage.AsyncWriter
		store  *sqlite.Storage
		counts *countingStore
	)
	if r.persist {
		var err error
		store, err = sqlite.NewStorageInMemory()
		if err != nil {
			return Result{}, fmt.Errorf("failed to open store: %w", err)
		}
		defer func() { _ = store.Close() }()
		counts = &countingStore{SnapshotStore: store}
		writer = storage.NewAsyncWriter(counts, storage.WithWriterLogger(r.logger))
		defer func() { _ = writer.Close() }()
		opts = append(opts, core.WithPersister(writer))
	}

	sess := core.NewSession(tpl, opts...)
	rng := rand.New(rand.NewPCG(s.Seed^0x9e3779b97f4a7c15, s.Seed))
	result := Result{
		ScenarioID: s.ID,
		Name:       s.Name,
		Items:      s.Items,
		Ops:        make(map[string]int),
		Status:     "PASS",
	}

	start := time.Now()
	for step := 0; step < s.Steps; step++ {
		op, changed := r.step(sess, tpl, s.Mix, rng)
		result.Ops[op]++
		if !changed {
			result.NoOps++
		}
		result.Steps++

		if err := CheckInvariants(sess, len(tpl.Items)); err != nil {
			result.Violation = fmt.Sprintf("step %d (%s): %v", step, op, err)
			result.Status = "FAIL"
			break
		}
	}
	if writer != nil {
		if err := writer.Flush(context.Background()); err != nil {
			return result, fmt.Errorf("failed to flush snapshots: %w", err)
		}
		result.Snapshots = counts.writes
	}
	elapsed := time.Since(start)

	result.DurationMS = float64(elapsed.Microseconds()) / 1000
	if elapsed > 0 {
		result.OpsPerSec = float64(result.Steps) / elapsed.Seconds()
	}

	r.logger.Info("scenario finished",
		zap.String("scenario", s.ID),
		zap.Int("steps", result.Steps),
		zap.Float64("ops_per_sec", result.OpsPerSec),
		zap.String("status", result.Status))
	return result, nil
}

func (r *Runner) step(sess *core.Session, tpl *models.Template, mix OpMix, rng *rand.Rand) (string, bool) {
	randomItem := func() string { return tpl.Items[rng.IntN(len(tpl.Items))].ID }
	randomTier := func() models.Bucket { return models.Tiers[rng.IntN(len(models.Tiers))] }

	pick := rng.IntN(mix.total())
	switch {
	case pick < mix.Move:
		to := models.Bucket(rng.IntN(models.NumBuckets))
		index := rng.IntN(len(tpl.Items)+2) - 1
		return "move", sess.MoveTo(randomItem(), to, index)
	case pick < mix.Move+mix.Assign:
		_, err := sess.Assign(randomTier())
		return "assign", err == nil
	case pick < mix.Move+mix.Assign+mix.Skip:
		_, err := sess.Skip()
		return "skip", err == nil
	case pick < mix.Move+mix.Assign+mix.Skip+mix.Select:
		return "select", sess.Select(randomItem())
	default:
		n, _ := sess.ClearTier(randomTier())
		return "clear", n > 0
	}
}

// RunAll executes every built-in scenario
func (r *Runner) RunAll() ([]Result, error) {
	var results []Result
	for _, s := range Scenarios() {
		res, err := r.Run(s)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ExportResults writes results as indented JSON
func ExportResults(results []Result, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"results":      results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
