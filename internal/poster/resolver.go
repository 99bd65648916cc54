// ABOUTME: Poster resolver producing a prioritized candidate list per item
// ABOUTME: Candidates are checked in order; running out is an explicit ErrExhausted
package poster

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
)

// ErrExhausted means no candidate location held a poster
var ErrExhausted = errors.New("poster candidates exhausted")

// DefaultExtensions are tried for every folder, in order
var DefaultExtensions = []string{"jpg", "png"}

// Resolver finds a working image location for an item
type Resolver struct {
	root    string
	folders []string
	exts    []string
	checker Checker
	logger  *zap.Logger
}

// NewResolver creates a resolver over root/<folder>/<id>.<ext>. root may be a
// directory or an http(s) base URL.
func NewResolver(root string, folders []string, checker Checker, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		root:    root,
		folders: append([]string{}, folders...),
		exts:    DefaultExtensions,
		checker: checker,
		logger:  logger,
	}
}

// Candidates lists locations to try for it, most preferred first: the item's
// own image ref, then each folder and extension combination
func (r *Resolver) Candidates(it models.Item) []string {
	out := make([]string, 0, 1+len(r.folders)*len(r.exts))
	if it.ImageRef != "" {
		out = append(out, it.ImageRef)
	}
	if it.ID == "" || r.root == "" {
		return out
	}
	for _, folder := range r.folders {
		for _, ext := range r.exts {
			out = append(out, r.join(folder, it.ID+"."+ext))
		}
	}
	return out
}

func (r *Resolver) join(folder, file string) string {
	if isURL(r.root) {
		joined, err := url.JoinPath(r.root, folder, url.PathEscape(file))
		if err == nil {
			return joined
		}
		return strings.TrimRight(r.root, "/") + "/" + folder + "/" + file
	}
	return filepath.Join(r.root, folder, file)
}

// Resolve checks candidates in order and returns the first that exists.
// Check errors skip to the next candidate and are reported alongside
// ErrExhausted if nothing is found.
func (r *Resolver) Resolve(ctx context.Context, it models.Item) (string, error) {
	var errs []error
	for _, candidate := range r.Candidates(it) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ok, err := r.checker.Check(ctx, candidate)
		if err != nil {
			r.logger.Debug("poster check failed", zap.String("candidate", candidate), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
	}
	return "", ErrExhausted
}

// Lookup adapts the resolver for Backfill. Exhaustion is a miss, not an error.
func (r *Resolver) Lookup(ctx context.Context, it models.Item) (string, error) {
	ref, err := r.Resolve(ctx, it)
	if errors.Is(err, ErrExhausted) {
		return "", nil
	}
	return ref, err
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
