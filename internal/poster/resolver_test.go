// ABOUTME: Tests for poster candidate ordering, probing and exhaustion
// ABOUTME: Uses temp directories and httptest servers as poster hosts
package poster

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/harper/tierworks/internal/models"
)

func TestCandidatesOrder(t *testing.T) {
	r := NewResolver("/srv/public", []string{"posters", "posters-movies"}, FileChecker{}, nil)

	got := r.Candidates(models.Item{ID: "dark", ImageRef: "https://cdn/dark.webp"})
	want := []string{
		"https://cdn/dark.webp",
		"/srv/public/posters/dark.jpg",
		"/srv/public/posters/dark.png",
		"/srv/public/posters-movies/dark.jpg",
		"/srv/public/posters-movies/dark.png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidatesURLRoot(t *testing.T) {
	r := NewResolver("https://example.com/public/", []string{"posters"}, nil, nil)
	got := r.Candidates(models.Item{ID: "lost"})
	want := []string{
		"https://example.com/public/posters/lost.jpg",
		"https://example.com/public/posters/lost.png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFindsFirstExistingFile(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"posters-movies/dark.png", "posters-actors/dark.jpg"} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("img"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	r := NewResolver(root, []string{"posters", "posters-movies", "posters-actors"}, FileChecker{}, nil)
	got, err := r.Resolve(context.Background(), models.Item{ID: "dark", ImageRef: filepath.Join(root, "missing.jpg")})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(root, "posters-movies", "dark.png"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolveExhausted(t *testing.T) {
	r := NewResolver(t.TempDir(), []string{"posters"}, FileChecker{}, nil)
	_, err := r.Resolve(context.Background(), models.Item{ID: "nothing"})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Resolve() error = %v, want ErrExhausted", err)
	}

	ref, err := r.Lookup(context.Background(), models.Item{ID: "nothing"})
	if ref != "" || err != nil {
		t.Errorf("Lookup() = %q, %v; exhaustion should be a plain miss", ref, err)
	}
}

func TestResolveOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		switch r.URL.Path {
		case "/posters/x.png":
			w.WriteHeader(http.StatusOK)
		case "/posters/x.jpg":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, []string{"posters"}, NewSchemeChecker(srv.Client()), nil)
	got, err := r.Resolve(context.Background(), models.Item{ID: "x"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != srv.URL+"/posters/x.png" {
		t.Errorf("Resolve() = %q", got)
	}

	// misses on every candidate end in exhaustion
	_, err = r.Resolve(context.Background(), models.Item{ID: "y"})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Resolve(y) error = %v, want ErrExhausted", err)
	}
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewResolver(t.TempDir(), []string{"posters"}, FileChecker{}, nil)
	if _, err := r.Resolve(ctx, models.Item{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}
