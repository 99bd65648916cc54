// ABOUTME: Checkers report whether an image location exists
// ABOUTME: Filesystem paths use stat, http(s) URLs use a HEAD request
package poster

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Checker reports whether ref points at an existing image
type Checker interface {
	Check(ctx context.Context, ref string) (bool, error)
}

// FileChecker checks local files
type FileChecker struct{}

// Check reports whether ref is an existing regular file
func (FileChecker) Check(ctx context.Context, ref string) (bool, error) {
	info, err := os.Stat(strings.TrimPrefix(ref, "file://"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// HTTPChecker checks remote images with HEAD requests
type HTTPChecker struct {
	Client *http.Client
}

// Check reports whether ref answers HEAD with a 2xx status
func (p HTTPChecker) Check(ctx context.Context, ref string) (bool, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	}
	return false, fmt.Errorf("HEAD %s: status %d", ref, resp.StatusCode)
}

// SchemeChecker dispatches http(s) refs to HTTP and everything else to File
type SchemeChecker struct {
	HTTP Checker
	File Checker
}

// NewSchemeChecker builds a checker for mixed local and remote refs
func NewSchemeChecker(client *http.Client) *SchemeChecker {
	return &SchemeChecker{HTTP: HTTPChecker{Client: client}, File: FileChecker{}}
}

// Check routes ref by scheme
func (p *SchemeChecker) Check(ctx context.Context, ref string) (bool, error) {
	if isURL(ref) {
		return p.HTTP.Check(ctx, ref)
	}
	return p.File.Check(ctx, ref)
}
