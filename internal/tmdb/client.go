// ABOUTME: TMDB HTTP client for poster lookups and seeding templates from top-rated TV
// ABOUTME: Retries transient failures with exponential backoff; lookup misses are not errors
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/util"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultImageBase prefixes poster paths
	DefaultImageBase = "https://image.tmdb.org/t/p/w500"
	// DefaultLanguage matches the catalogue the app was built for
	DefaultLanguage = "ru-RU"

	pageSize = 20
)

// ErrNoAPIKey is returned when the client is built without a key
var ErrNoAPIKey = errors.New("TMDB API key is required")

// ClientConfig holds configuration for the TMDB client
type ClientConfig struct {
	APIKey     string
	Language   string
	BaseURL    string
	ImageBase  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		Language:   DefaultLanguage,
		BaseURL:    DefaultBaseURL,
		ImageBase:  DefaultImageBase,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Client talks to the TMDB REST API
type Client struct {
	http       *http.Client
	apiKey     string
	language   string
	baseURL    string
	imageBase  string
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewClient creates a TMDB client
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		http:       httpClient,
		apiKey:     cfg.APIKey,
		language:   orDefault(cfg.Language, DefaultLanguage),
		baseURL:    orDefault(cfg.BaseURL, DefaultBaseURL),
		imageBase:  orDefault(cfg.ImageBase, DefaultImageBase),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
	return c, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type tvResult struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	PosterPath   string `json:"poster_path"`
}

type pageResponse struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Results    []tvResult `json:"results"`
}

// SearchPoster returns the poster URL of the best TV match for title, or ""
// when nothing matches
func (c *Client) SearchPoster(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("page", "1")
	q.Set("include_adult", "false")

	var resp pageResponse
	if err := c.get(ctx, "/search/tv", q, &resp); err != nil {
		return "", fmt.Errorf("poster search for %q: %w", title, err)
	}
	if len(resp.Results) == 0 || resp.Results[0].PosterPath == "" {
		return "", nil
	}
	return c.imageBase + resp.Results[0].PosterPath, nil
}

// TopRatedTV fetches up to count top-rated shows as items
func (c *Client) TopRatedTV(ctx context.Context, count int) ([]models.Item, error) {
	if count <= 0 {
		return nil, nil
	}
	pages := (count + pageSize - 1) / pageSize

	var results []tvResult
	for page := 1; page <= pages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))

		var resp pageResponse
		if err := c.get(ctx, "/tv/top_rated", q, &resp); err != nil {
			return nil, fmt.Errorf("top rated page %d: %w", page, err)
		}
		results = append(results, resp.Results...)
		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}
	if len(results) > count {
		results = results[:count]
	}

	items := make([]models.Item, 0, len(results))
	for _, tv := range results {
		title := tv.Name
		if title == "" {
			title = tv.OriginalName
		}
		if title == "" {
			title = fmt.Sprintf("TV %d", tv.ID)
		}
		it := models.Item{ID: fmt.Sprintf("tmdb-%d", tv.ID), Title: title}
		if tv.PosterPath != "" {
			it.ImageRef = c.imageBase + tv.PosterPath
		}
		items = append(items, it)
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest any) error {
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	endpoint := c.baseURL + path + "?" + q.Encode()

	return util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrPermanent, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("tmdb request failed", zap.String("path", path), zap.Error(err))
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("TMDB error: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return fmt.Errorf("%w: %v", util.ErrPermanent, err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode TMDB response: %w", err)
		}
		return nil
	})
}
