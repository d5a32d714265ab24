package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/pkg/config"
)

const DefaultBaseURL = "https://api.pexels.com"

// Cache stores serialized search results
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

// Client searches the Pexels stock video library
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	maxElapsed time.Duration
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.httpClient = c }
}

// WithCache caches search results for ttl
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(client *Client) {
		client.cache = cache
		client.cacheTTL = ttl
	}
}

// WithLimiter overrides the request rate limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(client *Client) { client.limiter = l }
}

// WithRetryBudget bounds how long transient failures are retried
func WithRetryBudget(d time.Duration) Option {
	return func(client *Client) { client.maxElapsed = d }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) { client.logger = logger }
}

// NewClient creates a Pexels client. Requests are throttled to the hourly quota.
func NewClient(cfg *config.PexelsConfig, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = 200
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(perHour)/3600), min(perHour, 10)),
		maxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Video is a search result
type Video struct {
	ID         int64       `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   float64     `json:"duration"`
	URL        string      `json:"url"`
	VideoFiles []VideoFile `json:"video_files"`
}

// VideoFile is one rendition of a video
type VideoFile struct {
	ID       int64  `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// SearchResponse is the /videos/search payload
type SearchResponse struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pexels returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("pexels returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Search returns clips for query in ranking order
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]entities.Clip, error) {
	key := cacheKey(query, perPage)
	if clips, ok := c.cached(ctx, key); ok {
		return clips, nil
	}

	var resp *SearchResponse
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		resp, err = c.search(ctx, query, perPage)
		if apiErr, ok := err.(*APIError); ok && !apiErr.temporary() {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = c.maxElapsed
	notify := func(err error, wait time.Duration) {
		if c.logger != nil {
			c.logger.Warn("⚠️ Footage search failed, retrying",
				zap.String("term", query),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}

	clips := toClips(resp.Videos)
	c.store(ctx, key, clips)

	if c.logger != nil {
		c.logger.Debug("footage search",
			zap.String("term", query),
			zap.Int("results", len(clips)),
			zap.Int("total_results", resp.TotalResults),
		)
	}
	return clips, nil
}

func (c *Client) search(ctx context.Context, query string, perPage int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode pexels response: %w", err))
	}
	return &sr, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]entities.Clip, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		if err != nil && c.logger != nil {
			c.logger.Warn("footage cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var clips []entities.Clip
	if err := json.Unmarshal([]byte(raw), &clips); err != nil {
		return nil, false
	}
	return clips, true
}

func (c *Client) store(ctx context.Context, key string, clips []entities.Clip) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(clips)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), c.cacheTTL); err != nil && c.logger != nil {
		c.logger.Warn("footage cache write failed", zap.Error(err))
	}
}

func cacheKey(query string, perPage int) string {
	return fmt.Sprintf("pexels:%d:%s", perPage, strings.ToLower(strings.TrimSpace(query)))
}

// toClips keeps videos with a usable rendition, preferring HD mp4
func toClips(videos []Video) []entities.Clip {
	clips := make([]entities.Clip, 0, len(videos))
	for _, v := range videos {
		file, ok := preferredFile(v.VideoFiles)
		if !ok || v.Duration <= 0 {
			continue
		}
		clips = append(clips, entities.Clip{
			ID:              v.ID,
			SourceURL:       file.Link,
			DurationSeconds: v.Duration,
		})
	}
	return clips
}

func preferredFile(files []VideoFile) (VideoFile, bool) {
	var firstMP4 *VideoFile
	for i := range files {
		f := &files[i]
		if f.Link == "" || f.FileType != "video/mp4" {
			continue
		}
		if f.Quality == "hd" {
			return *f, true
		}
		if firstMP4 == nil {
			firstMP4 = f
		}
	}
	if firstMP4 != nil {
		return *firstMP4, true
	}
	for _, f := range files {
		if f.Link != "" {
			return f, true
		}
	}
	return VideoFile{}, false
}
