// Package lastfm implements a small client for the Last.fm web service,
// covering the two lookups the enrichment stage needs.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/rmattila/trackwise/internal/logging"
)

// Package-level logger specific to the lastfm service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "lastfm.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "lastfm", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize lastfm file logger at %s: %v. Service logging disabled.", logFilePath, err)
		logger = logging.NewDiscardLogger("lastfm")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the Last.fm API
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache
	rateLimiter *time.Ticker
}

// NewClient creates a new Last.fm API client
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("lastfm API key is required")
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		rateLimiter: time.NewTicker(time.Duration(config.RateLimitMS) * time.Millisecond),
	}

	logger.Info("lastfm client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS)

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	c.rateLimiter.Stop()
	if closeLogger != nil {
		_ = closeLogger()
	}
}

// TrackInfo looks up tags, counts and the wiki summary for a track.
// Returns (nil, nil) when the service has no matching track, so callers
// can skip without treating it as a failure.
func (c *Client) TrackInfo(ctx context.Context, artist, track string) (*TrackInfo, error) {
	cacheKey := fmt.Sprintf("info:%s:%s", artist, track)
	if cached, found := c.cache.Get(cacheKey); found {
		info, _ := cached.(*TrackInfo)
		return info, nil
	}

	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artist)
	params.Set("track", track)
	params.Set("autocorrect", "1")

	var response trackInfoResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}
	if response.Track == nil {
		logger.Warn("no track payload in response",
			"artist", artist,
			"track", track,
			"api_error", response.Error,
			"message", response.Message)
		return nil, nil
	}

	info := &TrackInfo{
		Name:        response.Track.Name,
		Artist:      response.Track.Artist.Name,
		Listeners:   parseCount(response.Track.Listeners),
		Playcount:   parseCount(response.Track.Playcount),
		WikiSummary: response.Track.Wiki.Summary,
	}
	for _, t := range response.Track.TopTags.Tag {
		info.Tags = append(info.Tags, t.Name)
	}

	c.cache.Set(cacheKey, info, cache.DefaultExpiration)
	return info, nil
}

// SimilarTracks looks up tracks the service considers similar. Absence of
// results is not an error, the returned slice is simply empty.
func (c *Client) SimilarTracks(ctx context.Context, artist, track string, limit int) ([]SimilarTrack, error) {
	cacheKey := fmt.Sprintf("similar:%s:%s:%d", artist, track, limit)
	if cached, found := c.cache.Get(cacheKey); found {
		similar, _ := cached.([]SimilarTrack)
		return similar, nil
	}

	params := url.Values{}
	params.Set("method", "track.getSimilar")
	params.Set("artist", artist)
	params.Set("track", track)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("autocorrect", "1")

	var response similarTracksResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}

	similar := make([]SimilarTrack, 0, len(response.SimilarTracks.Track))
	for _, t := range response.SimilarTracks.Track {
		similar = append(similar, SimilarTrack{
			Name:   t.Name,
			Artist: t.Artist.Name,
			Match:  t.Match,
		})
	}

	c.cache.Set(cacheKey, similar, cache.DefaultExpiration)
	return similar, nil
}

// get performs a rate-limited GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	select {
	case <-c.rateLimiter.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	params.Set("api_key", c.config.APIKey)
	params.Set("format", "json")
	requestURL := c.config.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("request failed", "method", params.Get("method"), "error", err)
		return fmt.Errorf("lastfm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("non-200 response",
			"method", params.Get("method"),
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("lastfm returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	logger.Debug("request completed",
		"method", params.Get("method"),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// parseCount parses the string-encoded counters the API returns.
// Unparseable values become zero.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
