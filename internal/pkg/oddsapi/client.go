// Package oddsapi is a cached, failure-tolerant client for The Odds API v4.
//
// Neither GetSports nor GetOdds returns an error: provider failures degrade to the last
// cached value (even if expired) or to an empty result, and are logged and counted.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/filter"
	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

const (
	defaultBaseURL   = "https://api.the-odds-api.com/v4"
	defaultTimeout   = 10 * time.Second
	defaultSportsTTL = time.Hour
	defaultOddsTTL   = 5 * time.Minute
	defaultMaxSports = 10

	sportsCacheKey = "sports_list"
)

// Options configures a Client. Zero values fall back to provider defaults.
type Options struct {
	BaseURL         string
	APIKey          string
	Regions         string
	OddsFormat      string
	Bookmakers      []string
	PreferredSports []string
	MaxSports       int
	Timeout         time.Duration
	SportsTTL       time.Duration
	OddsTTL         time.Duration

	// HTTPClient replaces the lazily created client. Close does not release it.
	HTTPClient *http.Client
	// Now is the clock used for cache expiry.
	Now func() time.Time
}

// Client fetches sports and odds and caches both.
type Client struct {
	opts Options

	mu         sync.Mutex
	httpClient *http.Client
	ownsClient bool

	sports *ttlCache[[]models.Sport]
	odds   *ttlCache[[]models.Event]

	stats counters
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.Regions == "" {
		opts.Regions = "au"
	}
	if opts.OddsFormat == "" {
		opts.OddsFormat = "decimal"
	}
	if opts.MaxSports <= 0 {
		opts.MaxSports = defaultMaxSports
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.SportsTTL <= 0 {
		opts.SportsTTL = defaultSportsTTL
	}
	if opts.OddsTTL <= 0 {
		opts.OddsTTL = defaultOddsTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Client{
		opts:       opts,
		httpClient: opts.HTTPClient,
		sports:     newTTLCache[[]models.Sport](),
		odds:       newTTLCache[[]models.Event](),
	}
	c.stats.quotaRemaining.Store(-1)
	return c
}

// client returns the shared HTTP handle, creating it on first use.
func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.opts.Timeout}
		c.ownsClient = true
	}
	return c.httpClient
}

// Close releases idle connections of the lazily created HTTP client.
// The next request creates a new one.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ownsClient && c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
		c.ownsClient = false
	}
	return nil
}

// OddsCacheKey is the cache key for one sport and market set.
func OddsCacheKey(sportKey, markets string) string {
	return fmt.Sprintf("odds_%s_%s", sportKey, markets)
}

// GetSports returns active, non-soccer sports with preferred keys first, capped at MaxSports.
func (c *Client) GetSports(ctx context.Context) []models.Sport {
	now := c.opts.Now()
	if cached, ok := c.sports.fresh(sportsCacheKey, now); ok {
		c.stats.cacheHits.Add(1)
		slog.Debug("Using cached sports list", "count", len(cached))
		return cached
	}

	var all []models.Sport
	if err := c.get(ctx, "/sports", nil, &all); err != nil {
		c.recordFailure(err, "sports", "")
		return c.staleSports()
	}
	slog.Info("Fetched sports from odds API", "total", len(all))

	result := SelectSports(all, c.opts.PreferredSports, c.opts.MaxSports)
	c.sports.set(sportsCacheKey, result, now.Add(c.opts.SportsTTL))
	slog.Info("Filtered sports for scanning", "count", len(result))
	return result
}

func (c *Client) staleSports() []models.Sport {
	cached, ok := c.sports.stale(sportsCacheKey)
	if ok {
		c.stats.staleFallbacks.Add(1)
	}
	return cached
}

// SelectSports drops inactive and soccer sports, puts preferred keys first (in provider
// order) and caps the result at limit.
func SelectSports(all []models.Sport, preferred []string, limit int) []models.Sport {
	isPreferred := make(map[string]bool, len(preferred))
	for _, k := range preferred {
		isPreferred[k] = true
	}
	eligible := func(s models.Sport) bool {
		return s.Active && !filter.IsSoccerRelated(s.Title)
	}

	out := make([]models.Sport, 0, limit)
	seen := make(map[string]bool)
	for _, s := range all {
		if eligible(s) && isPreferred[s.Key] && !seen[s.Key] {
			out = append(out, s)
			seen[s.Key] = true
		}
	}
	for _, s := range all {
		if len(out) >= limit {
			break
		}
		if eligible(s) && !seen[s.Key] {
			out = append(out, s)
			seen[s.Key] = true
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetOdds returns events for one sport with the given comma-separated markets.
func (c *Client) GetOdds(ctx context.Context, sportKey, markets string) []models.Event {
	key := OddsCacheKey(sportKey, markets)
	now := c.opts.Now()
	if cached, ok := c.odds.fresh(key, now); ok {
		c.stats.cacheHits.Add(1)
		slog.Debug("Using cached odds", "sport", sportKey, "markets", markets, "events", len(cached))
		return cached
	}

	params := url.Values{}
	params.Set("regions", c.opts.Regions)
	params.Set("markets", markets)
	params.Set("oddsFormat", c.opts.OddsFormat)
	if len(c.opts.Bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(c.opts.Bookmakers, ","))
	}

	var events []models.Event
	err := c.get(ctx, "/sports/"+url.PathEscape(sportKey)+"/odds", params, &events)
	switch {
	case err == nil:
		if events == nil {
			events = []models.Event{}
		}
		c.odds.set(key, events, now.Add(c.opts.OddsTTL))
		slog.Info("Fetched odds", "sport", sportKey, "markets", markets, "events", len(events))
		return events
	case errors.Is(err, ErrMarketUnsupported):
		c.stats.unsupported.Add(1)
		slog.Debug("Market unsupported for sport, caching empty result", "sport", sportKey, "markets", markets)
		empty := []models.Event{}
		c.odds.set(key, empty, now.Add(c.opts.OddsTTL))
		return empty
	default:
		c.recordFailure(err, sportKey, markets)
		cached, ok := c.odds.stale(key)
		if ok {
			c.stats.staleFallbacks.Add(1)
		}
		return cached
	}
}

func (c *Client) recordFailure(err error, sportKey, markets string) {
	if errors.Is(err, ErrProviderRejected) {
		c.stats.rejected.Add(1)
		slog.Error("Odds API key unauthorized, check odds_api.api_key", "sport", sportKey, "markets", markets, "error", err)
		return
	}
	c.stats.failures.Add(1)
	slog.Warn("Odds API request failed, falling back to cache", "sport", sportKey, "markets", markets, "error", err)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.opts.APIKey)

	u := c.opts.BaseURL + path + "?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.stats.requests.Add(1)
	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		if n, err := strconv.ParseInt(remaining, 10, 64); err == nil {
			c.stats.quotaRemaining.Store(n)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrProviderUnavailable, err)
	}
	return nil
}

type counters struct {
	requests       atomic.Int64
	cacheHits      atomic.Int64
	staleFallbacks atomic.Int64
	rejected       atomic.Int64
	unsupported    atomic.Int64
	failures       atomic.Int64
	quotaRemaining atomic.Int64
}

// Stats is a point-in-time copy of the client counters.
type Stats struct {
	Requests       int64 `json:"requests"`
	CacheHits      int64 `json:"cache_hits"`
	StaleFallbacks int64 `json:"stale_fallbacks"`
	Rejected       int64 `json:"rejected"`
	Unsupported    int64 `json:"unsupported"`
	Failures       int64 `json:"failures"`
	QuotaRemaining int64 `json:"quota_remaining"`
	CachedKeys     int   `json:"cached_keys"`
}

func (c *Client) Stats() Stats {
	return Stats{
		Requests:       c.stats.requests.Load(),
		CacheHits:      c.stats.cacheHits.Load(),
		StaleFallbacks: c.stats.staleFallbacks.Load(),
		Rejected:       c.stats.rejected.Load(),
		Unsupported:    c.stats.unsupported.Load(),
		Failures:       c.stats.failures.Load(),
		QuotaRemaining: c.stats.quotaRemaining.Load(),
		CachedKeys:     c.sports.len() + c.odds.len(),
	}
}
