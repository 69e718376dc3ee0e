// Package geocode resolves coordinates to human-readable addresses through a
// Nominatim-compatible reverse geocoding service.
package geocode

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

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/violation-portal/internal/resilience"
)

// Reverser resolves a coordinate pair to a place.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

// Place is a reverse geocoding match.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	Address     map[string]string `json:"address,omitempty"`
}

// ErrNoAddress is returned when the service answers but has no place name
// for the coordinates.
var ErrNoAddress = eris.New("geocode: no address for coordinates")

// ErrRateLimited is returned when ctx ends before the rate limiter admits
// the request. No request reaches the service.
var ErrRateLimited = eris.New("geocode: rate limit wait")

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// nominatimResponse is the JSON body of GET /reverse?format=json.
type nominatimResponse struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the service base URL (for testing or self-hosted Nominatim).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header. Nominatim rejects requests
// without an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithEmail sets the contact email sent with each request.
func WithEmail(email string) Option {
	return func(c *Client) {
		c.email = email
	}
}

// WithLanguage sets the accept-language parameter for place names.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter sets the rate limiter directly.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithCircuitBreaker guards the service with a breaker built from cfg.
// Empty-result answers and rate limiter waits never count as failures.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *Client) {
		cfg.ShouldTrip = func(err error) bool {
			return !eris.Is(err, ErrNoAddress) && !eris.Is(err, ErrRateLimited)
		}
		c.breaker = resilience.NewCircuitBreaker(cfg)
	}
}

// WithCache enables an in-memory LRU cache of successful lookups.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size > 0 {
			c.cache = NewCache(size, ttl)
		}
	}
}

// Client is a rate-limited Nominatim reverse geocoding client.
type Client struct {
	baseURL   string
	userAgent string
	email     string
	language  string
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	breaker   *resilience.CircuitBreaker
	cache     *Cache
}

// NewClient creates a Client. Defaults follow the public Nominatim usage
// policy: one request per second and an identifying User-Agent.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "violation-portal/1.0",
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reverse resolves lat/lng to a place. It returns ErrNoAddress when the
// service has no name for the point, ErrRateLimited when ctx ends while
// queued behind the rate limit, resilience.ErrCircuitOpen while the breaker
// is open, and a wrapped transport error otherwise.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if c.cache != nil {
		if p, ok := c.cache.Get(lat, lng); ok {
			return p, nil
		}
	}

	// The first token is taken before the breaker sees the call; retries
	// take their own inside it.
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	fetch := c.fetch(lat, lng)
	attempt := 0
	lookup := func(ctx context.Context) (*Place, error) {
		return resilience.Do(ctx, c.retry, func(ctx context.Context) (*Place, error) {
			if attempt > 0 {
				if err := c.wait(ctx); err != nil {
					return nil, err
				}
			}
			attempt++
			return fetch(ctx)
		})
	}

	var place *Place
	var err error
	if c.breaker != nil {
		place, err = resilience.Execute(ctx, c.breaker, lookup)
	} else {
		place, err = lookup(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(lat, lng, place)
	}
	return place, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(ErrRateLimited, "%v", err)
	}
	return nil
}

// fetch returns a single-attempt lookup for use with resilience.Do. The
// caller holds a rate limiter token.
func (c *Client) fetch(lat, lng float64) func(ctx context.Context) (*Place, error) {
	return func(ctx context.Context) (*Place, error) {
		params := url.Values{
			"format": {"json"},
			"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
			"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		}
		if c.email != "" {
			params.Set("email", c.email)
		}
		if c.language != "" {
			params.Set("accept-language", c.language)
		}

		reqURL := c.baseURL + "/reverse?" + params.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: build request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("geocode: reverse returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, eris.Wrap(err, "geocode: read body")
		}

		var nr nominatimResponse
		if err := json.Unmarshal(body, &nr); err != nil {
			return nil, eris.Wrap(err, "geocode: parse response")
		}

		if nr.Error != "" || strings.TrimSpace(nr.DisplayName) == "" {
			zap.L().Debug("geocode: no address",
				zap.Float64("lat", lat),
				zap.Float64("lng", lng),
				zap.String("service_error", nr.Error),
			)
			return nil, ErrNoAddress
		}

		place := &Place{
			PlaceID:     nr.PlaceID,
			DisplayName: nr.DisplayName,
			Lat:         lat,
			Lng:         lng,
			Address:     nr.Address,
		}
		if v, err := strconv.ParseFloat(nr.Lat, 64); err == nil {
			place.Lat = v
		}
		if v, err := strconv.ParseFloat(nr.Lon, 64); err == nil {
			place.Lng = v
		}
		return place, nil
	}
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("nominatim(%s)", c.baseURL)
}
