// Package dsm talks to the DSM profile service: an HTTP API that samples a
// digital surface model along a geodesic. It also provides an offline
// fixture provider and a caching decorator, all satisfying scan.Provider.
package dsm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/resilience"
	"github.com/kaishiraishi/sightline/internal/scan"
)

// Client fetches elevation profiles from the DSM profile API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps requests per second against the profile service.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1) }
}

// WithRetry overrides the retry policy for profile fetches.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithCircuitBreaker guards the service with a shared breaker so a dead
// backend fails sweeps fast instead of timing out ray by ray.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a DSM profile client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(20, 20),
		retry:      resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("dsm", "profile")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type profileRequest struct {
	Start       [2]float64 `json:"start"`
	End         [2]float64 `json:"end"`
	SampleCount int        `json:"sample_count"`
}

type profileResponse struct {
	DistancesM []float64  `json:"distances_m"`
	ElevM      []*float64 `json:"elev_m"`
}

// Profile requests an elevation profile along the geodesic from start to
// end. The service returns distances and elevations only; sample positions
// are reconstructed on the same sphere the rest of the engine uses.
func (c *Client) Profile(ctx context.Context, start, end geodesy.Point, sampleCount int) (*scan.Profile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "dsm: rate limit")
	}

	fetch := func(ctx context.Context) (*profileResponse, error) {
		return c.fetchProfile(ctx, start, end, sampleCount)
	}
	if cb := c.breaker; cb != nil {
		inner := fetch
		fetch = func(ctx context.Context) (*profileResponse, error) {
			return resilience.ExecuteVal(ctx, cb, inner)
		}
	}

	resp, err := resilience.DoVal(ctx, c.retry, fetch)
	if err != nil {
		return nil, err
	}

	n := len(resp.DistancesM)
	if n != len(resp.ElevM) {
		return nil, eris.Errorf("dsm: response arrays disagree (%d distances, %d elevations)", n, len(resp.ElevM))
	}

	bearing := geodesy.InitialBearing(start, end)
	profile := &scan.Profile{
		Distances:  resp.DistancesM,
		Elevations: resp.ElevM,
		Lngs:       make([]float64, n),
		Lats:       make([]float64, n),
	}
	for i, d := range resp.DistancesM {
		pos := geodesy.Destination(start, bearing, d)
		profile.Lngs[i] = pos.Lng
		profile.Lats[i] = pos.Lat
	}
	return profile, nil
}

func (c *Client) fetchProfile(ctx context.Context, start, end geodesy.Point, sampleCount int) (*profileResponse, error) {
	body, err := json.Marshal(profileRequest{
		Start:       [2]float64{start.Lng, start.Lat},
		End:         [2]float64{end.Lng, end.Lat},
		SampleCount: sampleCount,
	})
	if err != nil {
		return nil, eris.Wrap(err, "dsm: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/profile", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "dsm: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "dsm: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("dsm: profile returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "dsm: read body"), 0)
	}

	var pr profileResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, eris.Wrap(err, "dsm: parse response")
	}
	return &pr, nil
}

// Health checks the service's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "dsm: build health request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "dsm: health request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("dsm: health returned status %d", resp.StatusCode)
	}
	return nil
}
