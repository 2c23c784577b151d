// Package geo resolves a best-effort coordinate for the board's weather
// lookups. The board usually sits at a fixed site, so an IP-geolocation
// endpoint is good enough; any failure falls back to a configured
// coordinate and never blocks a refresh cycle beyond the bounded wait.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	appLog "dutyboard/internal/log"
)

// Defaults mirror the board's original behavior: a 5 second wait for the
// locate call and a 10 minute validity window for a resolved coordinate.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultCacheTTL = 10 * time.Minute
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Provider yields the board's current coordinates.
type Provider interface {
	// Locate never fails: on error or timeout it returns the fallback
	// coordinate. The second result reports whether the coordinate came
	// from the locator rather than the fallback.
	Locate(ctx context.Context) (Coordinates, bool)
}

// HTTPProvider queries a JSON IP-geolocation endpoint responding with
// {"lat": .., "lon": ..}.
type HTTPProvider struct {
	Endpoint string
	Fallback Coordinates
	Timeout  time.Duration
	CacheTTL time.Duration

	client *http.Client

	mu       sync.Mutex
	cached   Coordinates
	cachedAt time.Time
}

// NewHTTPProvider builds a provider with the default timeout and cache
// window.
func NewHTTPProvider(endpoint string, fallback Coordinates) *HTTPProvider {
	return &HTTPProvider{
		Endpoint: endpoint,
		Fallback: fallback,
		Timeout:  DefaultTimeout,
		CacheTTL: DefaultCacheTTL,
		client:   &http.Client{},
	}
}

// Locate returns a recent cached coordinate when available, otherwise
// queries the endpoint within the bounded wait. On any failure the
// fallback coordinate is returned; the failure is logged, never surfaced.
func (p *HTTPProvider) Locate(ctx context.Context) (Coordinates, bool) {
	now := time.Now()

	p.mu.Lock()
	if !p.cachedAt.IsZero() && now.Sub(p.cachedAt) < p.cacheTTL() {
		c := p.cached
		p.mu.Unlock()
		return c, true
	}
	p.mu.Unlock()

	if p.Endpoint == "" {
		return p.Fallback, false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	coords, err := p.query(ctx)
	if err != nil {
		appLog.Warn("geolocation unavailable, using fallback coordinate",
			"err", err,
			"lat", p.Fallback.Latitude,
			"lon", p.Fallback.Longitude,
		)
		return p.Fallback, false
	}

	p.mu.Lock()
	p.cached = coords
	p.cachedAt = time.Now()
	p.mu.Unlock()

	return coords, true
}

func (p *HTTPProvider) query(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint, nil)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("locate: %s", resp.Status)
	}

	var coords Coordinates
	if err := json.NewDecoder(resp.Body).Decode(&coords); err != nil {
		return Coordinates{}, fmt.Errorf("locate decode: %w", err)
	}
	return coords, nil
}

func (p *HTTPProvider) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p *HTTPProvider) cacheTTL() time.Duration {
	if p.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return p.CacheTTL
}

func (p *HTTPProvider) httpClient() *http.Client {
	if p.client == nil {
		p.client = &http.Client{}
	}
	return p.client
}

// Static always returns a fixed coordinate. Used when the site location is
// configured explicitly.
type Static struct {
	Coords Coordinates
}

func (s Static) Locate(context.Context) (Coordinates, bool) {
	return s.Coords, true
}
