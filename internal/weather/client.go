// Package weather fetches current conditions and an hourly forecast and
// derives the weather panel view.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"dutyboard/internal/model"
)

// Status tags a fetch outcome so downstream logic never sees raw optional
// payload fields.
type Status int

const (
	// StatusOK: Outcome.View holds a real snapshot.
	StatusOK Status = iota
	// StatusUnreachable: transport failure (request error, non-2xx).
	StatusUnreachable
	// StatusMalformed: the payload decoded but violated the contract
	// (missing blocks, unequal hourly arrays, unparseable timestamps).
	StatusMalformed
)

// Outcome is the tagged result of one weather fetch.
type Outcome struct {
	Status Status
	View   model.WeatherView
	Err    error
}

// hourly timestamps arrive zoneless in the requested civil timezone.
const hourlyTimeLayout = "2006-01-02T15:04"

// payload is the provider's response shape: a current block plus parallel
// hourly arrays of equal length.
type payload struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
	Hourly *struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
}

// Client fetches forecasts for a coordinate in a fixed civil timezone.
type Client struct {
	// BaseURL is the forecast endpoint, e.g.
	// "https://api.open-meteo.com/v1/forecast".
	BaseURL string
	Zone    *time.Location

	// HTTP carries no per-request deadline of its own: a hung fetch only
	// delays its own, likely superseded, generation.
	HTTP *http.Client
}

// NewClient builds a Client for the given endpoint and civil zone.
func NewClient(baseURL string, zone *time.Location) *Client {
	return &Client{
		BaseURL: baseURL,
		Zone:    zone,
		HTTP:    &http.Client{},
	}
}

// Fetch retrieves conditions for (lat, lon) and derives the panel view:
// rounded current temperature, code label/icon, and the next hourlyCount
// hourly entries at or after now in the civil zone.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, now time.Time, hourlyCount int) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(lat, lon), nil)
	if err != nil {
		return Outcome{Status: StatusUnreachable, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Outcome{Status: StatusUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Outcome{Status: StatusUnreachable, Err: fmt.Errorf("forecast: %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Status: StatusUnreachable, Err: err}
	}

	return c.Derive(body, now, hourlyCount)
}

// Derive validates a raw payload and builds the panel view.
func (c *Client) Derive(body []byte, now time.Time, hourlyCount int) Outcome {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Outcome{Status: StatusMalformed, Err: fmt.Errorf("forecast decode: %w", err)}
	}
	if p.Current == nil || p.Current.Temperature == nil || p.Current.WeatherCode == nil {
		return Outcome{Status: StatusMalformed, Err: fmt.Errorf("forecast payload missing current block")}
	}

	label, icon := CodeToText(*p.Current.WeatherCode)
	view := model.WeatherView{
		Available: true,
		TempC:     roundTemp(*p.Current.Temperature),
		Label:     label,
		Icon:      icon,
	}

	hourly, err := c.deriveHourly(p, now, hourlyCount)
	if err != nil {
		return Outcome{Status: StatusMalformed, Err: err}
	}
	if len(hourly) == 0 {
		// Forecast data exhausted for the rest of the civil day: an
		// explicit marker, distinct from a failed fetch.
		view.ForecastUnavailable = true
	}
	view.Hourly = hourly

	return Outcome{Status: StatusOK, View: view}
}

func (c *Client) deriveHourly(p payload, now time.Time, hourlyCount int) ([]model.HourlyEntry, error) {
	if p.Hourly == nil {
		return nil, nil
	}
	h := p.Hourly
	if len(h.Time) != len(h.Temperature) || len(h.Time) != len(h.WeatherCode) {
		return nil, fmt.Errorf("forecast hourly arrays of unequal length: %d/%d/%d",
			len(h.Time), len(h.Temperature), len(h.WeatherCode))
	}
	if hourlyCount <= 0 {
		hourlyCount = 6
	}

	zone := c.zone()
	nowLocal := now.In(zone)

	out := make([]model.HourlyEntry, 0, hourlyCount)
	for i := range h.Time {
		ts, err := time.ParseInLocation(hourlyTimeLayout, h.Time[i], zone)
		if err != nil {
			return nil, fmt.Errorf("forecast hourly timestamp %q: %w", h.Time[i], err)
		}
		if ts.Before(nowLocal) {
			continue
		}
		label, icon := CodeToText(h.WeatherCode[i])
		out = append(out, model.HourlyEntry{
			HourLabel: ts.Format("15:04"),
			TempC:     roundTemp(h.Temperature[i]),
			Label:     label,
			Icon:      icon,
		})
		if len(out) == hourlyCount {
			break
		}
	}
	return out, nil
}

// Unavailable is the placeholder view committed after transport or parse
// failures: dashes and an hourglass, never a fault on the board.
func Unavailable() model.WeatherView {
	return model.WeatherView{
		Available: false,
		Label:     "Unavailable",
		Icon:      "⌛",
	}
}

func (c *Client) requestURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("hourly", "temperature_2m,weather_code")
	q.Set("timezone", c.zone().String())
	return c.BaseURL + "?" + q.Encode()
}

func (c *Client) zone() *time.Location {
	if c.Zone == nil {
		return time.UTC
	}
	return c.Zone
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		c.HTTP = &http.Client{}
	}
	return c.HTTP
}

func roundTemp(v float64) int {
	return int(math.Round(v))
}
