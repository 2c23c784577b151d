package weather

import (
	"context"
	"time"

	"dutyboard/internal/board"
	"dutyboard/internal/geo"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/metrics"
	"dutyboard/internal/refresh"
)

// Task is the weather refresh task: locate, fetch, derive, commit.
// The commit gate runs immediately before the surface write because
// currency can change during either suspension point (locate or fetch).
type Task struct {
	Coord       *refresh.Coordinator
	Locator     geo.Provider
	Client      *Client
	Surface     board.Surface
	Now         func() time.Time
	HourlyCount int
}

// Run performs one weather refresh cycle.
func (t *Task) Run(ctx context.Context, cycle string) {
	tok := t.Coord.Begin()

	coords, located := t.Locator.Locate(ctx)
	appLog.Debug("weather refresh located",
		"cycle", cycle,
		"lat", coords.Latitude,
		"lon", coords.Longitude,
		"from_locator", located,
	)

	outcome := t.Client.Fetch(ctx, coords.Latitude, coords.Longitude, t.Now(), t.HourlyCount)

	view := outcome.View
	label := "ok"
	switch outcome.Status {
	case StatusOK:
		if view.ForecastUnavailable {
			appLog.Warn("weather refresh: hourly forecast exhausted for today", "cycle", cycle)
		}
	case StatusUnreachable:
		appLog.Warn("weather refresh unreachable, committing placeholder", "cycle", cycle, "err", outcome.Err)
		view = Unavailable()
		label = "unavailable"
	case StatusMalformed:
		appLog.Error("weather refresh payload malformed, committing placeholder", outcome.Err, "cycle", cycle)
		view = Unavailable()
		label = "unavailable"
	}

	if !t.Coord.IsCurrent(tok) {
		// Superseded mid-flight: expected, discard without side effects.
		appLog.Debug("weather refresh superseded, discarding", "cycle", cycle)
		metrics.StaleDiscards.WithLabelValues("weather").Inc()
		return
	}

	t.Surface.SetWeather(view)
	metrics.RefreshCycles.WithLabelValues("weather", label).Inc()
	if outcome.Status == StatusOK {
		appLog.Info("weather committed",
			"cycle", cycle,
			"temp_c", view.TempC,
			"label", view.Label,
			"hourly_entries", len(view.Hourly),
		)
	}
}
