package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"dutyboard/internal/board"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/metrics"
	"dutyboard/internal/model"
	"dutyboard/internal/refresh"
)

// Task is the warnings refresh task. It runs independently of the weather
// task against its own source; a failure here never touches other panels.
type Task struct {
	Coord   *refresh.Coordinator
	URL     string
	HTTP    *http.Client
	Surface board.Surface
}

// Run performs one warnings refresh cycle. Transport or parse failures
// commit the explicit empty state so the panel hides itself.
func (t *Task) Run(ctx context.Context, cycle string) {
	tok := t.Coord.Begin()

	view, err := t.retrieve(ctx)
	label := "ok"
	if err != nil {
		appLog.Warn("warnings refresh failed, committing empty state", "cycle", cycle, "err", err)
		view = model.WarningsView{}
		label = "unavailable"
	}

	if !t.Coord.IsCurrent(tok) {
		appLog.Debug("warnings refresh superseded, discarding", "cycle", cycle)
		metrics.StaleDiscards.WithLabelValues("warnings").Inc()
		return
	}

	t.Surface.SetWarnings(view)
	metrics.RefreshCycles.WithLabelValues("warnings", label).Inc()
	metrics.WarningSeverity.Set(float64(view.MaxSeverity.Rank()))
	if err == nil {
		appLog.Info("warnings committed",
			"cycle", cycle,
			"items", len(view.Items),
			"max_severity", string(view.MaxSeverity),
		)
	}
}

func (t *Task) retrieve(ctx context.Context) (model.WarningsView, error) {
	if t.URL == "" {
		return model.WarningsView{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return model.WarningsView{}, err
	}

	client := t.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.WarningsView{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.WarningsView{}, fmt.Errorf("warnings: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.WarningsView{}, err
	}

	return Parse(body)
}
