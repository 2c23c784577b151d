// Package roster loads the contacts and pages documents and runs the
// contact-of-the-day refresh.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dutyboard/internal/board"
	"dutyboard/internal/civil"
	"dutyboard/internal/duty"
	"dutyboard/internal/fetch"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/metrics"
	"dutyboard/internal/model"
	"dutyboard/internal/refresh"
)

// Document is the contacts data source: an ordered roster plus exact-date
// assignment overrides keyed by ISO date.
type Document struct {
	Roster      []model.Contact   `json:"roster"`
	Assignments map[string]string `json:"assignments"`
}

// ParseContacts decodes a contacts document.
func ParseContacts(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("contacts document: %w", err)
	}
	return doc, nil
}

// pagesDocument is the slideshow data source.
type pagesDocument struct {
	Pages []model.SlideAsset `json:"pages"`
}

// ParsePages decodes a pages document, dropping entries without a src.
func ParsePages(body []byte) ([]model.SlideAsset, error) {
	var doc pagesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("pages document: %w", err)
	}
	out := make([]model.SlideAsset, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		if p.Src == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// OverrideSource supplies additional date→slug overrides, e.g. from the
// duty calendar feed. Implementations are best-effort: an error skips the
// source for this cycle.
type OverrideSource interface {
	Overrides(ctx context.Context, from, to civil.Date) (duty.Overrides, error)
}

// Task is the contact refresh task. Each invocation re-reads the contacts
// document from scratch; there is no incremental update contract.
type Task struct {
	Coord    *refresh.Coordinator
	Fetcher  *fetch.Fetcher
	Source   fetch.Source
	Calendar OverrideSource // optional
	Surface  board.Surface
	Zone     *time.Location
	Now      func() time.Time
}

// Run performs one contact refresh cycle. cycle is a correlation id for
// logging.
func (t *Task) Run(ctx context.Context, cycle string) {
	tok := t.Coord.Begin()

	res, err := t.Fetcher.FetchOne(ctx, t.Source)
	if err != nil {
		// The board keeps showing the last-rendered contact.
		appLog.Error("contact refresh fetch failed", err, "cycle", cycle)
		metrics.RefreshCycles.WithLabelValues("contact", "error").Inc()
		return
	}

	doc, err := ParseContacts(res.Body)
	if err != nil {
		appLog.Error("contact refresh parse failed", err, "cycle", cycle)
		metrics.RefreshCycles.WithLabelValues("contact", "error").Inc()
		return
	}

	today := civil.Today(t.Now(), t.Zone)
	overrides := t.collectOverrides(ctx, today, doc.Assignments, cycle)

	chosen, ok := duty.Select(doc.Roster, overrides, today)
	if !ok {
		appLog.Warn("contact refresh: empty roster, keeping last contact", "cycle", cycle)
		metrics.RefreshCycles.WithLabelValues("contact", "unavailable").Inc()
		return
	}

	if !t.Coord.IsCurrent(tok) {
		appLog.Debug("contact refresh superseded, discarding", "cycle", cycle)
		metrics.StaleDiscards.WithLabelValues("contact").Inc()
		return
	}

	t.Surface.SetContact(chosen)
	metrics.RefreshCycles.WithLabelValues("contact", "ok").Inc()
	appLog.Info("contact committed",
		"cycle", cycle,
		"slug", chosen.Slug,
		"date", today.ISODate(),
		"weekday", today.WeekdayCode(),
		"iso_week", today.ISOWeek(),
	)
}

// collectOverrides merges calendar overrides under the document's
// assignments: an explicit per-date entry in the document is the more
// deliberate edit and wins on conflict.
func (t *Task) collectOverrides(ctx context.Context, today civil.Date, assignments map[string]string, cycle string) duty.Overrides {
	merged := duty.Overrides{}

	if t.Calendar != nil {
		calOv, err := t.Calendar.Overrides(ctx, today, today)
		if err != nil {
			appLog.Warn("duty calendar unavailable, using document assignments only", "cycle", cycle, "err", err)
		} else {
			for k, v := range calOv {
				merged[k] = v
			}
		}
	}

	for k, v := range assignments {
		merged[k] = v
	}
	return merged
}
