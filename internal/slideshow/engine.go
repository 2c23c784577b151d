// Package slideshow rotates the board's slide assets through two
// alternating buffers: the next asset is preloaded into the hidden buffer
// and visibility flips with a crossfade, so the visible slide is never
// replaced by a half-loaded one.
package slideshow

import (
	"context"
	"time"

	"dutyboard/internal/board"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/metrics"
	"dutyboard/internal/model"
)

// DefaultInterval is the rotation cadence.
const DefaultInterval = 30 * time.Second

// Preloader fetches an asset ahead of display. A failed preload does not
// stall the rotation; the broken reference is shown and the display layer
// surfaces the broken-image affordance.
type Preloader interface {
	Preload(ctx context.Context, asset model.SlideAsset) error
}

// State is the engine's presentation state: which slot is visible and
// which asset index it shows. Exactly one slot is visible at any instant;
// the other is the preload target.
type State struct {
	Active board.Slot
	Index  int
}

// next is the pure advance transition: toggle the active slot, step the
// index modulo the asset count.
func (s State) next(count int) State {
	return State{
		Active: s.Active.Other(),
		Index:  (s.Index + 1) % count,
	}
}

// Engine drives the rotation. All state is owned by the Run goroutine;
// Next is the only cross-goroutine entry point.
type Engine struct {
	assets    []model.SlideAsset
	surface   board.Surface
	preloader Preloader
	interval  time.Duration

	state  State
	shown  bool
	nextCh chan struct{}
}

// New builds an engine over a fixed asset sequence loaded once per
// display session.
func New(assets []model.SlideAsset, surface board.Surface, preloader Preloader, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{
		assets:    assets,
		surface:   surface,
		preloader: preloader,
		interval:  interval,
		// Before the first show SlotB counts as visible, so the first
		// commit lands in SlotA.
		state:  State{Active: board.SlotB, Index: -1},
		nextCh: make(chan struct{}, 1),
	}
}

// Next requests a manual skip. It reuses the same advance transition as
// the timer and never resets the timer interval: the rotation cadence
// stays fixed regardless of manual skips.
func (e *Engine) Next() {
	select {
	case e.nextCh <- struct{}{}:
	default:
		// A skip is already pending; collapsing repeats is fine.
	}
}

// Run shows the first asset, then advances on every tick or manual skip
// until ctx is done. With no assets the engine stays unstarted and
// returns immediately.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	e.RunWithTicks(ctx, ticker.C)
}

// RunWithTicks is Run with an injected tick source.
func (e *Engine) RunWithTicks(ctx context.Context, ticks <-chan time.Time) {
	if len(e.assets) == 0 {
		appLog.Warn("slideshow: no assets, staying unstarted")
		return
	}

	// First show: immediate, no crossfade.
	e.advance(ctx, "init")
	appLog.Info("slideshow started", "assets", len(e.assets), "interval", e.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			e.advance(ctx, "timer")
		case <-e.nextCh:
			e.advance(ctx, "manual")
		}
	}
}

func (e *Engine) advance(ctx context.Context, kind string) {
	next := e.state.next(len(e.assets))
	asset := e.assets[next.Index]

	// Preload completes, success or failure, before any visible change.
	if err := e.preloader.Preload(ctx, asset); err != nil {
		appLog.Warn("slide preload failed, advancing anyway",
			"src", asset.Src,
			"index", next.Index,
			"err", err,
		)
	}

	animate := e.shown
	e.surface.SetSlide(next.Active, asset, animate)
	e.state = next
	e.shown = true
	metrics.SlideAdvances.WithLabelValues(kind).Inc()
	appLog.Debug("slide shown",
		"kind", kind,
		"index", next.Index,
		"slot", next.Active.String(),
		"animate", animate,
	)
}
