// Package trigger drives the periodic refresh: once immediately at
// startup, then realigned to wall-clock hour boundaries in the civil
// timezone, plus an out-of-band kick path for resume/visibility stimuli
// so the board never waits out a stale hour after a suspend.
package trigger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "dutyboard/internal/log"
)

// DefaultSpec fires at every top-of-hour boundary.
const DefaultSpec = "0 * * * *"

// Trigger schedules a refresh callback.
type Trigger struct {
	c    *cron.Cron
	fn   func()
	kick chan struct{}
}

// New builds a trigger firing fn per the cron spec evaluated in zone.
// The cron clock realigns itself to wall-clock boundaries, which also
// covers host suspend/resume drift for the scheduled path.
func New(zone *time.Location, spec string, fn func()) (*Trigger, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New(cron.WithLocation(zone))
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, err
	}
	return &Trigger{
		c:    c,
		fn:   fn,
		kick: make(chan struct{}, 1),
	}, nil
}

// Kick requests an immediate out-of-schedule fire. Safe from any
// goroutine; repeats collapse while one is pending.
func (t *Trigger) Kick() {
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// Run fires once immediately, then serves the schedule and kicks until
// ctx is done.
func (t *Trigger) Run(ctx context.Context) {
	t.fn()
	t.c.Start()
	appLog.Info("refresh trigger started")

	for {
		select {
		case <-ctx.Done():
			stopCtx := t.c.Stop()
			<-stopCtx.Done()
			return
		case <-t.kick:
			appLog.Info("manual refresh kick")
			t.fn()
		}
	}
}
