// Package scheduler runs the periodic upstream catalog probe.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/mtg-cards/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Pinger is implemented by catalog.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the outcome of the most recent probe.
type Status struct {
	Up        bool
	CheckedAt time.Time
	Err       string
}

// Probe checks the catalog on a cron schedule and remembers the last result.
type Probe struct {
	pinger  Pinger
	timeout time.Duration

	mu   sync.RWMutex
	last Status
}

// NewProbe returns a probe that bounds each ping by timeout.
func NewProbe(p Pinger, timeout time.Duration) *Probe {
	return &Probe{pinger: p, timeout: timeout}
}

// Status returns the last recorded result. ok is false until the first probe finishes.
func (p *Probe) Status() (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, !p.last.CheckedAt.IsZero()
}

// Once pings the catalog and records the result.
func (p *Probe) Once(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	st := Status{Up: true, CheckedAt: time.Now()}
	if err := p.pinger.Ping(ctx); err != nil {
		st.Up = false
		st.Err = err.Error()
	}

	p.mu.Lock()
	prev := p.last
	p.last = st
	p.mu.Unlock()

	metrics.SetCatalogUp(st.Up)
	if st.Up != prev.Up || prev.CheckedAt.IsZero() {
		if st.Up {
			slog.Info("scheduler: catalog up")
		} else {
			slog.Warn("scheduler: catalog down", "error", st.Err)
		}
	}
	return st
}

// Run probes once immediately and then on every tick of schedule (a robfig/cron
// expression such as "@every 5m"). It blocks until ctx is done.
func (p *Probe) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { p.Once(ctx) }); err != nil {
		return err
	}
	slog.Info("scheduler: catalog probe scheduled", "schedule", schedule)

	p.Once(ctx)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
