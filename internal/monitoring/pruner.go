package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/ender-todo/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner deletes activity events older than the retention window on a cron
// schedule.
type Pruner struct {
	eventSvc  services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	nextRunAt time.Time
	now       func() time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewPruner creates a pruner. expr is a standard five-field cron expression.
func NewPruner(eventSvc services.EventServiceProvider, expr string, retention time.Duration) (*Pruner, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", expr, err)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("event retention must be positive, got %s", retention)
	}

	p := &Pruner{
		eventSvc:  eventSvc,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		done:      make(chan bool),
	}
	p.nextRunAt = schedule.Next(p.now())
	return p, nil
}

// NextRunAt is when the next prune is due.
func (p *Pruner) NextRunAt() time.Time {
	return p.nextRunAt
}

// Run starts the pruner's ticking loop.
func (p *Pruner) Run() {
	log.Info().Time("next_run_at", p.nextRunAt).Msg("Starting event pruner")
	p.ticker = time.NewTicker(1 * time.Minute)
	defer p.ticker.Stop()

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping event pruner")
			return
		case <-p.ticker.C:
			p.checkAndPrune(context.Background())
		}
	}
}

// Stop halts the pruner.
func (p *Pruner) Stop() {
	p.done <- true
}

// checkAndPrune prunes once the schedule is due and reports whether it ran.
func (p *Pruner) checkAndPrune(ctx context.Context) bool {
	now := p.now()
	if now.Before(p.nextRunAt) {
		return false
	}
	p.nextRunAt = p.schedule.Next(now)

	cutoff := now.Add(-p.retention)
	removed, err := p.eventSvc.PruneOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Failed to prune events")
		return true
	}
	log.Info().Int64("removed", removed).Time("cutoff", cutoff).Time("next_run_at", p.nextRunAt).Msg("Pruned old events")
	return true
}
