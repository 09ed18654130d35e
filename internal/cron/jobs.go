package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultPruneSchedule runs the prune job at the top of every hour.
const DefaultPruneSchedule = "0 * * * *"

// Pruner deletes stored messages older than a cutoff and reports how many
// were removed.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// PruneJob removes messages whose timestamp falls outside Retention.
type PruneJob struct {
	Store        Pruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = DefaultPruneSchedule

	// Now overrides the clock in tests.
	Now func() time.Time
}

var _ Job = (*PruneJob)(nil)

// Name implements Job.
func (j *PruneJob) Name() string { return "message_prune" }

// Schedule implements Job.
func (j *PruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return DefaultPruneSchedule
}

// Run deletes messages older than now minus Retention. A zero retention
// keeps everything.
func (j *PruneJob) Run(ctx context.Context) error {
	if j.Retention <= 0 {
		return nil
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	cutoff := now().Add(-j.Retention)

	pruned, err := j.Store.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cron: prune messages: %w", err)
	}
	if pruned > 0 && j.Logger != nil {
		j.Logger.Info("cron: pruned messages", "count", pruned, "before", cutoff.UTC().Format(time.RFC3339))
	}
	return nil
}
