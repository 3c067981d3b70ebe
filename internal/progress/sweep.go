package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduleReconcile registers a periodic badge reconcile on s. Overlapping
// runs are skipped rather than queued.
func (r *Recorder) ScheduleReconcile(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	job, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			if _, err := r.Reconcile(ctx); err != nil {
				r.logger.Error("badge reconcile", "error", err)
			}
		}),
		gocron.WithName("badge-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduling badge reconcile: %w", err)
	}
	return job, nil
}
