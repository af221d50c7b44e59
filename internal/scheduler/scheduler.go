// Package scheduler runs the periodic maintenance jobs: recurring
// transaction processing, completed-task cleanup, and weekly project
// summaries. Each job carries a run-lock so overlapping firings are
// skipped, never queued.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pocketplan/internal/logger"
	"pocketplan/internal/services"
)

// taskRetention is how long completed tasks are kept before daily cleanup
// removes them.
const taskRetention = 30 * 24 * time.Hour

// Job is one periodic unit of work. Run receives the firing time.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(now time.Time) error

	// Fire once at startup in addition to the ticker cadence.
	Immediate bool

	mu sync.Mutex
}

// fire runs the job once, skipping if a previous firing is still in flight.
func (j *Job) fire(now time.Time) {
	log := logger.Get()
	if !j.mu.TryLock() {
		log.Warnw("job still running, skipping overlapping firing", "job", j.Name)
		return
	}
	defer j.mu.Unlock()

	start := time.Now()
	if err := j.Run(now); err != nil {
		log.Errorw("job failed", "job", j.Name, "error", err)
		return
	}
	log.Infow("job complete", "job", j.Name, "duration_ms", time.Since(start).Milliseconds())
}

// Scheduler owns a set of periodic jobs.
type Scheduler struct {
	jobs []*Job
}

// New builds the standard job set from the given services.
func New(recurring services.RecurringServicer, tasks services.TaskServicer, projects services.ProjectServicer, recurringInterval time.Duration) *Scheduler {
	if recurringInterval <= 0 {
		recurringInterval = 24 * time.Hour
	}

	return &Scheduler{
		jobs: []*Job{
			{
				Name:      "recurring-transactions",
				Interval:  recurringInterval,
				Immediate: true,
				Run: func(now time.Time) error {
					result, err := recurring.ProcessDue(now)
					if err != nil {
						return err
					}
					if len(result.Errors) > 0 {
						logger.Get().Warnw("some recurring transactions failed",
							"failed", len(result.Errors),
							"created", result.Created,
						)
					}
					return nil
				},
			},
			{
				Name:     "task-cleanup",
				Interval: 24 * time.Hour,
				Run: func(now time.Time) error {
					removed, err := tasks.CleanupCompletedTasks(now.Add(-taskRetention))
					if err != nil {
						return err
					}
					logger.Get().Infow("cleaned up old completed tasks", "removed", removed)
					return nil
				},
			},
			{
				Name:     "project-summary",
				Interval: 7 * 24 * time.Hour,
				Run: func(now time.Time) error {
					summaries, err := projects.GetAllWeeklySummaries(now)
					if err != nil {
						return err
					}
					log := logger.Get()
					for _, s := range summaries {
						log.Infow("weekly project summary",
							"user_id", s.UserID,
							"projects", len(s.Projects),
						)
					}
					return nil
				},
			},
		},
	}
}

// Jobs returns the scheduler's job set.
func (s *Scheduler) Jobs() []*Job {
	return s.jobs
}

// Run starts every job loop and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			return s.runLoop(ctx, job)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) error {
	log := logger.Get()
	log.Infow("starting job loop", "job", job.Name, "interval", job.Interval.String())

	if job.Immediate {
		job.fire(time.Now())
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("stopping job loop", "job", job.Name)
			return ctx.Err()
		case now := <-ticker.C:
			job.fire(now)
		}
	}
}
