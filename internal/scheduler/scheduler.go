package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrNotStarted marks jobs skipped because the parent context was cancelled
// before a slot was granted.
var ErrNotStarted = errors.New("job not started")

// ErrPanic marks a job that panicked.
var ErrPanic = errors.New("job panicked")

// Job is one unit of work.
type Job func(ctx context.Context) error

// JobError associates a failure with the submission index of its job.
type JobError struct {
	Index int
	Err   error
}

func (e JobError) Error() string {
	return fmt.Sprintf("job %d: %v", e.Index, e.Err)
}

func (e JobError) Unwrap() error {
	return e.Err
}

// Report summarizes a Run.
type Report struct {
	Total      int
	Succeeded  int
	Failed     int
	NotStarted int
	// Errors lists failed and not-started jobs in submission order.
	Errors []JobError
}

// Err joins every job error, or returns nil when all jobs succeeded.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Run executes jobs with at most limit in flight and waits for all of them.
// A limit below one is treated as one.
func Run(ctx context.Context, limit int, jobs []Job) Report {
	if limit < 1 {
		limit = 1
	}
	results := make([]error, len(jobs))
	started := make([]bool, len(jobs))

	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup

	for i, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		started[i] = true
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = runJob(ctx, job)
		}(i, job)
	}
	wg.Wait()

	report := Report{Total: len(jobs)}
	for i := range jobs {
		switch {
		case !started[i]:
			report.NotStarted++
			report.Errors = append(report.Errors, JobError{Index: i, Err: ErrNotStarted})
		case results[i] != nil:
			report.Failed++
			report.Errors = append(report.Errors, JobError{Index: i, Err: results[i]})
		default:
			report.Succeeded++
		}
	}
	return report
}

func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()
	if job == nil {
		return errors.New("nil job")
	}
	return job(ctx)
}
