package graph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/store"
)

// JobStatus is the lifecycle state of a background chain execution.
type JobStatus string

const (
	JobRunning  JobStatus = "RUNNING"
	JobFinished JobStatus = "FINISHED"
	JobFailed   JobStatus = "FAILED"
)

// JobDetail describes one background execution.
type JobDetail struct {
	JobID       string
	Description string
	Status      JobStatus
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// jobTracker holds job details for the lifetime of the graph.
type jobTracker struct {
	mu   sync.RWMutex
	jobs map[string]JobDetail
}

func newJobTracker() *jobTracker {
	return &jobTracker{jobs: make(map[string]JobDetail)}
}

func (t *jobTracker) put(detail JobDetail) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[detail.JobID] = detail
}

func (t *jobTracker) get(jobID string) (JobDetail, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	detail, ok := t.jobs[jobID]
	return detail, ok
}

// ExecuteJob runs the chain in the background through the same pipeline as
// Execute and returns immediately with a running JobDetail. The job drains
// and closes the result; callers poll JobDetailFor for completion.
func (g *Graph) ExecuteJob(ctx context.Context, chain *operation.Chain, user store.User) (JobDetail, error) {
	if chain == nil || len(chain.Operations) == 0 {
		return JobDetail{}, errors.WrapInvalid(errors.ErrEmptyChain, "Graph", "ExecuteJob", "run chain")
	}

	detail := JobDetail{
		JobID:       uuid.NewString(),
		Description: chain.Name(),
		Status:      JobRunning,
		StartedAt:   time.Now().UTC(),
	}
	g.jobs.put(detail)

	// the goroutine builds its own completion record; the detail returned
	// below is never touched again
	jobID := detail.JobID
	go func() {
		result, err := g.Execute(ctx, chain, user)
		if err == nil && result != nil {
			_, err = operation.Collect(result)
		}

		done, _ := g.jobs.get(jobID)
		done.FinishedAt = time.Now().UTC()
		if err != nil {
			done.Status = JobFailed
			done.Error = err.Error()
			g.logger.Warn("background chain failed", "jobId", jobID, "error", err)
		} else {
			done.Status = JobFinished
		}
		g.jobs.put(done)
	}()

	return detail, nil
}

// JobDetailFor returns the detail of a previously submitted job.
func (g *Graph) JobDetailFor(jobID string) (JobDetail, error) {
	detail, ok := g.jobs.get(jobID)
	if !ok {
		return JobDetail{}, errors.WrapInvalid(errors.ErrKeyNotFound, "Graph", "JobDetailFor", jobID)
	}
	return detail, nil
}
