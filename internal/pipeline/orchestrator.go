package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JakeStanger/rust-bindocs/internal/config"
	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/replacer"
)

// Orchestrator runs render jobs on a bounded worker pool.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	stats  *RenderStats
	lookup replacer.Lookup
	style  render.TypeStyle
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards closed; the queue is only closed with mu held.
	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
}

// ErrStopped is returned when submitting to a stopped orchestrator.
var ErrStopped = errors.New("orchestrator stopped")

// NewOrchestrator creates the pipeline. Call Start before submitting.
func NewOrchestrator(cfg config.Config, lookup replacer.Lookup, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	style := render.TypesFull
	if cfg.SimplifiedTypes {
		style = render.TypesSimplified
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		stats:  NewRenderStats(cfg.JobTTL),
		lookup: lookup,
		style:  style,
		log:    log,
		cfg:    cfg,

		stopping: make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.lookup, o.style, o.stats, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the workers to exit. Jobs
// still queued are marked failed.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.stopping)
	o.mu.Lock()
	o.closed = true
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
	for job := range o.queue {
		job.SetStatus(StatusFailed, "cancelled")
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// SubmitWait queues job, blocking while the queue is full. If ctx ends
// first the job is marked failed.
func (o *Orchestrator) SubmitWait(ctx context.Context, job *Job) error {
	o.jobs.Put(job)
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	case <-ctx.Done():
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "cancelled")
		return ctx.Err()
	case <-o.stopping:
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return ErrStopped
	}
}

// SubmitPlan queues one job per target and returns them in plan order.
// Targets that do not fit in the queue come back as failed jobs.
func (o *Orchestrator) SubmitPlan(targets []Target, format render.Format) []*Job {
	jobs := make([]*Job, 0, len(targets))
	for _, t := range targets {
		job := NewJob(t.Source, t.Output, format)
		if err := o.Submit(job); err != nil {
			o.log.Warn("job rejected", "source", t.Source, "error", err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// RunPlan queues one job per target, waiting for queue space as workers
// drain it, so a plan of any size is accepted. Jobs are returned in plan
// order; on cancellation the unsubmitted rest come back failed.
func (o *Orchestrator) RunPlan(ctx context.Context, targets []Target, format render.Format) ([]*Job, error) {
	jobs := make([]*Job, 0, len(targets))
	var err error
	for _, t := range targets {
		job := NewJob(t.Source, t.Output, format)
		jobs = append(jobs, job)
		if err != nil {
			job.SetStatus(StatusFailed, "cancelled")
			continue
		}
		err = o.SubmitWait(ctx, job)
	}
	return jobs, err
}

// Wait blocks until every job is finished or ctx is done.
func Wait(ctx context.Context, jobs []*Job) error {
	for _, job := range jobs {
		select {
		case <-job.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns rolling render latencies.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
