package dispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of background reply work. The reply token is carried along
// for diagnostics; delivery happens via push so group targets work too.
type Job struct {
	ID         uuid.UUID
	TargetID   string
	Text       string
	ReplyToken string
}

// ProcessFunc runs the reply pipeline for one job.
type ProcessFunc func(ctx context.Context, targetID, text string)

// Pool is a bounded worker pool replacing fire-and-forget goroutines per
// event. When the queue is full, Submit drops the job with a warning; the
// webhook acknowledgment must never block on slow model calls.
type Pool struct {
	jobs    chan Job
	workers int
	process ProcessFunc
	logger  *slog.Logger
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(log *slog.Logger, workers, queueSize int, process ProcessFunc) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if workers <= 0 {
		workers = 8
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		process: process,
		logger:  log.With(slog.String("service", "dispatch_pool")),
	}
}

// Start launches the workers. They run until Stop cancels them.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			p.worker(ctx)
			return nil
		})
	}
	p.logger.Info("workers started", slog.Int("workers", p.workers), slog.Int("queue", cap(p.jobs)))
}

// Stop cancels the workers and waits for in-flight jobs to finish, or for ctx
// to expire.
func (p *Pool) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues a job without blocking. Returns false when the queue is
// full; the job is then dropped (deliberate backpressure policy).
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		p.logger.Warn("queue full, dropping job",
			slog.String("job_id", job.ID.String()),
			slog.String("target_id", job.TargetID),
		)
		return false
	}
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.run(ctx, job)
		}
	}
}

// run executes one job with panic recovery at the task boundary so a bad
// event can never take the process down.
func (p *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				slog.String("job_id", job.ID.String()),
				slog.String("target_id", job.TargetID),
				slog.Any("panic", r),
			)
		}
	}()
	p.process(ctx, job.TargetID, job.Text)
}
