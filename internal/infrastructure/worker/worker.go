package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// Queue is the consuming side of the job queue.
type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	Recover(ctx context.Context) (int, error)
	Len(ctx context.Context) (int64, error)
}

// Dispatcher runs one job by id.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// Requeuer queues stored jobs of a status again.
type Requeuer interface {
	Requeue(ctx context.Context, status domain.JobStatus, limit int) (int, error)
}

// Sweeper advances billing period statuses.
type Sweeper interface {
	Sweep(ctx context.Context, asOf time.Time) (usecase.SweepResult, error)
}

// DepthGauge receives the number of waiting jobs.
type DepthGauge interface {
	SetQueueDepth(n int64)
}

// Config for Worker.
type Config struct {
	Queue       Queue
	Dispatcher  Dispatcher
	Requeuer    Requeuer   // optional
	Sweeper     Sweeper    // optional
	Gauge       DepthGauge // optional
	Logger      zerolog.Logger
	Concurrency int           // Number of consuming goroutines
	PollTimeout time.Duration // How long one dequeue blocks
	// SweepInterval is how often billing periods are swept. The gauge is
	// refreshed on its own, shorter ticker.
	SweepInterval time.Duration
	GaugeInterval time.Duration
	RequeueLimit  int
}

// Worker consumes job ids from the queue and dispatches them. Next to the
// consumers it runs the billing period sweep.
type Worker struct {
	queue         Queue
	dispatcher    Dispatcher
	requeuer      Requeuer
	sweeper       Sweeper
	gauge         DepthGauge
	logger        zerolog.Logger
	concurrency   int
	pollTimeout   time.Duration
	sweepInterval time.Duration
	gaugeInterval time.Duration
	requeueLimit  int
	now           func() time.Time
}

// New creates a new Worker.
func New(cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.GaugeInterval <= 0 {
		cfg.GaugeInterval = 15 * time.Second
	}
	if cfg.RequeueLimit <= 0 {
		cfg.RequeueLimit = 1000
	}

	return &Worker{
		queue:         cfg.Queue,
		dispatcher:    cfg.Dispatcher,
		requeuer:      cfg.Requeuer,
		sweeper:       cfg.Sweeper,
		gauge:         cfg.Gauge,
		logger:        cfg.Logger,
		concurrency:   cfg.Concurrency,
		pollTimeout:   cfg.PollTimeout,
		sweepInterval: cfg.SweepInterval,
		gaugeInterval: cfg.GaugeInterval,
		requeueLimit:  cfg.RequeueLimit,
		now:           time.Now,
	}
}

// Start recovers work left over by a previous run, then consumes until ctx
// is cancelled. It returns after every in-flight job has finished.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("concurrency", w.concurrency).
		Dur("poll_timeout", w.pollTimeout).
		Dur("sweep_interval", w.sweepInterval).
		Msg("worker started")

	w.recoverStranded(ctx)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}

	w.maintain(ctx)

	wg.Wait()
	w.logger.Info().Msg("worker stopped")
	return ctx.Err()
}

func (w *Worker) recoverStranded(ctx context.Context) {
	moved, err := w.queue.Recover(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to recover stranded jobs")
	} else if moved > 0 {
		w.logger.Warn().Int("count", moved).Msg("recovered stranded jobs")
	}

	if w.requeuer == nil {
		return
	}
	queued, err := w.requeuer.Requeue(ctx, domain.JobStatusPending, w.requeueLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to requeue pending jobs")
		return
	}
	if queued > 0 {
		w.logger.Info().Int("count", queued).Msg("requeued pending jobs")
	}
}

func (w *Worker) consume(ctx context.Context, id int) {
	log := w.logger.With().Int("consumer", id).Logger()

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	for ctx.Err() == nil {
		jobID, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := b.NextBackOff()
			log.Error().Err(err).Dur("retry_in", wait).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		b.Reset()

		if jobID == "" {
			continue
		}
		w.process(ctx, log, jobID)
	}
}

// process dispatches one job. A job that started is run to the end even
// when shutdown begins meanwhile. Ids whose dispatch hit a storage error
// stay unacked and come back on the next start.
func (w *Worker) process(ctx context.Context, log zerolog.Logger, jobID string) {
	runCtx := context.WithoutCancel(ctx)

	if err := w.dispatcher.Dispatch(runCtx, jobID); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("dispatch failed, leaving job unacked")
		return
	}

	if err := w.queue.Ack(runCtx, jobID); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to ack job")
	}
}

func (w *Worker) maintain(ctx context.Context) {
	sweep := time.NewTicker(w.sweepInterval)
	defer sweep.Stop()
	gauge := time.NewTicker(w.gaugeInterval)
	defer gauge.Stop()

	w.sweep(ctx)
	w.reportDepth(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			w.sweep(ctx)
		case <-gauge.C:
			w.reportDepth(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	if w.sweeper == nil {
		return
	}
	if _, err := w.sweeper.Sweep(ctx, w.now()); err != nil && ctx.Err() == nil {
		w.logger.Error().Err(err).Msg("billing period sweep failed")
	}
}

func (w *Worker) reportDepth(ctx context.Context) {
	if w.gauge == nil {
		return
	}
	n, err := w.queue.Len(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("failed to read queue depth")
		}
		return
	}
	w.gauge.SetQueueDepth(n)
}
