// Package worker runs the asynchronous scoring side of the corpus
// ingestion pipeline: events come off the queue, get a carbon footprint
// score, and land in the corpus store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/mzare/ecotrace/internal/adapters/mq/queue"
	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/pkg/logger"
	"github.com/mzare/ecotrace/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Scorer computes a carbon footprint score for product attributes.
type Scorer interface {
	Score(attrs model.ProductAttributes) model.CFScore
}

// CorpusWriter receives scored products.
type CorpusWriter interface {
	Add(ctx context.Context, p model.Product) (bool, error)
}

// EventSource defines how workers receive events.
type EventSource interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes ingestion events until stopped.
type Worker struct {
	source EventSource
	scorer Scorer
	corpus CorpusWriter
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker over the given source, scorer and corpus.
func NewWorker(source EventSource, scorer Scorer, corpus CorpusWriter, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		scorer:   scorer,
		corpus:   corpus,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is canceled or the source closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing ingest event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent scores a single event and writes it to the corpus.
func (w *Worker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	score := w.scorer.Score(event.Attributes)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	metrics.RecordScoreComputed()

	created, err := w.corpus.Add(ctx, model.Product{
		ProductID:  event.ProductID,
		Attributes: event.Attributes,
		Score:      score,
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "corpus_error")
		w.logger.Error(ctx, "corpus update failed for event",
			logger.String("eventID", event.EventID),
			logger.Error(err),
		)
		return fmt.Errorf("corpus update failed for event %s: %w", event.EventID, err)
	}

	metrics.RecordProductIngested()
	w.logger.Debug(ctx, "product ingested",
		logger.String("productID", event.ProductID),
		logger.Float64("cfScore", score.Value),
		logger.String("cfBand", string(score.Band)),
		logger.Bool("created", created),
	)
	return nil
}

// Pool manages a fixed set of workers draining one queue.
type Pool struct {
	workers []*Worker
	source  EventSource

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, source EventSource, scorer Scorer, corpus CorpusWriter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*Worker, workerCount),
		source:   source,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(
			source,
			scorer,
			corpus,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the source queue, then drains and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
