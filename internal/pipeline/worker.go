package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hometrics/market-ingester/internal/metrics"
	"github.com/hometrics/market-ingester/internal/records"
	"github.com/hometrics/market-ingester/internal/store"
)

// Task is one record to persist. Exactly one of Listing or Macro is set.
type Task struct {
	Source  string
	Listing *records.Listing
	Macro   *records.MacroIndicator
}

// key returns the record's natural key for failure logs.
func (t *Task) key() string {
	if t.Listing != nil {
		return t.Listing.ListingID
	}
	return t.Macro.Region + "/" + t.Macro.Date.Format("2006-01-02")
}

// Result is the outcome of one per-record write. Expected failures are
// values here, never errors that escape the pool.
type Result struct {
	Source   string
	Key      string
	Kind     store.ErrKind
	Err      error
	Duration time.Duration
}

// Ok reports whether the record was persisted.
func (r Result) Ok() bool { return r.Kind == store.ErrKindNone }

// RecordStore is the write surface the pool needs from the store.
type RecordStore interface {
	UpsertListing(ctx context.Context, l records.Listing) error
	UpsertMacroIndicator(ctx context.Context, m records.MacroIndicator) error
}

// PoolConfig holds configuration for the loader worker pool.
type PoolConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// ApplyDefaults sets default values for pool config.
func (c *PoolConfig) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = c.Workers * 2
	}
}

// Pool fans per-record writes out over a bounded set of workers. Each write
// is its own statement-scoped transaction, so results commute and no
// ordering is preserved.
type Pool struct {
	workers int
	st      RecordStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
	input   chan Task
	output  chan Result
	wg      sync.WaitGroup
}

// NewPool creates a loader pool over the given store.
func NewPool(cfg PoolConfig, st RecordStore, m *metrics.Metrics, logger zerolog.Logger) *Pool {
	cfg.ApplyDefaults()
	return &Pool{
		workers: cfg.Workers,
		st:      st,
		metrics: m,
		logger:  logger,
		input:   make(chan Task, cfg.QueueSize),
		output:  make(chan Result, cfg.QueueSize),
	}
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run(ctx, i)
	}
	if p.metrics != nil {
		p.metrics.SetActiveWorkers(p.workers)
	}
	p.logger.Debug().Int("workers", p.workers).Msg("loader pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for task := range p.input {
		start := time.Now()

		var err error
		if task.Listing != nil {
			err = p.st.UpsertListing(ctx, *task.Listing)
		} else {
			err = p.st.UpsertMacroIndicator(ctx, *task.Macro)
		}

		res := Result{
			Source:   task.Source,
			Key:      task.key(),
			Kind:     store.Classify(err),
			Err:      err,
			Duration: time.Since(start),
		}
		if p.metrics != nil {
			p.metrics.RecordLoad(res.Source, string(res.Kind), res.Duration)
		}

		select {
		case p.output <- res:
		case <-ctx.Done():
			return
		}
	}
}

// Submit sends a record to the pool. Blocks when the queue is full.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case p.input <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the channel of per-record outcomes.
func (p *Pool) Results() <-chan Result {
	return p.output
}

// Shutdown closes the input, waits for workers to drain it, then closes the
// output channel.
func (p *Pool) Shutdown() {
	close(p.input)
	p.wg.Wait()
	close(p.output)
	if p.metrics != nil {
		p.metrics.SetActiveWorkers(0)
	}
}
