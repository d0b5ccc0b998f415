// Package pipeline sequences adapter -> validator -> identity -> loader per
// source batch. Sources run independently: a malformed snapshot abandons
// that source only, and a bad record only costs itself.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hometrics/market-ingester/internal/metrics"
	"github.com/hometrics/market-ingester/internal/records"
	"github.com/hometrics/market-ingester/internal/sources"
	"github.com/hometrics/market-ingester/internal/validate"
)

// Config holds pipeline configuration.
type Config struct {
	RawDataDir      string     `yaml:"raw_data_dir"`
	Region          string     `yaml:"region"`
	FailureLogLimit int        `yaml:"failure_log_limit"`
	Pool            PoolConfig `yaml:",inline"`
}

// ApplyDefaults sets default values for pipeline config.
func (c *Config) ApplyDefaults() {
	if c.RawDataDir == "" {
		c.RawDataDir = "data/raw"
	}
	if c.Region == "" {
		c.Region = "florida"
	}
	if c.FailureLogLimit <= 0 {
		c.FailureLogLimit = 3
	}
	c.Pool.ApplyDefaults()
}

// SourceSummary reports one source's outcome within a run.
type SourceSummary struct {
	Source       string
	Snapshot     string
	Adapted      int
	Dropped      int
	FieldsNulled int
	Deduped      int
	Loaded       int
	Failed       int
	Err          error
}

// Summary aggregates a whole run.
type Summary struct {
	RunID       string
	Sources     []*SourceSummary
	TotalLoaded int
	TotalFailed int
	Duration    time.Duration
}

// Pipeline wires the components together for one run. Construct with New;
// there is no package-level state.
type Pipeline struct {
	cfg     Config
	store   RecordStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a pipeline over an already-connected store.
func New(cfg Config, st RecordStore, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	cfg.ApplyDefaults()
	return &Pipeline{cfg: cfg, store: st, metrics: m, logger: logger}
}

// Run ingests the latest snapshot of every source. Record-level failures
// never escalate to the batch and source-level failures never escalate
// across sources; the only error returned is context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := p.logger.With().Str("run_id", runID).Logger()
	logger.Info().Str("raw_data_dir", p.cfg.RawDataDir).Msg("starting ingestion run")

	pool := NewPool(p.cfg.Pool, p.store, p.metrics, logger)
	pool.Start(ctx)

	var summaries []*SourceSummary
	bySource := map[string]*SourceSummary{}
	for _, src := range sources.ListingSources {
		s := &SourceSummary{Source: src.Kind}
		summaries = append(summaries, s)
		bySource[src.Kind] = s
	}
	fredSummary := &SourceSummary{Source: sources.KindFRED}
	summaries = append(summaries, fredSummary)
	bySource[sources.KindFRED] = fredSummary

	// Collector: aggregate per-record outcomes, logging only the first few
	// failures per source at full detail.
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range pool.Results() {
			s := bySource[res.Source]
			if res.Ok() {
				s.Loaded++
				continue
			}
			s.Failed++
			if s.Failed <= p.cfg.FailureLogLimit {
				logger.Warn().
					Str("source", res.Source).
					Str("key", res.Key).
					Str("kind", string(res.Kind)).
					Err(res.Err).
					Msg("skipping record")
			}
		}
	}()

	var wg sync.WaitGroup
	for _, src := range sources.ListingSources {
		wg.Add(1)
		go func(src sources.ListingSource) {
			defer wg.Done()
			p.runListingSource(ctx, pool, src, bySource[src.Kind], logger)
		}(src)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.runMacroSource(ctx, pool, fredSummary, logger)
	}()

	wg.Wait()
	pool.Shutdown()
	<-collectorDone

	summary := &Summary{RunID: runID, Sources: summaries, Duration: time.Since(start)}
	for _, s := range summaries {
		summary.TotalLoaded += s.Loaded
		summary.TotalFailed += s.Failed
		if s.Failed > p.cfg.FailureLogLimit {
			logger.Warn().
				Str("source", s.Source).
				Int("suppressed", s.Failed-p.cfg.FailureLogLimit).
				Msg("additional record failures not logged")
		}
		logger.Info().
			Str("source", s.Source).
			Str("snapshot", filepath.Base(s.Snapshot)).
			Int("adapted", s.Adapted).
			Int("dropped", s.Dropped).
			Int("fields_nulled", s.FieldsNulled).
			Int("deduped", s.Deduped).
			Int("loaded", s.Loaded).
			Int("failed", s.Failed).
			Msg("source complete")
	}
	logger.Info().
		Int("total_loaded", summary.TotalLoaded).
		Int("total_failed", summary.TotalFailed).
		Dur("duration", summary.Duration).
		Msg("ingestion run complete")

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// runListingSource runs one listing source end to end: snapshot selection,
// adaptation, validation, identity assignment, in-batch dedup, load.
func (p *Pipeline) runListingSource(ctx context.Context, pool *Pool, src sources.ListingSource, s *SourceSummary, logger zerolog.Logger) {
	listings, err := p.adaptListings(src, s)
	if err != nil {
		s.Err = err
		if errors.Is(err, sources.ErrNoSnapshot) {
			logger.Warn().Str("source", src.Kind).Msg("no snapshot file, skipping source")
		} else {
			logger.Error().Str("source", src.Kind).Err(err).Msg("source batch abandoned")
		}
		return
	}
	s.Adapted = len(listings)
	if p.metrics != nil {
		p.metrics.AddAdapted(src.Kind, len(listings))
	}

	valid, stats := validate.Listings(listings)
	s.Dropped = stats.Dropped
	s.FieldsNulled = stats.FieldsNulled
	if p.metrics != nil {
		p.metrics.AddValidation(src.Kind, stats.Dropped, stats.FieldsNulled)
	}

	// Assign ids, then collapse in-batch duplicates keeping the first
	// occurrence. Replayed duplicates across runs are handled by the upsert.
	seen := make(map[string]bool, len(valid))
	for i := range valid {
		records.AssignID(&valid[i])
		if seen[valid[i].ListingID] {
			s.Deduped++
			continue
		}
		seen[valid[i].ListingID] = true
		if err := pool.Submit(ctx, Task{Source: src.Kind, Listing: &valid[i]}); err != nil {
			return
		}
	}
}

func (p *Pipeline) adaptListings(src sources.ListingSource, s *SourceSummary) ([]records.Listing, error) {
	path, err := sources.LatestSnapshot(p.cfg.RawDataDir, src.Pattern)
	if err != nil {
		return nil, err
	}
	s.Snapshot = path

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return src.Parse(f)
}

// runMacroSource ingests the macro indicator series for the configured
// region. Macro records have no validation rules; the (region, date) key
// replaces the synthetic identifier.
func (p *Pipeline) runMacroSource(ctx context.Context, pool *Pool, s *SourceSummary, logger zerolog.Logger) {
	path, err := sources.LatestSnapshot(p.cfg.RawDataDir, sources.FREDPattern)
	if err != nil {
		s.Err = err
		logger.Warn().Str("source", sources.KindFRED).Msg("no snapshot file, skipping source")
		return
	}
	s.Snapshot = path

	f, err := os.Open(path)
	if err != nil {
		s.Err = fmt.Errorf("failed to open snapshot: %w", err)
		logger.Error().Str("source", sources.KindFRED).Err(s.Err).Msg("source batch abandoned")
		return
	}
	defer f.Close()

	indicators, err := sources.ParseFRED(f, p.cfg.Region)
	if err != nil {
		s.Err = err
		logger.Error().Str("source", sources.KindFRED).Err(err).Msg("source batch abandoned")
		return
	}
	s.Adapted = len(indicators)
	if p.metrics != nil {
		p.metrics.AddAdapted(sources.KindFRED, len(indicators))
	}

	for i := range indicators {
		if err := pool.Submit(ctx, Task{Source: sources.KindFRED, Macro: &indicators[i]}); err != nil {
			return
		}
	}
}
