// The ingester runs one ingestion batch: it picks the latest raw snapshot
// per source, normalizes, validates, assigns identities, and upserts into
// Postgres, then prints a per-source summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hometrics/market-ingester/internal/config"
	"github.com/hometrics/market-ingester/internal/metrics"
	"github.com/hometrics/market-ingester/internal/pipeline"
	"github.com/hometrics/market-ingester/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	region := flag.String("region", "", "override macro indicator region")
	rawDir := flag.String("raw-dir", "", "override raw snapshot directory")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *region != "" {
		cfg.Pipeline.Region = *region
	}
	if *rawDir != "" {
		cfg.Pipeline.RawDataDir = *rawDir
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Store unreachable is fatal for the run; nothing has been written yet.
	st, err := store.Connect(ctx, cfg.ConnString(), store.Options{
		MaxConns:      cfg.Postgres.MaxConns,
		RecordTimeout: time.Duration(cfg.Postgres.RecordTimeout) * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("store unavailable")
	}
	defer st.Close()

	m := metrics.New(cfg.Metrics)
	health := newHealthServer(cfg.Service.HealthPort, m)
	health.Start()
	defer health.Stop()

	p := pipeline.New(cfg.Pipeline, st, m, log.Logger)
	summary, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("run aborted")
	}
	health.SetSummary(summary)

	fmt.Println("==============================================")
	fmt.Println("INGESTION RUN SUMMARY")
	fmt.Println("==============================================")
	fmt.Printf("run id:        %s\n", summary.RunID)
	for _, s := range summary.Sources {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		fmt.Printf("%-8s loaded=%-6d failed=%-4d dropped=%-4d deduped=%-4d (%s)\n",
			s.Source, s.Loaded, s.Failed, s.Dropped, s.Deduped, status)
	}
	fmt.Printf("total loaded:  %d\n", summary.TotalLoaded)
	fmt.Printf("total failed:  %d\n", summary.TotalFailed)
	fmt.Printf("duration:      %s\n", summary.Duration.Round(time.Millisecond))
}
