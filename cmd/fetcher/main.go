// The fetcher downloads the latest public snapshots (Zillow ZHVI, Redfin
// market tracker, FRED mortgage rates) into the raw data directory for the
// ingester to pick up.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hometrics/market-ingester/internal/config"
	"github.com/hometrics/market-ingester/internal/fetch"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	only := flag.String("sources", "zillow,redfin,fred", "comma-separated sources to fetch")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wanted := map[string]bool{}
	for _, s := range strings.Split(*only, ",") {
		wanted[strings.TrimSpace(s)] = true
	}

	f := fetch.New(cfg.Fetch.RawDataDir, cfg.Fetch.State, cfg.Fetch.FREDAPIKey)

	// A failed source is logged and skipped; the others still run.
	if wanted["zillow"] {
		if _, err := f.Zillow(ctx); err != nil {
			log.Error().Err(err).Msg("zillow fetch failed")
		}
	}
	if wanted["redfin"] {
		if _, err := f.Redfin(ctx); err != nil {
			log.Error().Err(err).Msg("redfin fetch failed")
		}
	}
	if wanted["fred"] {
		if _, err := f.FRED(ctx, fetch.MortgageSeries); err != nil {
			log.Error().Err(err).Msg("fred fetch failed")
		}
	}
}
