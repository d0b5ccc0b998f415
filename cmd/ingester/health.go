package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hometrics/market-ingester/internal/metrics"
	"github.com/hometrics/market-ingester/internal/pipeline"
)

// healthServer exposes /health plus the Prometheus scrape endpoint while a
// run is in progress.
type healthServer struct {
	mu        sync.RWMutex
	startTime time.Time
	summary   *pipeline.Summary
	server    *http.Server
}

// healthResponse is the JSON response for /health.
type healthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	RunID       string `json:"run_id,omitempty"`
	TotalLoaded int    `json:"total_loaded"`
	TotalFailed int    `json:"total_failed"`
}

func newHealthServer(port int, m *metrics.Metrics) *healthServer {
	hs := &healthServer{startTime: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.Handle("/metrics", m.Handler())

	hs.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return hs
}

func (hs *healthServer) Start() {
	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()
}

func (hs *healthServer) Stop() {
	if hs.server != nil {
		hs.server.Close()
	}
}

// SetSummary publishes the finished run's counts.
func (hs *healthServer) SetSummary(s *pipeline.Summary) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.summary = s
}

func (hs *healthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	resp := healthResponse{
		Status: "running",
		Uptime: time.Since(hs.startTime).Round(time.Second).String(),
	}
	if hs.summary != nil {
		resp.Status = "complete"
		resp.RunID = hs.summary.RunID
		resp.TotalLoaded = hs.summary.TotalLoaded
		resp.TotalFailed = hs.summary.TotalFailed
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
