// Package queryapi serves read-only reporting queries over the persisted
// store. Reporting collaborators (charting, forecasting) read from these
// endpoints and never see raw or intermediate records. All SQL is
// parameterized; request input is never interpolated into query text.
package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Server is the reporting HTTP API.
type Server struct {
	pool   *pgxpool.Pool
	server *http.Server
}

// New creates the API server over an existing pool.
func New(pool *pgxpool.Pool, port int) *Server {
	s := &Server{pool: pool}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/trends/yearly", s.handleYearlyTrends).Methods("GET")
	api.HandleFunc("/property-types", s.handlePropertyTypes).Methods("GET")
	api.HandleFunc("/rent-vs-own", s.handleRentVsOwn).Methods("GET")
	api.HandleFunc("/ownership", s.handleOwnership).Methods("GET")
	api.HandleFunc("/timeseries/monthly", s.handleMonthlySeries).Methods("GET")
	api.HandleFunc("/macro/latest", s.handleLatestMacro).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("query API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.pool.Ping(r.Context()); err != nil {
		status = "store unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeQueryError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("query failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
}
