// Package status serves the optional HTTP surface: a JSON snapshot of
// the watch loop, Prometheus counters, and a websocket event stream.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"stakeout/internal/engine"
	"stakeout/internal/event"
	"stakeout/internal/logging"
	"stakeout/internal/metrics"
	"stakeout/internal/version"
)

// Options wires a Server.
type Options struct {
	Addr     string
	Engine   *engine.Engine
	Bus      *event.Bus[engine.Event]
	Registry *metrics.Registry
	Logger   *logging.Logger
}

// Server is the status HTTP server. Start binds the listener; a bind
// failure is a startup error for the caller to surface.
type Server struct {
	opts     Options
	listener net.Listener
	httpSrv  *http.Server
}

func NewServer(opts Options) *Server {
	return &Server{opts: opts}
}

// Start binds the configured address and serves in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/api/events/ws", s.handleEventsWS)

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.httpSrv = &http.Server{Handler: mux}
	go func() {
		if serveErr := s.httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.opts.Logger.Error("status server stopped", map[string]string{"error": serveErr.Error()})
		}
	}()
	s.opts.Logger.Info("status server listening", map[string]string{"addr": s.Addr()})
	return nil
}

// Addr returns the bound address, useful when Options.Addr used port 0.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests up to ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type runDTO struct {
	Path       string    `json:"path,omitempty"`
	Command    string    `json:"command"`
	Verdict    string    `json:"verdict"`
	Summary    string    `json:"summary"`
	ExitStatus int       `json:"exit_status"`
	Start      time.Time `json:"start"`
	DurationMS int64     `json:"duration_ms"`
}

type statusResponse struct {
	Version         string    `json:"version"`
	ServerTime      time.Time `json:"server_time"`
	Watching        int       `json:"watching"`
	Paths           []string  `json:"paths"`
	IntervalSeconds float64   `json:"interval_seconds"`
	Sync            bool      `json:"sync"`
	PollCycles      int64     `json:"poll_cycles"`
	RunsStarted     int64     `json:"runs_started"`
	RunsPassed      int64     `json:"runs_passed"`
	RunsFailed      int64     `json:"runs_failed"`
	LastRuns        []runDTO  `json:"last_runs"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.opts.Engine.Snapshot()
	registry := s.opts.Registry
	response := statusResponse{
		Version:         version.Get().Version,
		ServerTime:      time.Now().UTC(),
		Watching:        snap.Watching,
		Paths:           snap.Paths,
		IntervalSeconds: snap.Interval.Seconds(),
		Sync:            snap.Sync,
		PollCycles:      registry.PollCycles(),
		RunsStarted:     registry.RunsStarted(),
		RunsPassed:      registry.RunsPassed(),
		RunsFailed:      registry.RunsFailed(),
		LastRuns:        make([]runDTO, 0, len(snap.LastRuns)),
	}
	for _, record := range snap.LastRuns {
		response.LastRuns = append(response.LastRuns, runDTO{
			Path:       record.Path,
			Command:    record.Command,
			Verdict:    record.Verdict.String(),
			Summary:    record.Summary,
			ExitStatus: record.ExitStatus,
			Start:      record.Start,
			DurationMS: record.Duration.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = s.opts.Registry.WritePrometheus(w)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
