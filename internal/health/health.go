// Package health serves liveness, readiness and dependency status over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fd1az/deal-finder/internal/logger"
)

const checkTimeout = 5 * time.Second

// Overall states reported by /health.
const (
	StateOK       = "ok"
	StateDegraded = "degraded"
	StateDown     = "down"
)

// Status is the /health response body.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check is the result of one dependency check.
type Check struct {
	Healthy  bool   `json:"healthy"`
	Required bool   `json:"required"`
	Message  string `json:"message,omitempty"`
}

// CheckFunc reports whether a dependency is usable and a short message.
type CheckFunc func(ctx context.Context) (bool, string)

// PingCheck adapts a dependency ping into a CheckFunc reporting latency.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) (bool, string) {
		latency, err := Probe(ctx, ping)
		if err != nil {
			return false, err.Error()
		}
		return true, latency.Round(time.Millisecond).String()
	}
}

// Probe times a single ping.
func Probe(ctx context.Context, ping func(ctx context.Context) error) (time.Duration, error) {
	start := time.Now()
	err := ping(ctx)
	return time.Since(start), err
}

type registered struct {
	fn       CheckFunc
	required bool
}

// Server exposes /health, /ready and /live. A failing required check makes
// the process not ready; a failing optional one only degrades /health, since
// the pipeline has a fallback for it.
type Server struct {
	port    int
	version string
	mu      sync.RWMutex
	checks  map[string]registered
	server  *http.Server
	logger  logger.LoggerInterface
}

// NewServer creates a health server listening on port once started.
func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	return &Server{
		port:    port,
		version: version,
		checks:  make(map[string]registered),
		logger:  log,
	}
}

// RegisterCheck adds a dependency the pipeline cannot run without.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.register(name, check, true)
}

// RegisterOptional adds a dependency whose loss only degrades results.
func (s *Server) RegisterOptional(name string, check CheckFunc) {
	s.register(name, check, false)
}

func (s *Server) register(name string, check CheckFunc, required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = registered{fn: check, required: required}
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("alive"))
	})
	return mux
}

// Start listens in the background. A listen failure is logged, not fatal.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn(context.Background(), "health server stopped", "addr", s.server.Addr, "error", err)
		}
	}()

	s.logger.Info(context.Background(), "health server listening", "addr", s.server.Addr)
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// run evaluates every check concurrently under one timeout.
func (s *Server) run(ctx context.Context) map[string]Check {
	s.mu.RLock()
	checks := make(map[string]registered, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(checks))
	)
	for name, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			healthy, msg := c.fn(ctx)
			mu.Lock()
			results[name] = Check{Healthy: healthy, Required: c.required, Message: msg}
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

func overall(results map[string]Check) string {
	state := StateOK
	for _, c := range results {
		switch {
		case c.Healthy:
		case c.Required:
			return StateDown
		default:
			state = StateDegraded
		}
	}
	return state
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.run(r.Context())
	status := Status{
		Status:    overall(results),
		Checks:    results,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StateDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if overall(s.run(r.Context())) == StateDown {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}
