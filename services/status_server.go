// Package services runs the HTTP status endpoint next to the bot.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/EasterCompany/venkatesh-bot/bot"
	"github.com/EasterCompany/venkatesh-bot/system"
	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Source is satisfied by *bot.Bot.
type Source interface {
	Status() bot.Status
}

// StatusServer provides the HTTP status endpoints for the bot.
type StatusServer struct {
	addr    string
	version string
	source  Source
	logger  *zap.Logger
	checks  map[string]Check
	sample  func() (system.Snapshot, error)

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewStatusServer creates a status server for src. Checks are run on every
// /health request.
func NewStatusServer(addr, version string, src Source, checks map[string]Check, logger *zap.Logger) *StatusServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusServer{
		addr:    addr,
		version: version,
		source:  src,
		logger:  logger,
		checks:  checks,
		sample:  system.Sample,
	}
}

// Router builds the chi router serving the status endpoints.
func (ss *StatusServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", ss.handleHealth)
	r.Get("/status", ss.handleStatus)
	return r
}

// Start listens on the configured address and serves in the background.
func (ss *StatusServer) Start() error {
	ln, err := net.Listen("tcp", ss.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: ss.Router(), ReadHeaderTimeout: 5 * time.Second}

	ss.mu.Lock()
	ss.srv = srv
	ss.listener = ln
	ss.mu.Unlock()

	ss.logger.Info("Starting status server", zap.String("addr", "http://"+ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ss.logger.Error("status server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (ss *StatusServer) Addr() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.listener == nil {
		return ss.addr
	}
	return ss.listener.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (ss *StatusServer) Shutdown(ctx context.Context) error {
	ss.mu.Lock()
	srv := ss.srv
	ss.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// handleHealth returns 200 when every check passes or is disabled, 503
// otherwise.
func (ss *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(ss.checks))
	for name := range ss.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	overall := StatusOK
	results := make(map[string]CheckResult, len(names))
	summary := make([]string, 0, len(names))
	for _, name := range names {
		res := ss.checks[name](ctx)
		results[name] = res
		summary = append(summary, name+" "+GetStatusEmoji(res.Status))
		if res.Status == StatusBad {
			code = http.StatusServiceUnavailable
			overall = StatusBad
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":  overall,
		"summary": strings.Join(summary, " "),
		"checks":  results,
	})
}

// handleStatus returns detailed bot status.
func (ss *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := ss.source.Status()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics := map[string]interface{}{
		"goroutines":      runtime.NumGoroutine(),
		"memory_alloc_mb": float64(m.Alloc) / 1024 / 1024,
		"memory_sys_mb":   float64(m.Sys) / 1024 / 1024,
		"gc_runs":         m.NumGC,
		"latency_ms":      st.Latency.Milliseconds(),
	}
	for k, v := range utils.GetMetrics() {
		metrics[k] = v
	}
	if snap, err := ss.sample(); err != nil {
		ss.logger.Debug("system sample failed", zap.Error(err))
	} else {
		metrics["cpu_percent"] = snap.CPUPercent
		metrics["memory_percent"] = snap.MemoryPercent
		metrics["host_uptime"] = snap.HostUptime.String()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":     "venkatesh-bot",
		"version":     ss.version,
		"state":       st.State,
		"initialized": st.Initialized,
		"uptime":      st.Uptime.Round(time.Second).String(),
		"timestamp":   time.Now().Format(time.RFC3339),
		"extensions":  st.Extensions,
		"commands":    st.Commands,
		"metrics":     metrics,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
