// Package web is the HTTP front-end of the bridge.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vatsalai/vatsal/internal/bridge"
)

const (
	serviceName           = "VATSAL Web GUI"
	DefaultExecuteTimeout = 30 * time.Second
)

// Submitter is the part of the bridge the server needs.
type Submitter interface {
	SubmitFrom(source bridge.Source, command string, metadata map[string]any) (string, error)
	Status() bridge.Status
}

// ExecuteRequest is the body of POST /api/execute.
type ExecuteRequest struct {
	Command   string `json:"command"`
	RequestID string `json:"request_id,omitempty"`
	// Source defaults to web_gui.
	Source string `json:"source,omitempty"`
	// Wait defaults to true when omitted.
	Wait *bool `json:"wait,omitempty"`
}

// Server serves the browser console, the JSON API, the websocket stream
// and metrics.
type Server struct {
	addr           string
	bridge         Submitter
	waiter         *Waiter
	hub            *Hub
	executeTimeout time.Duration
	gatherer       prometheus.Gatherer
	started        time.Time
	router         *mux.Router
}

// NewServer builds the router. gatherer may be nil to disable /metrics.
func NewServer(addr string, b Submitter, waiter *Waiter, hub *Hub, executeTimeout time.Duration, gatherer prometheus.Gatherer) *Server {
	if executeTimeout <= 0 {
		executeTimeout = DefaultExecuteTimeout
	}
	s := &Server{
		addr:           addr,
		bridge:         b,
		waiter:         waiter,
		hub:            hub,
		executeTimeout: executeTimeout,
		gatherer:       gatherer,
		started:        time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(staticHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/execute", s.execute).Methods(http.MethodPost)
	api.HandleFunc("/status", s.status).Methods(http.MethodGet)
	api.HandleFunc("/clear", s.clear).Methods(http.MethodPost)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("web: shutdown", "err", err)
	}
	slog.Info("web: stopped")
	return ctx.Err()
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "No command provided")
		return
	}

	wait := req.Wait == nil || *req.Wait
	id := req.RequestID
	if id == "" && wait {
		id = uuid.NewString()
	}

	var (
		ch     <-chan bridge.Delivery
		cancel = func() {}
	)
	if wait {
		var err error
		ch, cancel, err = s.waiter.Expect(id)
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	defer cancel()

	var metadata map[string]any
	if id != "" {
		metadata = map[string]any{bridge.FieldRequestID: id}
	}
	id, err := s.bridge.SubmitFrom(bridge.Source(req.Source), req.Command, metadata)
	if err != nil {
		slog.Warn("web: submit failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if !wait {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":     "queued",
			"request_id": id,
		})
		return
	}

	timer := time.NewTimer(s.executeTimeout)
	defer timer.Stop()

	select {
	case d := <-ch:
		writeJSON(w, http.StatusOK, d)
	case <-timer.C:
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{
			"status":     bridge.StatusError,
			"request_id": id,
			"message":    "timed out waiting for the desktop backend",
		})
	case <-r.Context().Done():
	}
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "online",
		"timestamp":      time.Now().Format(bridge.TimestampLayout),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"bridge":         s.bridge.Status(),
		"ws_clients":     s.hub.Clients(),
		"waiting":        s.waiter.Pending(),
	})
}

func (s *Server) clear(w http.ResponseWriter, _ *http.Request) {
	if err := s.hub.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  bridge.StatusSuccess,
		"message": "Console cleared",
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Format(bridge.TimestampLayout),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"status": bridge.StatusError, "message": msg})
}
