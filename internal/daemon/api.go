package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"livelens/internal/grouping"
	"livelens/internal/logging"
	"livelens/internal/queue"
)

// APIServer serves the local status API over HTTP.
type APIServer struct {
	daemon *Daemon
	logger *slog.Logger
	server *http.Server
}

type queueMessageView struct {
	ID           string `json:"id"`
	Payload      string `json:"payload"`
	EnqueuedAt   string `json:"enqueued_at"`
	VisibleAt    string `json:"visible_at"`
	ReceiveCount int    `json:"receive_count"`
}

type queueView struct {
	Stats    queue.Stats        `json:"stats"`
	Messages []queueMessageView `json:"messages"`
}

type groupsView struct {
	Groups []grouping.Group `json:"groups"`
}

// NewAPIServer builds the HTTP server bound to the configured address.
func NewAPIServer(d *Daemon, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &APIServer{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "api"),
	}
	s.server = &http.Server{
		Addr:         d.cfg.Paths.APIBind,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *APIServer) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/queue", s.handleQueue)
	r.Get("/api/groups", s.handleGroups)
	return r
}

// Start begins serving in a background goroutine.
func (s *APIServer) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("status API listening", logging.String("addr", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status API serve", logging.Error(err))
		}
	}()
	return nil
}

// Shutdown drains the server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *APIServer) Addr() string {
	return s.server.Addr
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *APIServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.daemon.store.Stats(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	messages, err := s.daemon.ListQueue(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view := queueView{Stats: stats, Messages: make([]queueMessageView, 0, len(messages))}
	for _, msg := range messages {
		view.Messages = append(view.Messages, queueMessageView{
			ID:           msg.ID,
			Payload:      msg.Payload,
			EnqueuedAt:   msg.EnqueuedAt.Format(time.RFC3339),
			VisibleAt:    msg.VisibleAt.Format(time.RFC3339),
			ReceiveCount: msg.ReceiveCount,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *APIServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.daemon.ListGroups(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if groups == nil {
		groups = []grouping.Group{}
	}
	writeJSON(w, http.StatusOK, groupsView{Groups: groups})
}

func (s *APIServer) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", logging.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
