package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sms-connector/internal/listener"
	"sms-connector/internal/notifier"
)

const maxBatchBytes = 1 << 20

type Config struct {
	Port         int
	WebhookToken string
}

type dispatcher interface {
	Dispatch(messages []listener.InboundMessage)
}

type notificationSource interface {
	Snapshot() notifier.Snapshot
}

// Server is the daemon's HTTP surface: inbound messages, notifications,
// health and metrics.
type Server struct {
	cfg           Config
	dispatcher    dispatcher
	notifications notificationSource
	metrics       http.Handler
	logger        *slog.Logger
	now           func() time.Time
}

func NewServer(cfg Config, d dispatcher) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     slog.With("component", "http"),
		now:        time.Now,
	}
}

func (s *Server) WithNotifications(source notificationSource) *Server {
	s.notifications = source
	return s
}

func (s *Server) WithMetrics(handler http.Handler) *Server {
	s.metrics = handler
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health-check", s.handleHealthCheck)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.authenticate).Post("/messages", s.handleMessages)
		if s.notifications != nil {
			r.Get("/notifications", s.handleNotifications)
		}
	})

	return r
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.WebhookToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.WebhookToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	messages, err := listener.DecodeBatch(body, s.now())
	if err != nil {
		s.logger.Warn(fmt.Sprintf("rejected batch: %v", err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.dispatcher.Dispatch(messages)

	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(messages)})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.notifications.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until ctx is done. Requests see ctx as their base
// context, so the health check turns unavailable once shutdown starts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	baseContextFunc := func(_ net.Listener) context.Context {
		return ctx
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Port),
		BaseContext: baseContextFunc,
		Handler:     s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(fmt.Sprintf("listening on :%d", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		cancel()
	}()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		return fmt.Errorf("server shutdown failed:%v", err)
	}

	return nil
}
