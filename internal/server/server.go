package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SOSTrigger raises an SOS on every configured channel.
type SOSTrigger interface {
	Trigger(ctx context.Context, req domain.SOSRequest) domain.SOSResult
}

// SOSRequest is the body accepted by POST /api/sos.
type SOSRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Location  string   `json:"location"`
	Intensity string   `json:"intensity"`
	Cause     string   `json:"cause"`
}

// Options configures the HTTP surface.
type Options struct {
	Addr    string
	Ready   ReadinessChecker
	SOS     SOSTrigger
	Webhook http.Handler // nil in polling mode
	Logger  *slog.Logger
}

// Server exposes health, metrics, the SOS API and the optional Telegram webhook.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := mux.NewRouter()
	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: config.SOSTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: opts.Logger,
	}

	r.HandleFunc("/ping", handlePing).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(opts.Ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sos", s.handleSOS(opts.SOS)).Methods(http.MethodPost)

	if opts.Webhook != nil {
		r.Handle("/webhook", opts.Webhook).Methods(http.MethodPost)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Pong!")) //nolint:errcheck
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSOS(trigger SOSTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body SOSRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		if err := dec.Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid JSON body"})
			return
		}

		req, err := body.toDomain()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), config.SOSTimeout)
		defer cancel()

		res := trigger.Trigger(ctx, req)
		s.logger.Info("sos dispatched",
			"source", req.Source,
			"sms", res.SMS.Status,
			"email", res.Email.Status,
		)
		writeJSON(w, http.StatusOK, res)
	}
}

func (b SOSRequest) toDomain() (domain.SOSRequest, error) {
	req := domain.SOSRequest{
		ManualLocation: strings.TrimSpace(b.Location),
		Intensity:      strings.TrimSpace(b.Intensity),
		Cause:          strings.TrimSpace(b.Cause),
		Source:         "web",
	}
	switch {
	case b.Latitude != nil && b.Longitude != nil:
		coord, err := domain.NewCoordinate(*b.Latitude, *b.Longitude)
		if err != nil {
			return domain.SOSRequest{}, err
		}
		req.Coordinate = &coord
	case b.Latitude != nil || b.Longitude != nil:
		return domain.SOSRequest{}, errors.New("latitude and longitude must be sent together")
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
