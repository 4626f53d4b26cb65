package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// WebhookServer receives payment confirmations from ePayco and Daimo.
// Both providers retry deliveries, so the confirmation path must be
// idempotent end to end.
type WebhookServer struct {
	cfg      config.WebhooksConfig
	bookings domain.BookingOrchestrator
	server   *http.Server
	auth     *WebhookAuth
	logger   *zerolog.Logger
}

func NewWebhookServer(cfg config.WebhooksConfig, bookings domain.BookingOrchestrator, logger *zerolog.Logger) *WebhookServer {
	mux := http.NewServeMux()
	srv := &WebhookServer{cfg: cfg, bookings: bookings, logger: logger}
	srv.auth = NewWebhookAuth(&cfg)

	mux.HandleFunc("/webhooks/epayco", srv.handleEpayco)
	mux.HandleFunc("/webhooks/daimo", srv.handleDaimo)

	protected := srv.loggingMiddleware(srv.auth.Wrap(mux))

	// Health and metrics stay outside auth for load balancer probes
	// and the Prometheus scraper.
	root := http.NewServeMux()
	root.HandleFunc("/healthz", srv.handleHealth)
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", protected)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *WebhookServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("webhook server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("webhook server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *WebhookServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type epaycoWebhook struct {
	RefPayco string `json:"x_ref_payco"`
	Response string `json:"x_response"` // Aceptada, Rechazada, Pendiente
}

func (s *WebhookServer) handleEpayco(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body epaycoWebhook
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.RefPayco == "" {
		writeError(w, http.StatusBadRequest, "x_ref_payco is required")
		return
	}
	if body.Response != "Aceptada" {
		// Declined or pending: acknowledge so the provider stops
		// retrying; the hold lapses on its own.
		metrics.IncWebhook("epayco", "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	s.confirm(w, r, "epayco", body.RefPayco)
}

type daimoWebhook struct {
	Type      string `json:"type"` // payment_completed and friends
	PaymentID string `json:"paymentId"`
}

func (s *WebhookServer) handleDaimo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body daimoWebhook
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.PaymentID == "" {
		writeError(w, http.StatusBadRequest, "paymentId is required")
		return
	}
	if body.Type != "payment_completed" {
		metrics.IncWebhook("daimo", "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	s.confirm(w, r, "daimo", body.PaymentID)
}

func (s *WebhookServer) confirm(w http.ResponseWriter, r *http.Request, provider, paymentRef string) {
	booking, err := s.bookings.GetBookingByPaymentRef(r.Context(), paymentRef)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncWebhook(provider, "unknown_ref")
			writeError(w, http.StatusNotFound, "unknown payment reference")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	err = s.bookings.ConfirmPayment(r.Context(), booking.ID, paymentRef)
	switch {
	case err == nil:
		metrics.IncWebhook(provider, "confirmed")
		writeJSON(w, http.StatusOK, map[string]any{"status": "confirmed", "booking_id": booking.ID})
	case errors.Is(err, database.ErrHoldExpired):
		// Payment landed too late; acknowledged, money comes back via
		// support. Returning 200 stops provider retries.
		metrics.IncWebhook(provider, "hold_expired")
		writeJSON(w, http.StatusOK, map[string]string{"status": "hold_expired"})
	case errors.Is(err, database.ErrInvalidTransition):
		metrics.IncWebhook(provider, "already_settled")
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_settled"})
	case errors.Is(err, database.ErrSlotUnavailable):
		// A competing checkout for the same time settled first; the
		// booking is cancelled and refunded in full by the worker.
		metrics.IncWebhook(provider, "slot_conflict")
		writeJSON(w, http.StatusOK, map[string]string{"status": "slot_conflict"})
	default:
		writeError(w, http.StatusInternalServerError, "confirmation failed")
	}
}

func (s *WebhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *WebhookServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("webhook request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
