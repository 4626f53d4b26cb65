package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOrchestrator covers the two calls the webhook path makes; the
// rest of the interface is inert.
type stubOrchestrator struct {
	domain.BookingOrchestrator

	bookings   map[string]*models.Booking
	confirmErr error
	confirmed  []int64
}

func (s *stubOrchestrator) GetBookingByPaymentRef(ctx context.Context, paymentRef string) (*models.Booking, error) {
	b, ok := s.bookings[paymentRef]
	if !ok {
		return nil, database.ErrNotFound
	}
	return b, nil
}

func (s *stubOrchestrator) ConfirmPayment(ctx context.Context, bookingID int64, paymentRef string) error {
	if s.confirmErr != nil {
		return s.confirmErr
	}
	s.confirmed = append(s.confirmed, bookingID)
	return nil
}

const testAPIKey = "hook-key-1"

func newTestServer(t *testing.T, orch *stubOrchestrator, rps float64) *httptest.Server {
	t.Helper()

	cfg := config.WebhooksConfig{
		Enabled: true,
		Port:    0,
		APIKeys: []config.WebhookClientKey{{Key: testAPIKey, Name: "epayco"}},
		RateLimit: config.RateLimitConfig{
			RPS:   rps,
			Burst: 1,
		},
	}

	logger := zerolog.Nop()
	srv := NewWebhookServer(cfg, orch, &logger)

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postWebhook(t *testing.T, url, apiKey string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestWebhookAuth(t *testing.T) {
	orch := &stubOrchestrator{bookings: map[string]*models.Booking{}}
	ts := newTestServer(t, orch, 0)

	t.Run("MissingKeyRejected", func(t *testing.T) {
		resp := postWebhook(t, ts.URL+"/webhooks/epayco", "", map[string]string{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("WrongKeyRejected", func(t *testing.T) {
		resp := postWebhook(t, ts.URL+"/webhooks/epayco", "not-the-key", map[string]string{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("HealthSkipsAuth", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestWebhookRateLimit(t *testing.T) {
	orch := &stubOrchestrator{bookings: map[string]*models.Booking{}}
	ts := newTestServer(t, orch, 0.1)

	first := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{"x_ref_payco": "r", "x_response": "Pendiente"})
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{"x_ref_payco": "r", "x_response": "Pendiente"})
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestEpaycoWebhook(t *testing.T) {
	booking := &models.Booking{ID: 42, PaymentRef: "ref-42", Status: models.StatusPending}

	t.Run("AcceptedConfirms", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{"ref-42": booking}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{
			"x_ref_payco": "ref-42",
			"x_response":  "Aceptada",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "confirmed", body["status"])
		assert.Equal(t, []int64{42}, orch.confirmed)
	})

	t.Run("DeclinedIgnored", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{"ref-42": booking}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{
			"x_ref_payco": "ref-42",
			"x_response":  "Rechazada",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "ignored", body["status"])
		assert.Empty(t, orch.confirmed)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{
			"x_ref_payco": "nope",
			"x_response":  "Aceptada",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("MissingReference", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/epayco", testAPIKey, map[string]string{"x_response": "Aceptada"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("GetNotAllowed", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{}}
		ts := newTestServer(t, orch, 0)

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/webhooks/epayco", nil)
		require.NoError(t, err)
		req.Header.Set("x-api-key", testAPIKey)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestDaimoWebhook(t *testing.T) {
	booking := &models.Booking{ID: 7, PaymentRef: "pay-7", Status: models.StatusPending}

	t.Run("CompletedConfirms", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{"pay-7": booking}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/daimo", testAPIKey, map[string]string{
			"type":      "payment_completed",
			"paymentId": "pay-7",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "confirmed", body["status"])
		assert.Equal(t, []int64{7}, orch.confirmed)
	})

	t.Run("OtherEventsIgnored", func(t *testing.T) {
		orch := &stubOrchestrator{bookings: map[string]*models.Booking{"pay-7": booking}}
		ts := newTestServer(t, orch, 0)

		resp := postWebhook(t, ts.URL+"/webhooks/daimo", testAPIKey, map[string]string{
			"type":      "payment_started",
			"paymentId": "pay-7",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "ignored", body["status"])
		assert.Empty(t, orch.confirmed)
	})
}

func TestConfirmErrorMapping(t *testing.T) {
	booking := &models.Booking{ID: 9, PaymentRef: "pay-9", Status: models.StatusPending}

	cases := []struct {
		name       string
		confirmErr error
		wantStatus int
		wantBody   string
	}{
		{"HoldExpiredAcknowledged", database.ErrHoldExpired, http.StatusOK, "hold_expired"},
		{"AlreadySettledAcknowledged", database.ErrInvalidTransition, http.StatusOK, "already_settled"},
		{"SlotConflictAcknowledged", database.ErrSlotUnavailable, http.StatusOK, "slot_conflict"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orch := &stubOrchestrator{
				bookings:   map[string]*models.Booking{"pay-9": booking},
				confirmErr: tc.confirmErr,
			}
			ts := newTestServer(t, orch, 0)

			resp := postWebhook(t, ts.URL+"/webhooks/daimo", testAPIKey, map[string]string{
				"type":      "payment_completed",
				"paymentId": "pay-9",
			})
			require.Equal(t, tc.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, tc.wantBody, body["status"])
		})
	}
}
