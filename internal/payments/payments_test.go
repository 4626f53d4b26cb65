package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestEpaycoInitiateCharge(t *testing.T) {
	var gotBody epaycoChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/process", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := epaycoChargeResponse{Success: true}
		resp.Data.Ref = "ref-123"
		resp.Data.CheckoutURL = "https://checkout.epayco.co/ref-123"
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewEpaycoClient(config.EpaycoConfig{
		PublicKey:  "pk_test",
		PrivateKey: "sk_test",
		BaseURL:    srv.URL,
		TestMode:   true,
	}, testLogger())

	session, err := client.InitiateCharge(context.Background(), decimal.NewFromFloat(60.00), "USD", "booking-42")
	require.NoError(t, err)
	assert.Equal(t, "ref-123", session.PaymentRef)
	assert.Equal(t, "https://checkout.epayco.co/ref-123", session.CheckoutURL)
	assert.Equal(t, "60.00", gotBody.Amount)
	assert.True(t, gotBody.Test)
}

func TestEpaycoChargeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(epaycoChargeResponse{Success: false, TextResponse: "card declined"})
	}))
	defer srv.Close()

	client := NewEpaycoClient(config.EpaycoConfig{BaseURL: srv.URL}, testLogger())
	_, err := client.InitiateCharge(context.Background(), decimal.NewFromInt(10), "USD", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestEpaycoRefund(t *testing.T) {
	var gotBody epaycoRefundRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/refund", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(epaycoRefundResponse{Success: true})
	}))
	defer srv.Close()

	client := NewEpaycoClient(config.EpaycoConfig{BaseURL: srv.URL}, testLogger())
	err := client.ProcessRefund(context.Background(), 42, decimal.NewFromFloat(30.00), "USD", "cancelled >=2h notice")
	require.NoError(t, err)
	assert.Equal(t, "booking-42", gotBody.Invoice)
	assert.Equal(t, "30.00", gotBody.Amount)
}

func TestDaimoInitiateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment", r.URL.Path)
		require.Equal(t, "key-1", r.Header.Get("Api-Key"))
		json.NewEncoder(w).Encode(daimoPaymentResponse{ID: "pay-7", URL: "https://pay.daimo.com/pay-7"})
	}))
	defer srv.Close()

	client := NewDaimoClient(config.DaimoConfig{APIKey: "key-1", BaseURL: srv.URL}, testLogger())
	session, err := client.InitiateCharge(context.Background(), decimal.NewFromInt(100), "USD", "booking-7")
	require.NoError(t, err)
	assert.Equal(t, "pay-7", session.PaymentRef)
}

func TestDaimoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewDaimoClient(config.DaimoConfig{BaseURL: srv.URL}, testLogger())
	_, err := client.InitiateCharge(context.Background(), decimal.NewFromInt(1), "USD", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(daimoPaymentResponse{ID: "pay-1", URL: "u"})
	}))
	defer srv.Close()

	router := NewRouter()
	router.Register(models.PaymentMethodCrypto, NewDaimoClient(config.DaimoConfig{BaseURL: srv.URL}, testLogger()))

	_, err := router.Provider(models.PaymentMethodCard)
	assert.Error(t, err)

	session, err := router.InitiateChargeVia(context.Background(), models.PaymentMethodCrypto, decimal.NewFromInt(5), "USD", "r")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", session.PaymentRef)

	assert.Equal(t, models.PaymentMethodCard, DefaultMethod(""))
	assert.Equal(t, models.PaymentMethodCrypto, DefaultMethod("crypto"))
}
