package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultDaimoBaseURL = "https://pay.daimo.com/api"

// DaimoClient collects stablecoin payments through Daimo Pay. Refunds
// are submitted as payout requests back to the payer address Daimo has
// on file for the original payment.
type DaimoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zerolog.Logger
}

func NewDaimoClient(cfg config.DaimoConfig, logger *zerolog.Logger) *DaimoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDaimoBaseURL
	}
	return &DaimoClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type daimoPaymentRequest struct {
	Display struct {
		Intent string `json:"intent"`
	} `json:"display"`
	DestinationAmount string `json:"destinationAmount"`
	Currency          string `json:"currency"`
	ExternalID        string `json:"externalId"`
}

type daimoPaymentResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type daimoRefundRequest struct {
	ExternalID string `json:"externalId"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Reason     string `json:"reason,omitempty"`
}

type daimoRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *DaimoClient) InitiateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (*domain.ChargeSession, error) {
	var reqBody daimoPaymentRequest
	reqBody.Display.Intent = "Private call booking"
	reqBody.DestinationAmount = amount.StringFixed(2)
	reqBody.Currency = currency
	reqBody.ExternalID = reference

	var resp daimoPaymentResponse
	if err := c.post(ctx, "/payment", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("daimo returned empty payment id")
	}

	c.logger.Info().Str("reference", reference).Str("payment_id", resp.ID).Msg("daimo payment created")

	return &domain.ChargeSession{
		PaymentRef:  resp.ID,
		CheckoutURL: resp.URL,
	}, nil
}

func (c *DaimoClient) ProcessRefund(ctx context.Context, bookingID int64, amount decimal.Decimal, currency, reason string) error {
	reqBody := daimoRefundRequest{
		ExternalID: fmt.Sprintf("booking-%d", bookingID),
		Amount:     amount.StringFixed(2),
		Currency:   currency,
		Reason:     reason,
	}

	var resp daimoRefundResponse
	if err := c.post(ctx, "/refund", reqBody, &resp); err != nil {
		return err
	}
	if resp.Status == "failed" {
		return fmt.Errorf("daimo refund failed for booking %d", bookingID)
	}

	c.logger.Info().Int64("booking_id", bookingID).Str("refund_id", resp.ID).Msg("daimo refund submitted")
	return nil
}

func (c *DaimoClient) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal daimo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build daimo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daimo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("daimo returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daimo response: %w", err)
	}
	return nil
}
