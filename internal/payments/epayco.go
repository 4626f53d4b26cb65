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

const defaultEpaycoBaseURL = "https://api.secure.epayco.co"

// EpaycoClient charges cards through the ePayco REST API.
type EpaycoClient struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	privateKey string
	testMode   bool
	logger     *zerolog.Logger
}

func NewEpaycoClient(cfg config.EpaycoConfig, logger *zerolog.Logger) *EpaycoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultEpaycoBaseURL
	}
	return &EpaycoClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		testMode:   cfg.TestMode,
		logger:     logger,
	}
}

type epaycoChargeRequest struct {
	PublicKey string `json:"public_key"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Invoice   string `json:"invoice"`
	Test      bool   `json:"test"`
}

type epaycoChargeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Ref         string `json:"ref_payco"`
		CheckoutURL string `json:"urlbanco"`
	} `json:"data"`
	TextResponse string `json:"text_response"`
}

type epaycoRefundRequest struct {
	PublicKey string `json:"public_key"`
	Invoice   string `json:"invoice"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reason    string `json:"reason,omitempty"`
	Test      bool   `json:"test"`
}

type epaycoRefundResponse struct {
	Success      bool   `json:"success"`
	TextResponse string `json:"text_response"`
}

func (c *EpaycoClient) InitiateCharge(ctx context.Context, amount decimal.Decimal, currency, reference string) (*domain.ChargeSession, error) {
	reqBody := epaycoChargeRequest{
		PublicKey: c.publicKey,
		Amount:    amount.StringFixed(2),
		Currency:  currency,
		Invoice:   reference,
		Test:      c.testMode,
	}

	var resp epaycoChargeResponse
	if err := c.post(ctx, "/payment/process", reqBody, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("epayco charge rejected: %s", resp.TextResponse)
	}

	c.logger.Info().Str("reference", reference).Str("ref_payco", resp.Data.Ref).Msg("epayco charge initiated")

	return &domain.ChargeSession{
		PaymentRef:  resp.Data.Ref,
		CheckoutURL: resp.Data.CheckoutURL,
	}, nil
}

func (c *EpaycoClient) ProcessRefund(ctx context.Context, bookingID int64, amount decimal.Decimal, currency, reason string) error {
	reqBody := epaycoRefundRequest{
		PublicKey: c.publicKey,
		Invoice:   fmt.Sprintf("booking-%d", bookingID),
		Amount:    amount.StringFixed(2),
		Currency:  currency,
		Reason:    reason,
		Test:      c.testMode,
	}

	var resp epaycoRefundResponse
	if err := c.post(ctx, "/payment/refund", reqBody, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("epayco refund rejected: %s", resp.TextResponse)
	}

	c.logger.Info().Int64("booking_id", bookingID).Str("amount", amount.StringFixed(2)).Msg("epayco refund processed")
	return nil
}

func (c *EpaycoClient) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal epayco request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build epayco request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.privateKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("epayco request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("epayco returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode epayco response: %w", err)
	}
	return nil
}
