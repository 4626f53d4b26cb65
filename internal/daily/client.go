package daily

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
)

const defaultBaseURL = "https://api.daily.co/v1"

// Client creates and tears down Daily.co video rooms. Private call
// rooms get an expiry so a stale room cannot be rejoined after the
// slot window.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	domainName string
	logger     *zerolog.Logger
}

func NewClient(cfg config.DailyConfig, logger *zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		domainName: cfg.Domain,
		logger:     logger,
	}
}

type createRoomRequest struct {
	Name       string `json:"name"`
	Privacy    string `json:"privacy"`
	Properties struct {
		Exp           int64 `json:"exp,omitempty"`
		EjectAtExp    bool  `json:"eject_at_room_exp"`
		EnableChat    bool  `json:"enable_chat"`
		StartVideoOff bool  `json:"start_video_off"`
	} `json:"properties"`
}

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (c *Client) CreateRoom(ctx context.Context, name string, expiresAt time.Time) (*domain.Room, error) {
	reqBody := createRoomRequest{Name: name, Privacy: "private"}
	if !expiresAt.IsZero() {
		reqBody.Properties.Exp = expiresAt.Unix()
		reqBody.Properties.EjectAtExp = true
	}
	reqBody.Properties.EnableChat = true

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("daily returned status %d", resp.StatusCode)
	}

	var room roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("failed to decode room response: %w", err)
	}

	url := room.URL
	if url == "" && c.domainName != "" {
		url = fmt.Sprintf("https://%s.daily.co/%s", c.domainName, room.Name)
	}

	c.logger.Info().Str("room", room.Name).Msg("daily room created")
	return &domain.Room{Name: room.Name, URL: url}, nil
}

func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/rooms/"+name, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daily request failed: %w", err)
	}
	defer resp.Body.Close()

	// Deleting an already-gone room is not an error worth surfacing.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("daily returned status %d", resp.StatusCode)
	}

	c.logger.Info().Str("room", name).Msg("daily room deleted")
	return nil
}
