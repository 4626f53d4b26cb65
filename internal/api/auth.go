package api

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
)

const apiKeyHeaderDefault = "x-api-key"

var errUnauthorized = fmt.Errorf("invalid api key")

// WebhookAuth gates inbound provider callbacks with a shared API key
// and per-client rate limiting.
type WebhookAuth struct {
	cfg     *config.WebhooksConfig
	clients map[string]config.WebhookClientKey
	limiter *rateLimiter
}

func NewWebhookAuth(cfg *config.WebhooksConfig) *WebhookAuth {
	m := make(map[string]config.WebhookClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &WebhookAuth{cfg: cfg, clients: m, limiter: newRateLimiter(cfg)}
}

func (a *WebhookAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.checkAuth(r); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if a.cfg.RateLimit.RPS > 0 {
			lim := a.limiter.getLimiter(a.clientKey(r))
			if !lim.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (a *WebhookAuth) checkAuth(r *http.Request) error {
	header := strings.TrimSpace(strings.ToLower(a.cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}

	apiKey := strings.TrimSpace(r.Header.Get(header))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	// Compare against every configured key in constant time so a miss
	// costs the same as a hit.
	var matched bool
	for key := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			matched = true
		}
	}
	if !matched {
		return errUnauthorized
	}
	return nil
}

func (a *WebhookAuth) clientKey(r *http.Request) string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	if apiKey := strings.TrimSpace(r.Header.Get(header)); apiKey != "" {
		return apiKey
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
