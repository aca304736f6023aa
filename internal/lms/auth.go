// internal/lms/auth.go
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lms-assistant/internal/common/config"
)

// tokenManager caches the client-credentials token and refreshes it shortly
// before expiry. Safe for concurrent use by all workers sharing the client.
type tokenManager struct {
	cfg        config.LMSConfig
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenManager(cfg config.LMSConfig, hc *http.Client) *tokenManager {
	return &tokenManager{cfg: cfg, httpClient: hc}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is within 30 seconds of expiry.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Until(m.expiresAt) > 30*time.Second {
		return m.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.cfg.ClientID)
	form.Set("client_secret", m.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.cfg.BaseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	ttl := payload.ExpiresIn
	if ttl == 0 {
		ttl = m.cfg.TokenTTL
	}

	m.token = payload.AccessToken
	m.expiresAt = time.Now().Add(time.Duration(ttl) * time.Second)
	return m.token, nil
}
