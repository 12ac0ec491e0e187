package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// tokenSafetyMargin is how long before its stated expiry a token is
// considered invalid and refreshed.
const tokenSafetyMargin = 5 * time.Minute

const tokenPath = "/auth/v3/tenant_access_token/internal"

// tokenSource caches the tenant access token.
type tokenSource struct {
	appID     string
	appSecret string
	endpoint  string
	http      *http.Client
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Token returns a token valid for at least tokenSafetyMargin, fetching a new
// one when needed. A failed fetch yields "" so the calling request fails its
// envelope check.
func (t *tokenSource) Token(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.token != "" && now.Before(t.expiresAt.Add(-tokenSafetyMargin)) {
		return t.token
	}

	token, expire, err := t.fetch(ctx)
	if err != nil {
		t.logger.Warn("feishu token fetch failed", "error", err)
		t.token, t.expiresAt = "", time.Time{}
		return ""
	}
	t.token = token
	t.expiresAt = now.Add(time.Duration(expire) * time.Second)
	return t.token
}

// valid reports whether a cached token is usable without a refresh.
func (t *tokenSource) valid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token != "" && t.now().Before(t.expiresAt.Add(-tokenSafetyMargin))
}

func (t *tokenSource) fetch(ctx context.Context) (string, int, error) {
	payload, err := json.Marshal(map[string]string{"app_id": t.appID, "app_secret": t.appSecret})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	// The token endpoint puts its fields next to code instead of under data.
	var body struct {
		Code   int    `json:"code"`
		Msg    string `json:"msg"`
		Token  string `json:"tenant_access_token"`
		Expire int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, err
	}
	if body.Code != 0 || body.Token == "" {
		return "", 0, &APIError{Path: tokenPath, Code: body.Code, Msg: body.Msg}
	}
	return body.Token, body.Expire, nil
}
