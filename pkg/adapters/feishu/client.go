package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the open platform API root.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

// APIError is returned when a response envelope carries a non-zero code.
type APIError struct {
	Path string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu %s: code %d: %s", e.Path, e.Code, e.Msg)
}

// envelope is the common response shape {code, msg, data}.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// client performs authenticated JSON calls against the API.
type client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	tokens  *tokenSource
	logger  *slog.Logger
}

// do sends a request and decodes the envelope's data into out. Any code
// other than zero is a failure, whatever the HTTP status.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("feishu %s: encode request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens.Token(ctx))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	c.logger.Debug("feishu request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("feishu %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("feishu %s: decode response (status %d): %w", path, resp.StatusCode, err)
	}
	if env.Code != 0 {
		return &APIError{Path: path, Code: env.Code, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("feishu %s: decode data: %w", path, err)
	}
	return nil
}

func escapePath(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
