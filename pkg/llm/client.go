// Package llm implements the chat capability against an OpenAI-compatible
// chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Defaults applied by New.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultTimeout    = 2 * time.Minute
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Export formats accepted by ExportHistory.
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string // e.g. https://api.openai.com/v1
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a chat client that keeps a conversation history.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	history []Message
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("llm: base url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Client{config: cfg, http: cfg.HTTPClient, logger: cfg.Logger}, nil
}

// Chat sends prompt and returns the reply. With useHistory the prompt is
// sent after the stored conversation and both turns are recorded once the
// call succeeds. Without it the history is neither read nor written.
func (c *Client) Chat(ctx context.Context, prompt string, useHistory bool) (string, error) {
	user := Message{Role: RoleUser, Content: prompt}
	if !useHistory {
		return c.complete(ctx, []Message{user})
	}

	c.mu.Lock()
	msgs := append(append([]Message(nil), c.history...), user)
	c.mu.Unlock()

	reply, err := c.complete(ctx, msgs)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history, user, Message{Role: RoleAssistant, Content: reply})
	c.mu.Unlock()
	return reply, nil
}

// ClearHistory drops the whole conversation, system messages included.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// InsertSystem prepends system messages to the conversation.
func (c *Client) InsertSystem(contents ...string) {
	msgs := make([]Message, 0, len(contents))
	for _, s := range contents {
		msgs = append(msgs, Message{Role: RoleSystem, Content: s})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(msgs, c.history...)
}

// HasSystem reports whether the conversation starts with a system message.
func (c *Client) HasSystem() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history) > 0 && c.history[0].Role == RoleSystem
}

// History returns a copy of the conversation.
func (c *Client) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.history...)
}

// ExportHistory renders the conversation as indented JSON or as Markdown
// with one "### Role" section per turn.
func (c *Client) ExportHistory(format string, removeSystem bool) (string, error) {
	msgs := c.History()
	if removeSystem {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.Role != RoleSystem {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}

	switch format {
	case FormatJSON, "":
		if msgs == nil {
			msgs = []Message{}
		}
		data, err := json.MarshalIndent(msgs, "", "    ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatMarkdown:
		var sb strings.Builder
		for _, m := range msgs {
			role := m.Role
			if role != "" {
				role = strings.ToUpper(role[:1]) + role[1:]
			}
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", role, m.Content)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, msgs []Message) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: c.config.Model, Messages: msgs})
	if err != nil {
		return "", err
	}

	return retry(ctx, c.config.MaxRetries, c.config.BaseDelay, func() (string, error) {
		reply, err := c.post(ctx, payload)
		if err != nil {
			c.logger.Debug("chat completion failed", "model", c.config.Model, "error", err)
		}
		return reply, err
	})
}

func (c *Client) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newStatusError(resp.StatusCode, body)
	}

	var out completionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

var (
	_ core.Chat           = (*Client)(nil)
	_ core.HistoryClearer = (*Client)(nil)
)
