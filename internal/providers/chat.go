package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/leadlens/leadlens/internal/normalize"
	"github.com/leadlens/leadlens/internal/ratelimit"
)

// errorExcerptLen bounds how much of an upstream error body is carried
// into an error message.
const errorExcerptLen = 200

// Config configures an OpenAI-compatible chat provider.
type Config struct {
	Name     string
	APIKey   string
	Model    string
	BaseURL  string
	Priority int
}

// ChatProvider targets the OpenAI-compatible chat-completions wire contract
// shared by Groq, OpenAI, and Ollama. Vendor types embed it and supply
// their endpoint defaults.
type ChatProvider struct {
	limiter  ratelimit.Limiter
	client   *http.Client
	name     string
	baseURL  string
	apiKey   string
	model    string
	priority int
}

// NewChatProvider creates a chat provider against the endpoint in cfg.
// A nil limiter admits every call immediately.
func NewChatProvider(cfg Config, limiter ratelimit.Limiter) ChatProvider {
	return ChatProvider{
		limiter:  limiter,
		client:   &http.Client{},
		name:     cfg.Name,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		priority: cfg.Priority,
	}
}

// Name returns the configured provider identifier.
func (p *ChatProvider) Name() string { return p.name }

// Priority returns the failover ordering rank; lower runs first.
func (p *ChatProvider) Priority() int { return p.priority }

// Model returns the model identifier sent with every completion.
func (p *ChatProvider) Model() string { return p.model }

// BaseURL returns the API root the provider posts to.
func (p *ChatProvider) BaseURL() string { return p.baseURL }

// Complete admits the call through the shared limiter, posts one
// chat-completion request, and classifies the outcome.
func (p *ChatProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := admit(ctx, p.limiter, p.name); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, req.Timeout)
	defer cancel()

	payload, err := json.Marshal(p.chatPayload(req))
	if err != nil {
		return nil, &RequestError{Provider: p.name, Message: fmt.Sprintf("encode payload: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Provider: p.name, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	log.Ctx(ctx).Debug().Str("provider", p.name).Str("model", p.model).Msg("dispatching chat completion")

	raw, err := execute(p.client, p.name, httpReq)
	if err != nil {
		return nil, err
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return nil, &RequestError{Provider: p.name, Message: "completion payload missing choices[0].message.content"}
	}

	return buildResponse(req.Format, content.String()), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Messages       []chatMessage   `json:"messages"`
	Model          string          `json:"model"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

func (p *ChatProvider) chatPayload(req Request) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	tokens := req.MaxTokens
	if tokens <= 0 {
		tokens = DefaultMaxTokens
	}

	payload := chatRequest{
		Messages:    messages,
		Model:       p.model,
		Temperature: req.Temperature,
		MaxTokens:   tokens,
	}
	if req.Format == FormatJSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return payload
}

// admit blocks until the shared limiter accepts the call. A nil limiter
// admits immediately.
func admit(ctx context.Context, limiter ratelimit.Limiter, name string) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Admit(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// requestContext bounds one provider call. Zero and negative timeouts fall
// back to DefaultTimeout.
func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// execute issues req and classifies the outcome. 429 and 5xx responses,
// timeouts, and transport failures come back as *RateLimitedError; other
// 4xx responses come back as *RequestError carrying a body excerpt.
func execute(client *http.Client, name string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransport(name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RateLimitedError{Provider: name, Message: "response body truncated", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{Provider: name, Status: resp.StatusCode, Message: "rate limit reached"}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &RateLimitedError{Provider: name, Status: resp.StatusCode, Message: "temporary server error"}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, &RequestError{Provider: name, Status: resp.StatusCode, Message: excerpt(raw)}
	}
	return raw, nil
}

// classifyTransport maps a transport-level failure. Cancellation
// propagates untouched so callers can tell an abandoned request from a
// throttled one; a deadline counts as transient, like everything else.
func classifyTransport(name string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", name, err)
	case errors.Is(err, context.DeadlineExceeded):
		return &RateLimitedError{Provider: name, Message: "request timed out", Err: err}
	default:
		return &RateLimitedError{Provider: name, Message: "transport failure", Err: err}
	}
}

// excerpt trims an upstream error body for inclusion in an error message.
func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > errorExcerptLen {
		return text[:errorExcerptLen]
	}
	return text
}

// buildResponse wraps extracted content, normalizing it into a map when
// the caller asked for JSON.
func buildResponse(format, text string) *Response {
	if format == FormatJSON {
		return &Response{Text: text, Data: normalize.JSON(text)}
	}
	return &Response{Text: text}
}

var _ Provider = (*ChatProvider)(nil)
