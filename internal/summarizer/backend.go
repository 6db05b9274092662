package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-site-harvester/pkg/httpclient"
)

// ErrRateLimited signals that the backend asked us to slow down.
var ErrRateLimited = errors.New("summarizer rate limited")

// Backend produces a summary for a prompt.
type Backend interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// ChatBackend talks to an OpenAI-compatible chat completions endpoint.
type ChatBackend struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	model   string
}

// NewChatBackend returns a backend posting to baseURL + /chat/completions.
func NewChatBackend(baseURL, apiKey, model string, timeout time.Duration) *ChatBackend {
	return &ChatBackend{
		client:  httpclient.NewRestyHTTPClient(httpclient.Options{Timeout: timeout}),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends prompt as a single user message. HTTP 429 maps to ErrRateLimited.
func (b *ChatBackend) Summarize(ctx context.Context, prompt string) (string, error) {
	var out chatResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(b.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:    b.model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&out).
		Post(b.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("summarize request: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrRateLimited, snippet(resp.Body()))
	}
	if resp.IsError() {
		return "", fmt.Errorf("summarize response status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	if len(out.Choices) == 0 {
		return "", errors.New("summarize response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func snippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
