package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairchance/jobintake/internal/model"
)

// maxResponseBytes caps how much of a classifier response is read.
const maxResponseBytes = 4 << 20

// Doer sends a single HTTP request. *http.Client satisfies it, as do the
// retry and throttle decorators.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider sends one prompt to the classification service and returns the
// raw response envelope.
type Provider interface {
	Complete(ctx context.Context, req Request) ([]byte, error)
}

// Request is one classification call.
type Request struct {
	Prompt    string
	WebSearch bool // let the service fetch and read the page itself
}

// ClientConfig holds the static settings of a MessagesClient.
type ClientConfig struct {
	BaseURL    string // e.g. https://api.anthropic.com/v1
	APIKey     string
	APIVersion string // anthropic-version header
	Model      string
	MaxTokens  int
}

// MessagesClient calls the /messages endpoint of the classification service.
type MessagesClient struct {
	cfg  ClientConfig
	doer Doer
}

var _ Provider = (*MessagesClient)(nil)

// NewMessagesClient creates a client that sends requests through doer.
func NewMessagesClient(cfg ClientConfig, doer Doer) *MessagesClient {
	return &MessagesClient{cfg: cfg, doer: doer}
}

// messagesRequest mirrors the /messages request body.
type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Tools     []toolSpec    `json:"tools,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type toolSpec struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var webSearchTool = toolSpec{Type: "web_search_20250305", Name: "web_search"}

// Complete posts req and returns the response body. Transport failures wrap
// model.ErrNetwork; non-2xx statuses are returned as *model.HTTPError.
func (c *MessagesClient) Complete(ctx context.Context, req Request) ([]byte, error) {
	reqBody := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.WebSearch {
		reqBody.Tools = []toolSpec{webSearchTool}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal classifier request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create classifier request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", c.cfg.APIVersion)

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		if errors.Is(err, model.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: classifier request: %v", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read classifier response: %v", model.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("classifier returned: %s", snippet(respBytes)),
		}
	}

	return respBytes, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
