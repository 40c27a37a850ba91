package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultWebhookTimeout = 2 * time.Second

// HTTPError is a webhook delivery rejected by the remote end.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

type webhookPayload struct {
	Message
	SentAt time.Time `json:"sent_at"`
}

// WebhookSender POSTs each message as JSON to a fixed URL.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender validates target and returns a sender with a short
// request timeout.
func NewWebhookSender(target string) (*WebhookSender, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL %q: %w", target, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("webhook URL %q must use http or https", target)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("webhook URL %q has no host", target)
	}
	return &WebhookSender{
		url:    target,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}, nil
}

// URL returns the configured target.
func (s *WebhookSender) URL() string {
	if s == nil {
		return ""
	}
	return s.url
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	if s == nil {
		return fmt.Errorf("webhook sender not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(webhookPayload{Message: msg, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	return &HTTPError{StatusCode: response.StatusCode, Message: readErrorMessage(response)}
}

func readErrorMessage(response *http.Response) string {
	if response == nil {
		return "request failed"
	}
	body, _ := io.ReadAll(response.Body)
	text := strings.TrimSpace(string(body))
	if text == "" {
		return response.Status
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return text
}
