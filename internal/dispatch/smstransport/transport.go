package smstransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one already-formatted message segment to the
// short-message carrier. The concrete carrier (DAPNET, a paging
// gateway, etc.) is an external collaborator outside this module's
// scope, per spec.md §1.
type Sender interface {
	Send(ctx context.Context, segment string, highPriority bool) error
}

// HTTPSender posts each segment as JSON to a configured webhook-style
// endpoint, following the teacher's shared *http.Client idiom.
type HTTPSender struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPSender returns a Sender posting to endpoint.
func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{httpClient: &http.Client{Timeout: 10 * time.Second}, endpoint: endpoint}
}

type segmentPayload struct {
	Message      string `json:"message"`
	HighPriority bool   `json:"high_priority"`
}

// Send posts one message segment.
func (h *HTTPSender) Send(ctx context.Context, segment string, highPriority bool) error {
	if h.endpoint == "" {
		return fmt.Errorf("smstransport: sender not configured")
	}

	body, err := json.Marshal(segmentPayload{Message: segment, HighPriority: highPriority})
	if err != nil {
		return fmt.Errorf("encoding sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms transport returned status %d", resp.StatusCode)
	}
	return nil
}

// SendAll formats rec-derived text into segments and sends each in turn,
// stopping at the first send error.
func SendAll(ctx context.Context, sender Sender, message string, maxLen int, split bool, highPriority bool) error {
	for _, segment := range Format(message, maxLen, split) {
		if err := sender.Send(ctx, segment, highPriority); err != nil {
			return err
		}
	}
	return nil
}
