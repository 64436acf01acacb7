// Package notifier formats and delivers the full-content notification:
// headline, a details table, description, instruction, contact, and a
// per-matched-point breakdown, optionally with the map image attached.
// This is the "pluggable notifier sink for chat/SMS-style destinations"
// named in spec.md's purpose statement.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// FormattedMessage is the rendered payload handed to a Sink.
type FormattedMessage struct {
	Text      string
	ImageData []byte
}

// Sink delivers a formatted notification to its destination (a chat
// room, webhook, SMS gateway, etc.). The concrete destination is an
// external collaborator outside this module's scope.
type Sink interface {
	Notify(ctx context.Context, msg FormattedMessage) error
}

// Format renders rec into the full-content text block described in
// spec.md §4.7.
func Format(rec model.DeliveryRecord) FormattedMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", rec.Headline)
	fmt.Fprintf(&b, "msgtype=%s urgency=%s severity=%s sent=%s\n", rec.MsgType, rec.Urgency, rec.Severity, rec.Sent)
	if rec.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Description)
	}
	if rec.Instruction != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Instruction)
	}
	if rec.Contact != "" {
		fmt.Fprintf(&b, "\ncontact: %s\n", rec.Contact)
	}
	for _, p := range rec.MatchedPoints {
		liveMarker := ""
		if p.IsLive {
			liveMarker = " [live]"
		}
		fmt.Fprintf(&b, "\n- %.4f,%.4f  %s  %s  %s%s\n", p.Latitude, p.Longitude, p.UTM, p.Maidenhead, p.Address, liveMarker)
	}

	msg := FormattedMessage{Text: b.String()}
	if rec.Map.Present {
		msg.ImageData = rec.Map.Bytes
	}
	return msg
}

// WebhookSink posts a FormattedMessage as JSON to a configured webhook
// URL, mirroring the teacher's shared *http.Client idiom.
type WebhookSink struct {
	httpClient *http.Client
	url        string
}

// NewWebhookSink returns a Sink posting to url.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{httpClient: &http.Client{Timeout: 10 * time.Second}, url: url}
}

type webhookPayload struct {
	Text     string `json:"text"`
	HasImage bool   `json:"has_image"`
	Image    []byte `json:"image,omitempty"`
}

// Notify posts msg to the configured webhook. The returned error, when
// non-nil, carries a grpc status code so callers can tell a transient
// failure (worth retrying next cycle) from a permanent one without
// string-matching.
func (w *WebhookSink) Notify(ctx context.Context, msg FormattedMessage) error {
	if w.url == "" {
		return status.Error(codes.FailedPrecondition, "notifier: webhook not configured")
	}

	body, err := json.Marshal(webhookPayload{Text: msg.Text, HasImage: len(msg.ImageData) > 0, Image: msg.ImageData})
	if err != nil {
		return status.Errorf(codes.Internal, "encoding webhook payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return status.Errorf(codes.Internal, "building webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return status.Errorf(codes.Unavailable, "webhook request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return status.Errorf(codes.Unavailable, "webhook returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return status.Errorf(codes.InvalidArgument, "webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Retryable reports whether err (as returned by Notify) represents a
// transient condition worth retrying on the next poll cycle, rather
// than a permanent misconfiguration.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unavailable
}
