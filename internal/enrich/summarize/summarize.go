// Package summarize produces a short-message-friendly abbreviation of a
// broadcast's description. Grounded on the four interchangeable
// backends in _examples/original_source/src/text_summarizer_{internal,
// generic,openai,palm}.py: a built-in heuristic and three API-backed
// options that declare themselves unavailable when unconfigured.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned by an API-backed Summarizer whose key
// setting is empty, per the "declare itself optional" contract.
var ErrNotConfigured = errors.New("summarize: backend not configured")

// Summarizer reduces text to an abbreviated form.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Internal is the built-in, dependency-free summarizer: it truncates on
// a sentence or word boundary to the configured length. Always
// available, mirroring text_summarizer_internal.py's role as the
// non-optional fallback.
type Internal struct {
	MaxLength int
}

// DefaultInternalMaxLength matches the original's default budget for a
// DAPNET-class short-message channel.
const DefaultInternalMaxLength = 120

// Summarize returns text truncated at a sentence boundary if one exists
// within MaxLength, otherwise at the last whitespace before the limit.
func (s Internal) Summarize(_ context.Context, text string) (string, error) {
	limit := s.MaxLength
	if limit <= 0 {
		limit = DefaultInternalMaxLength
	}
	if len(text) <= limit {
		return text, nil
	}

	window := text[:limit]
	if idx := strings.LastIndexAny(window, ".!?"); idx > 0 {
		return strings.TrimSpace(window[:idx+1]), nil
	}
	if idx := strings.LastIndex(window, " "); idx > 0 {
		return strings.TrimSpace(window[:idx]), nil
	}
	return window, nil
}

// Registry keys for the pluggable API-backed summarizers.
const (
	KeyInternal = "internal"
	KeyGeneric  = "generic"
	KeyOpenAI   = "openai"
	KeyPaLM     = "palm"
)

// Generic calls a self-hosted summarization HTTP endpoint.
type Generic struct {
	httpClient *http.Client
	endpoint   string
}

// NewGeneric returns a Generic summarizer posting to endpoint. An empty
// endpoint means the backend is unconfigured.
func NewGeneric(endpoint string) *Generic {
	return &Generic{httpClient: &http.Client{Timeout: 20 * time.Second}, endpoint: endpoint}
}

// Summarize posts text to the configured endpoint and returns its
// "summary" field.
func (g *Generic) Summarize(ctx context.Context, text string) (string, error) {
	if g.endpoint == "" {
		return "", ErrNotConfigured
	}
	return postSummarize(ctx, g.httpClient, g.endpoint, "", text)
}

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"
const defaultPaLMURL = "https://generativelanguage.googleapis.com/v1beta3/models/text-bison-001:generateText"

// OpenAI calls the OpenAI completion API for summarization.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string

	// Endpoint defaults to the OpenAI chat completions URL; overridable
	// for tests.
	Endpoint string
}

// NewOpenAI returns an OpenAI summarizer using apiKey. An empty key
// means the backend is unconfigured.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{httpClient: &http.Client{Timeout: 20 * time.Second}, apiKey: apiKey, Endpoint: defaultOpenAIURL}
}

// Summarize asks the OpenAI API to summarize text.
func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	if o.apiKey == "" {
		return "", ErrNotConfigured
	}
	return postSummarize(ctx, o.httpClient, o.Endpoint, o.apiKey, text)
}

// PaLM calls Google's PaLM text API for summarization.
type PaLM struct {
	httpClient *http.Client
	apiKey     string

	// Endpoint defaults to the PaLM generateText URL; overridable for
	// tests.
	Endpoint string
}

// NewPaLM returns a PaLM summarizer using apiKey. An empty key means
// the backend is unconfigured.
func NewPaLM(apiKey string) *PaLM {
	return &PaLM{httpClient: &http.Client{Timeout: 20 * time.Second}, apiKey: apiKey, Endpoint: defaultPaLMURL}
}

// Summarize asks the PaLM API to summarize text.
func (p *PaLM) Summarize(ctx context.Context, text string) (string, error) {
	if p.apiKey == "" {
		return "", ErrNotConfigured
	}
	return postSummarize(ctx, p.httpClient, p.Endpoint, p.apiKey, text)
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func postSummarize(ctx context.Context, client *http.Client, endpoint, apiKey, text string) (string, error) {
	body, err := json.Marshal(summarizeRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encoding summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("building summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarize API returned status %d", resp.StatusCode)
	}

	var parsed summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding summarize response: %w", err)
	}
	return parsed.Summary, nil
}
