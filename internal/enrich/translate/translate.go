// Package translate produces target-language variants of delivery text.
// Grounded on _examples/original_source/src/translate.py, which wraps a
// third-party translation API behind a uniform function signature; this
// package does the same behind the Translator interface.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Translator converts a batch of source texts to target, preserving
// slice order and length.
type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

// DeepL is a Translator backed by the DeepL HTTP API, mirroring the
// original Python tool's translation backend of choice.
type DeepL struct {
	httpClient *http.Client
	apiKey     string

	// BaseURL defaults to DeepL's free-tier endpoint; overridable for
	// tests and for operators on a Pro-tier account.
	BaseURL string
}

const defaultDeepLURL = "https://api-free.deepl.com/v2/translate"

// NewDeepL returns a Translator using the given DeepL API key.
func NewDeepL(apiKey string) *DeepL {
	return &DeepL{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		BaseURL:    defaultDeepLURL,
	}
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends texts to DeepL and returns their target-language forms
// in the same order. An empty apiKey is treated as misconfiguration.
func (d *DeepL) Translate(ctx context.Context, texts []string, target string) ([]string, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("translate: DeepL API key not configured")
	}

	form := url.Values{}
	for _, t := range texts {
		form.Add("text", t)
	}
	form.Set("target_lang", strings.ToUpper(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate API returned status %d", resp.StatusCode)
	}

	var parsed deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding translate response: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("translate API returned %d results for %d inputs", len(parsed.Translations), len(texts))
	}

	out := make([]string, len(texts))
	for i, tr := range parsed.Translations {
		out[i] = tr.Text
	}
	return out, nil
}

// Noop is a Translator that rejects every request, for deployments with
// no target language configured.
type Noop struct{}

// Translate always fails.
func (Noop) Translate(_ context.Context, _ []string, _ string) ([]string, error) {
	return nil, fmt.Errorf("translate: not configured")
}
