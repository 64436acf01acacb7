// Package feed fetches a MOWAS category document from the BBK warning
// service. It never returns a fatal error: the contract is ok/not-ok,
// mirroring the Python original's "crude yet effective" shape check and
// the teacher's pattern of a single shared *http.Client per component.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client fetches category documents from a single base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string

	// LocalFile, if set, is read instead of the network for every
	// category, for offline testing (spec.md §6's --localfile).
	LocalFile string
}

// New returns a Client rooted at baseURL (e.g. "https://warnung.bund.de").
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "mowas-beacon (+https://github.com/jschultzelutter/mowas-beacon)",
	}
}

// Fetch downloads and parses one category's feed document. Any transport
// error, non-200 status, or malformed body yields ok=false and an empty
// slice; the caller's next cycle retries. Never fatal.
func (c *Client) Fetch(ctx context.Context, category model.Category) (ok bool, broadcasts []model.Broadcast) {
	path, known := model.CategoryPaths[category]
	if !known {
		log.Warn().Str("category", string(category)).Msg("unknown MOWAS category")
		return false, nil
	}

	if c.LocalFile != "" {
		return c.fetchLocal(category)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Warn().Err(err).Str("category", string(category)).Msg("failed to build feed request")
		return false, nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("category", string(category)).Msg("feed fetch failed")
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("category", string(category)).Msg("feed returned non-200 status")
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("category", string(category)).Msg("failed to read feed body")
		return false, nil
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		log.Warn().Str("category", string(category)).Msg("feed body does not look like a JSON array")
		return false, nil
	}

	var parsed []model.Broadcast
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		log.Warn().Err(err).Str("category", string(category)).Msg("failed to parse feed JSON")
		return false, nil
	}

	for i := range parsed {
		parsed[i].Category = category
	}

	return true, parsed
}

// fetchLocal parses c.LocalFile as if it were every category's feed
// body, tagging the results with category. Intended for running a
// single saved document through the full pipeline offline.
func (c *Client) fetchLocal(category model.Category) (ok bool, broadcasts []model.Broadcast) {
	body, err := os.ReadFile(c.LocalFile)
	if err != nil {
		log.Warn().Err(err).Str("file", c.LocalFile).Msg("failed to read local feed file")
		return false, nil
	}

	var parsed []model.Broadcast
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn().Err(err).Str("file", c.LocalFile).Msg("failed to parse local feed file")
		return false, nil
	}

	for i := range parsed {
		parsed[i].Category = category
	}
	return true, parsed
}

// URL returns the fully-qualified URL for a category, for logging/testing.
func (c *Client) URL(category model.Category) (string, error) {
	path, known := model.CategoryPaths[category]
	if !known {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return c.baseURL + path, nil
}
