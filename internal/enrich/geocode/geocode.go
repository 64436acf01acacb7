// Package geocode provides reverse geocoding (lat/lon -> human address)
// for matched watch points. Grounded on the shared *http.Client +
// url.Values + JSON-decode idiom from mikecamilleri-our-data/nws, the
// closest example of a plain HTTP client wrapper in the pack.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// FallbackAddress is substituted by callers when a reverse-geocode lookup
// fails; the enrichment record is still emitted per spec.md §4.6 step 3.
// Nominatim.Reverse returns "" on failure; Noop.Reverse returns this
// value together with its error.
const FallbackAddress = "address unavailable"

// Reverser resolves a coordinate pair to a display address.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim is a Reverser backed by a Nominatim-compatible reverse
// geocoding HTTP API (e.g. OpenStreetMap's public instance). Requests
// are rate-limited since most public instances enforce a strict request
// budget (golang.org/x/time/rate, resolving spec.md's open rate-limit
// question).
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewNominatim returns a Reverser against baseURL (e.g.
// "https://nominatim.openstreetmap.org"), limited to at most one request
// per second on average with a small burst allowance.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse looks up the address for (lat, lon).
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var parsed nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding reverse geocode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("reverse geocode error: %s", parsed.Error)
	}
	if parsed.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode returned no address")
	}

	return parsed.DisplayName, nil
}

// Noop is a Reverser that always fails with the fixed fallback, for
// deployments that disable reverse geocoding entirely.
type Noop struct{}

// Reverse always returns FallbackAddress and a non-nil error.
func (Noop) Reverse(_ context.Context, _, _ float64) (string, error) {
	return FallbackAddress, fmt.Errorf("reverse geocoding disabled")
}
