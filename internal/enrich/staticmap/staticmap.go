// Package staticmap renders a polygon-and-markers preview image for a
// delivery record. Grounded on _examples/original_source/src/staticmap.py,
// which posts a geometry description to a static map tile renderer and
// returns PNG bytes; failure there (and here) yields no image, per
// spec.md §4.6 step 7.
package staticmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// Renderer produces a map image highlighting a polygon and its matched
// watch points (red markers) plus the live point (green marker), if any.
type Renderer interface {
	Render(ctx context.Context, polygon []model.LatLon, points []model.MatchedPoint) ([]byte, error)
}

// HTTPRenderer calls an external static-map rendering service (e.g. a
// self-hosted staticmap instance) over HTTP.
type HTTPRenderer struct {
	httpClient *http.Client
	endpoint   string
}

// NewHTTPRenderer returns a Renderer posting to endpoint.
func NewHTTPRenderer(endpoint string) *HTTPRenderer {
	return &HTTPRenderer{httpClient: &http.Client{Timeout: 20 * time.Second}, endpoint: endpoint}
}

type marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color"`
}

type renderRequest struct {
	Polygon []model.LatLon `json:"polygon"`
	Markers []marker       `json:"markers"`
}

// Render posts the polygon and matched points and returns the rendered
// image bytes, or an error if the endpoint is unconfigured or fails.
func (h *HTTPRenderer) Render(ctx context.Context, polygon []model.LatLon, points []model.MatchedPoint) ([]byte, error) {
	if h.endpoint == "" {
		return nil, fmt.Errorf("staticmap: renderer not configured")
	}

	markers := make([]marker, 0, len(points))
	for _, p := range points {
		color := "red"
		if p.IsLive {
			color = "green"
		}
		markers = append(markers, marker{Lat: p.Latitude, Lon: p.Longitude, Color: color})
	}

	payload, err := json.Marshal(renderRequest{Polygon: polygon, Markers: markers})
	if err != nil {
		return nil, fmt.Errorf("encoding staticmap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building staticmap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("staticmap request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("staticmap service returned status %d", resp.StatusCode)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading staticmap response: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("staticmap service returned an empty image")
	}

	return buf.Bytes(), nil
}

// Noop never produces an image, for deployments with map rendering
// disabled.
type Noop struct{}

// Render always fails.
func (Noop) Render(_ context.Context, _ []model.LatLon, _ []model.MatchedPoint) ([]byte, error) {
	return nil, fmt.Errorf("staticmap: rendering disabled")
}
