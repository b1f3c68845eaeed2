package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"remindbot/internal/domain/registrant"
)

// HTTPSource reads registrants from a CSV export URL, such as a Google Sheet
// published to the web (".../export?format=csv").
type HTTPSource struct {
	url     string
	mapping Mapping
	client  *http.Client
}

// NewHTTPSource creates a source backed by an HTTP CSV export.
// PRE: url is a reachable CSV endpoint; mapping has been validated
// POST: Returns a source with a bounded request timeout
func NewHTTPSource(url string, mapping Mapping) *HTTPSource {
	return &HTTPSource{
		url:     url,
		mapping: mapping,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Rows fetches the export and returns the parseable registrants.
func (s *HTTPSource) Rows(ctx context.Context) ([]registrant.Registrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch registrant sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch registrant sheet: unexpected status %s", resp.Status)
	}
	return decodeCSV(resp.Body, s.mapping)
}
