// Package location exposes the upstream location feed. The feed is an
// opaque external service; this package defines the client interface, an
// HTTP implementation, and a deterministic mock for local running and
// tests.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clearcheck/internal/location/models"
)

// Client fetches the flat location records the tree is built from.
type Client interface {
	List(ctx context.Context) ([]models.Location, error)
}

// HTTPClient fetches locations from the configured feed URL.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) List(ctx context.Context) ([]models.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/locations", nil)
	if err != nil {
		return nil, fmt.Errorf("build location request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("location feed returned %d", resp.StatusCode)
	}
	var out []models.Location
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return out, nil
}

// MockClient serves a fixed record set with a configurable latency to
// mimic real-world calls.
type MockClient struct {
	Latency time.Duration
	Records []models.Location
}

func (c MockClient) List(_ context.Context) ([]models.Location, error) {
	time.Sleep(c.Latency)
	if c.Records != nil {
		return c.Records, nil
	}
	return []models.Location{
		{ID: "us", Name: "United States", Code2: "US", Code3: "USA"},
		{ID: "us-ca", Name: "California", ParentID: "us", Subregion1: "CA"},
		{ID: "us-ny", Name: "New York", ParentID: "us", Subregion1: "NY"},
		{ID: "gb", Name: "United Kingdom", Code2: "GB", Code3: "GBR"},
	}, nil
}
