// Package catalog exposes the external requirement catalog: the fields,
// documents, and forms an operator can attach to a service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clearcheck/internal/catalog/models"
	id "clearcheck/pkg/domain"
)

// Client fetches requirement definitions for a service.
type Client interface {
	Requirements(ctx context.Context, serviceID id.ServiceID) ([]models.Requirement, error)
}

// HTTPClient fetches the catalog from the configured feed URL.
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

func (c *HTTPClient) Requirements(ctx context.Context, serviceID id.ServiceID) ([]models.Requirement, error) {
	url := fmt.Sprintf("%s/services/%s/requirements", c.BaseURL, serviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog feed returned %d", resp.StatusCode)
	}
	var out []models.Requirement
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return out, nil
}

// MockClient serves a fixed catalog with a configurable latency to mimic
// real-world calls. Without explicit entries it returns a representative
// background-check catalog.
type MockClient struct {
	Latency time.Duration
	Entries map[id.ServiceID][]models.Requirement
}

func (c MockClient) Requirements(_ context.Context, serviceID id.ServiceID) ([]models.Requirement, error) {
	time.Sleep(c.Latency)
	if c.Entries != nil {
		return c.Entries[serviceID], nil
	}
	return []models.Requirement{
		{ID: "req-full-name", Name: "Full Name", Type: models.TypeField, DataType: models.KindText, Scope: models.ScopeSubject, Required: true},
		{ID: "req-dob", Name: "Date of Birth", Type: models.TypeField, DataType: models.KindDate, Scope: models.ScopeSubject, Required: true},
		{ID: "req-address", Name: "Current Address", Type: models.TypeField, DataType: models.KindAddressBlock, Scope: models.ScopeSubject, Required: true},
		{ID: "req-county", Name: "Search County", Type: models.TypeField, DataType: models.KindText, Scope: models.ScopeSearch, Required: true},
		{ID: "req-consent-form", Name: "Signed Consent", Type: models.TypeDocument, Scope: models.ScopePerCase, Required: true},
	}, nil
}
