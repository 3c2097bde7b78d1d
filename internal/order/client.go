// Package order talks to the external order store that persists submitted
// orders. The store runs its own satisfaction check and may downgrade a
// submission to draft; its response is authoritative.
package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"clearcheck/internal/order/models"
	derrors "clearcheck/pkg/domain-errors"
)

// SubmitItem is the wire shape of one service item.
type SubmitItem struct {
	ItemID     string `json:"itemId"`
	ServiceID  string `json:"serviceId"`
	LocationID string `json:"locationId"`
}

// SubmitRequest is the persistence payload. Entered values are keyed by
// requirement display name, the shape downstream fulfillment consumes.
type SubmitRequest struct {
	OrderID       string                    `json:"orderId"`
	Status        models.OrderStatus        `json:"status"`
	Items         []SubmitItem              `json:"items"`
	SubjectValues map[string]any            `json:"subjectValues"`
	SearchValues  map[string]map[string]any `json:"searchValues"`
	Documents     []models.DocumentRef      `json:"documents"`
}

// SubmitResponse carries the status the store actually persisted. When the
// store downgrades a submission it reports its own missing requirements.
type SubmitResponse struct {
	OrderID string                      `json:"orderId"`
	Status  models.OrderStatus          `json:"status"`
	Missing *models.MissingRequirements `json:"missingRequirements,omitempty"`
}

// Client submits orders to the external order store.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
}

// HTTPClient posts submissions to the order store endpoint.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to encode submission")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to build submission request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "order store unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, derrors.New(derrors.CodeUnavailable,
			fmt.Sprintf("order store returned status %d", resp.StatusCode))
	}
	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "failed to decode order store response")
	}
	return &out, nil
}

// MockClient is a test double. By default it persists the requested
// status; set ForceStatus to exercise server-side downgrades.
type MockClient struct {
	Latency     time.Duration
	ForceStatus models.OrderStatus
	Missing     *models.MissingRequirements
	Err         error

	mu       sync.Mutex
	requests []SubmitRequest
}

func (c *MockClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	status := req.Status
	if c.ForceStatus != "" {
		status = c.ForceStatus
	}
	return &SubmitResponse{OrderID: req.OrderID, Status: status, Missing: c.Missing}, nil
}

// Requests returns a copy of the submissions received so far.
func (c *MockClient) Requests() []SubmitRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubmitRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
