package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"clearcheck/internal/catalog"
	catalogmodels "clearcheck/internal/catalog/models"
	mapmodels "clearcheck/internal/mapping/models"
	"clearcheck/internal/mapping/store"
	order "clearcheck/internal/order"
	"clearcheck/internal/order/orchestrator"
	"clearcheck/internal/order/resolver"
	"clearcheck/internal/platform/logger"
	"clearcheck/internal/platform/middleware"
	id "clearcheck/pkg/domain"
)

type allowAllValidator struct{}

func (allowAllValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{OperatorID: "op-test"}, nil
}

type OrderHandlerSuite struct {
	suite.Suite
	router  chi.Router
	client  *order.MockClient
	orderID id.OrderID
	itemID  id.ItemID
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerSuite))
}

func (s *OrderHandlerSuite) SetupTest() {
	cat := catalog.MockClient{Entries: map[id.ServiceID][]catalogmodels.Requirement{
		"bg-check": {
			{ID: "req-name", Name: "Full name", Type: catalogmodels.TypeField, DataType: catalogmodels.KindText, Scope: catalogmodels.ScopeSubject, Required: true},
		},
	}}
	st := store.NewInMemory()
	mappings := mapmodels.Set{}
	mappings.Set("us-ca", "req-name", true)
	s.Require().NoError(st.SaveMappings(context.Background(), "bg-check", mappings))

	res, err := resolver.New(cat, st)
	s.Require().NoError(err)

	s.client = &order.MockClient{}
	orch, err := orchestrator.New(s.client)
	s.Require().NoError(err)

	h := New(res, orch, logger.New(), allowAllValidator{})
	s.router = chi.NewRouter()
	h.Register(s.router)

	s.orderID = id.NewOrderID()
	s.itemID = id.NewItemID()
}

func (s *OrderHandlerSuite) do(path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *OrderHandlerSuite) orderBody(subjectValues map[string]any, forceDraft bool) map[string]any {
	return map[string]any{
		"orderId": s.orderID.String(),
		"items": []map[string]any{{
			"itemId":       s.itemID.String(),
			"serviceId":    "bg-check",
			"serviceName":  "Background Check",
			"locationId":   "us-ca",
			"locationName": "California",
		}},
		"subjectValues": subjectValues,
		"forceDraft":    forceDraft,
	}
}

func (s *OrderHandlerSuite) TestAuthRequired() {
	w := s.do("/orders/resolve", map[string]any{}, false)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *OrderHandlerSuite) TestResolve() {
	w := s.do("/orders/resolve", map[string]any{
		"orderId": s.orderID.String(),
		"pairs":   []map[string]any{{"serviceId": "bg-check", "locationId": "us-ca"}},
	}, true)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Snapshot string `json:"snapshot"`
		Set      struct {
			SubjectFields []struct {
				ID string `json:"id"`
			} `json:"subjectFields"`
		} `json:"set"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.NotEmpty(resp.Snapshot)
	s.Require().Len(resp.Set.SubjectFields, 1)
	s.Equal("req-name", resp.Set.SubjectFields[0].ID)
}

func (s *OrderHandlerSuite) TestResolveValidation() {
	s.Run("bad order id", func() {
		w := s.do("/orders/resolve", map[string]any{"orderId": "nope"}, true)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("pair without location", func() {
		w := s.do("/orders/resolve", map[string]any{
			"orderId": s.orderID.String(),
			"pairs":   []map[string]any{{"serviceId": "bg-check"}},
		}, true)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *OrderHandlerSuite) TestCheck() {
	w := s.do("/orders/check", s.orderBody(map[string]any{}, false), true)
	s.Require().Equal(http.StatusOK, w.Code)

	var missing struct {
		SubjectFields []struct {
			Name   string `json:"name"`
			Origin string `json:"origin"`
		} `json:"subjectFields"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&missing))
	s.Require().Len(missing.SubjectFields, 1)
	s.Equal("Full name", missing.SubjectFields[0].Name)
	s.Equal("All services", missing.SubjectFields[0].Origin)
}

func (s *OrderHandlerSuite) TestSubmit() {
	s.Run("complete order submits", func() {
		body := s.orderBody(map[string]any{"req-name": "Ada Lovelace"}, false)
		w := s.do("/orders/submit", body, true)
		s.Require().Equal(http.StatusOK, w.Code)

		var out struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		}
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&out))
		s.Equal("submitted", out.Kind)
		s.Equal("submitted", out.Status)
		s.Len(s.client.Requests(), 1)
	})

	s.Run("incomplete order is blocked without a store call", func() {
		before := len(s.client.Requests())
		w := s.do("/orders/submit", s.orderBody(map[string]any{}, false), true)
		s.Require().Equal(http.StatusOK, w.Code)

		var out struct {
			Kind    string `json:"kind"`
			Missing *struct {
				SubjectFields []struct {
					Name string `json:"name"`
				} `json:"subjectFields"`
			} `json:"missingRequirements"`
		}
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&out))
		s.Equal("missing_requirements", out.Kind)
		s.Require().NotNil(out.Missing)
		s.Len(out.Missing.SubjectFields, 1)
		s.Len(s.client.Requests(), before, "no call reached the order store")
	})

	s.Run("force draft persists an incomplete order", func() {
		w := s.do("/orders/submit", s.orderBody(map[string]any{}, true), true)
		s.Require().Equal(http.StatusOK, w.Code)

		var out struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		}
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&out))
		s.Equal("draft", out.Kind)
		s.Equal("draft", out.Status)
	})
}
