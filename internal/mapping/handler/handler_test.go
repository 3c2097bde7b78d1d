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
	"clearcheck/internal/location"
	locmodels "clearcheck/internal/location/models"
	"clearcheck/internal/mapping/service"
	"clearcheck/internal/mapping/store"
	"clearcheck/internal/platform/logger"
	"clearcheck/internal/platform/middleware"
	id "clearcheck/pkg/domain"
)

// allowAllValidator accepts any token and pins the operator identity.
type allowAllValidator struct{}

func (allowAllValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{OperatorID: "op-test"}, nil
}

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	locs := location.MockClient{Records: []locmodels.Location{
		{ID: "us", Name: "United States"},
		{ID: "us-ca", Name: "California", ParentID: "us"},
	}}
	cat := catalog.MockClient{Entries: map[id.ServiceID][]catalogmodels.Requirement{
		"bg-check": {
			{ID: "req-ssn", Name: "SSN", Type: catalogmodels.TypeField, DataType: catalogmodels.KindText, Scope: catalogmodels.ScopeSubject, Required: true},
		},
	}}
	svc, err := service.New(locs, cat, store.NewInMemory())
	s.Require().NoError(err)

	h := New(svc, logger.New(), allowAllValidator{})
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req.WithContext(context.Background()))
	return w
}

func (s *HandlerSuite) TestAuthRequired() {
	w := s.do(http.MethodGet, "/config/bg-check/tree", nil, false)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerSuite) TestGetTree() {
	w := s.do(http.MethodGet, "/config/bg-check/tree", nil, true)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Tree struct {
			ID       string `json:"id"`
			Children []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"children"`
		} `json:"tree"`
		OrphanCount int `json:"orphanCount"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal("all", resp.Tree.ID)
	s.Require().Len(resp.Tree.Children, 1)
	s.Equal("us", resp.Tree.Children[0].ID)
	s.Zero(resp.OrphanCount)
}

func (s *HandlerSuite) TestToggleAvailability() {
	s.Run("valid toggle returns the updated tree", func() {
		w := s.do(http.MethodPut, "/config/bg-check/availability",
			map[string]any{"locationId": "us-ca", "value": false}, true)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp struct {
			Tree struct {
				Available bool `json:"available"`
			} `json:"tree"`
		}
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.False(resp.Tree.Available, "disable cascades up to the root")
	})

	s.Run("missing locationId is a bad request", func() {
		w := s.do(http.MethodPut, "/config/bg-check/availability",
			map[string]any{"value": false}, true)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown location is not found", func() {
		w := s.do(http.MethodPut, "/config/bg-check/availability",
			map[string]any{"locationId": "atlantis", "value": false}, true)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *HandlerSuite) TestToggleMapping() {
	s.Run("unknown requirement is not found", func() {
		w := s.do(http.MethodPut, "/config/bg-check/mapping",
			map[string]any{"locationId": "us", "requirementId": "req-nope", "value": true}, true)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("valid toggle maps the subtree", func() {
		w := s.do(http.MethodPut, "/config/bg-check/mapping",
			map[string]any{"locationId": "us", "requirementId": "req-ssn", "value": true}, true)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp struct {
			Tree struct {
				Children []struct {
					Mapped   map[string]bool `json:"mapped"`
					Children []struct {
						Mapped map[string]bool `json:"mapped"`
					} `json:"children"`
				} `json:"children"`
			} `json:"tree"`
		}
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Require().Len(resp.Tree.Children, 1)
		s.True(resp.Tree.Children[0].Mapped["req-ssn"])
		s.Require().Len(resp.Tree.Children[0].Children, 1)
		s.True(resp.Tree.Children[0].Children[0].Mapped["req-ssn"])
	})
}
