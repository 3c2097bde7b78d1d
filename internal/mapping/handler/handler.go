// Package handler wires the operator configuration endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clearcheck/internal/location/tree"
	"clearcheck/internal/mapping/service"
	"clearcheck/internal/platform/middleware"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
	"clearcheck/pkg/platform/httputil"
	"clearcheck/pkg/requestcontext"
)

// Service defines the configuration operations the handler needs.
type Service interface {
	Load(ctx context.Context, serviceID id.ServiceID) (*service.Config, error)
	ToggleAvailability(ctx context.Context, serviceID id.ServiceID, locationID id.LocationID, value bool) (*service.Config, error)
	ToggleMapping(ctx context.Context, serviceID id.ServiceID, requirementID id.RequirementID, locationID id.LocationID, value bool) (*service.Config, error)
}

// Handler wires configuration endpoints to the config service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(svc Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      svc,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the operator configuration routes.
func (h *Handler) Register(r chi.Router) {
	cfg := chi.NewRouter()
	cfg.Use(middleware.Recovery(h.logger))
	cfg.Use(middleware.RequestID)
	cfg.Use(middleware.RequestTime)
	cfg.Use(middleware.Logger(h.logger))
	cfg.Use(middleware.Timeout(30 * time.Second))
	cfg.Use(middleware.ContentTypeJSON)
	cfg.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	cfg.Get("/config/{serviceID}/tree", h.handleGetTree)
	cfg.Put("/config/{serviceID}/availability", h.handleToggleAvailability)
	cfg.Put("/config/{serviceID}/mapping", h.handleToggleMapping)

	r.Mount("/", cfg)
}

type toggleRequest struct {
	LocationID    string `json:"locationId"`
	RequirementID string `json:"requirementId,omitempty"`
	Value         bool   `json:"value"`
}

type treeNode struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Level     int                 `json:"level"`
	Available bool                `json:"available"`
	Mapped    map[string]bool     `json:"mapped,omitempty"`
	Children  []treeNode          `json:"children,omitempty"`
}

type configResponse struct {
	Tree         treeNode `json:"tree"`
	Requirements any      `json:"requirements"`
	OrphanCount  int      `json:"orphanCount"`
}

func (h *Handler) handleGetTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serviceID := id.ServiceID(chi.URLParam(r, "serviceID"))

	cfg, err := h.service.Load(ctx, serviceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "config load failed",
			"request_id", requestcontext.RequestID(ctx),
			"service_id", serviceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(cfg))
}

func (h *Handler) handleToggleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	serviceID := id.ServiceID(chi.URLParam(r, "serviceID"))

	req, ok := httputil.Decode[toggleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.LocationID == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "locationId is required"))
		return
	}

	cfg, err := h.service.ToggleAvailability(ctx, serviceID, id.LocationID(req.LocationID), req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "availability toggled",
		"request_id", requestID,
		"service_id", serviceID,
		"location_id", req.LocationID,
		"value", req.Value,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(cfg))
}

func (h *Handler) handleToggleMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	serviceID := id.ServiceID(chi.URLParam(r, "serviceID"))

	req, ok := httputil.Decode[toggleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.LocationID == "" || req.RequirementID == "" {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "locationId and requirementId are required"))
		return
	}

	cfg, err := h.service.ToggleMapping(ctx, serviceID, id.RequirementID(req.RequirementID), id.LocationID(req.LocationID), req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "mapping toggled",
		"request_id", requestID,
		"service_id", serviceID,
		"location_id", req.LocationID,
		"requirement_id", req.RequirementID,
		"value", req.Value,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(cfg))
}

func toResponse(cfg *service.Config) configResponse {
	return configResponse{
		Tree:         toTreeNode(cfg.Tree, tree.Root),
		Requirements: cfg.Requirements,
		OrphanCount:  cfg.Tree.OrphanCount,
	}
}

func toTreeNode(t *tree.Tree, idx tree.NodeIndex) treeNode {
	n := t.Node(idx)
	node := treeNode{
		ID:        n.ID.String(),
		Name:      n.Name,
		Level:     n.Level,
		Available: n.Available,
	}
	if len(n.Mapped) > 0 {
		node.Mapped = make(map[string]bool, len(n.Mapped))
		for req, v := range n.Mapped {
			node.Mapped[req.String()] = v
		}
	}
	for _, c := range n.Children {
		node.Children = append(node.Children, toTreeNode(t, c))
	}
	return node
}
