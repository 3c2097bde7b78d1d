// Package handler wires the order intake endpoints: resolve requirements
// for a selection, check satisfaction, submit.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"clearcheck/internal/order/models"
	"clearcheck/internal/order/orchestrator"
	"clearcheck/internal/order/resolver"
	"clearcheck/internal/platform/middleware"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
	"clearcheck/pkg/platform/httputil"
	"clearcheck/pkg/platform/sentinel"
	"clearcheck/pkg/requestcontext"
)

// Handler wires order intake endpoints to the resolver and orchestrator.
// Resolutions run through a per-order session so a slow response for an
// old selection never overwrites a newer one.
type Handler struct {
	resolver     *resolver.Resolver
	orch         *orchestrator.Orchestrator
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator

	mu       sync.Mutex
	sessions map[id.OrderID]*resolver.Session
}

func New(res *resolver.Resolver, orch *orchestrator.Orchestrator, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		resolver:     res,
		orch:         orch,
		logger:       logger,
		jwtValidator: jwtValidator,
		sessions:     make(map[id.OrderID]*resolver.Session),
	}
}

// Register mounts the order intake routes.
func (h *Handler) Register(r chi.Router) {
	orders := chi.NewRouter()
	orders.Use(middleware.Recovery(h.logger))
	orders.Use(middleware.RequestID)
	orders.Use(middleware.RequestTime)
	orders.Use(middleware.Logger(h.logger))
	orders.Use(middleware.Timeout(30 * time.Second))
	orders.Use(middleware.ContentTypeJSON)
	orders.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	orders.Post("/orders/resolve", h.handleResolve)
	orders.Post("/orders/check", h.handleCheck)
	orders.Post("/orders/submit", h.handleSubmit)

	r.Mount("/", orders)
}

func (h *Handler) session(orderID id.OrderID) *resolver.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[orderID]
	if !ok {
		s = resolver.NewSession()
		h.sessions[orderID] = s
	}
	return s
}

type pairPayload struct {
	ServiceID  string `json:"serviceId"`
	LocationID string `json:"locationId"`
}

type resolveRequest struct {
	OrderID string        `json:"orderId"`
	Pairs   []pairPayload `json:"pairs"`
}

type itemPayload struct {
	ItemID       string `json:"itemId"`
	ServiceID    string `json:"serviceId"`
	ServiceName  string `json:"serviceName"`
	LocationID   string `json:"locationId"`
	LocationName string `json:"locationName"`
}

type orderPayload struct {
	OrderID       string                    `json:"orderId"`
	Items         []itemPayload             `json:"items"`
	SubjectValues map[string]any            `json:"subjectValues"`
	SearchValues  map[string]map[string]any `json:"searchValues"`
	Documents     []models.DocumentRef      `json:"documents"`
	ForceDraft    bool                      `json:"forceDraft"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[resolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	orderID, err := id.ParseOrderID(req.OrderID)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "orderId must be a valid uuid"))
		return
	}

	pairs := make([]resolver.Pair, 0, len(req.Pairs))
	for _, p := range req.Pairs {
		if p.ServiceID == "" || p.LocationID == "" {
			httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "each pair needs serviceId and locationId"))
			return
		}
		pairs = append(pairs, resolver.Pair{
			ServiceID:  id.ServiceID(p.ServiceID),
			LocationID: id.LocationID(p.LocationID),
		})
	}

	res, err := h.session(orderID).Resolve(ctx, h.resolver, pairs)
	if err != nil {
		if errors.Is(err, sentinel.ErrStale) {
			httputil.WriteError(w, derrors.New(derrors.CodeConflict, "selection changed while resolving"))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, ok := httputil.Decode[orderPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ord, err := toOrder(payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.session(ord.ID).Resolve(ctx, h.resolver, resolver.PairsOf(ord))
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	missing, err := h.orch.Check(ord, res)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, missing)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	payload, ok := httputil.Decode[orderPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ord, err := toOrder(payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.session(ord.ID).Resolve(ctx, h.resolver, resolver.PairsOf(ord))
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	outcome, err := h.orch.Submit(ctx, ord, res, payload.ForceDraft)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "order submission handled",
		"request_id", requestID,
		"order_id", ord.ID,
		"outcome", outcome.Kind,
		"force_draft", payload.ForceDraft,
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	if errors.Is(err, sentinel.ErrStale) {
		httputil.WriteError(w, derrors.New(derrors.CodeConflict, "selection changed while resolving"))
		return
	}
	httputil.WriteError(w, err)
}

// toOrder converts the wire payload into the session model, parsing IDs
// and lifting raw JSON values into the tagged value variant.
func toOrder(payload orderPayload) (*models.Order, error) {
	orderID, err := id.ParseOrderID(payload.OrderID)
	if err != nil {
		return nil, derrors.New(derrors.CodeBadRequest, "orderId must be a valid uuid")
	}

	ord := &models.Order{
		ID:            orderID,
		Items:         make([]models.ServiceItem, 0, len(payload.Items)),
		SubjectValues: models.Values{},
		SearchValues:  make(map[id.ItemID]models.Values, len(payload.SearchValues)),
		Documents:     make(map[id.RequirementID]models.DocumentRef, len(payload.Documents)),
	}
	for _, item := range payload.Items {
		itemID, err := id.ParseItemID(item.ItemID)
		if err != nil {
			return nil, derrors.New(derrors.CodeBadRequest, "itemId must be a valid uuid")
		}
		ord.Items = append(ord.Items, models.ServiceItem{
			ItemID:       itemID,
			ServiceID:    id.ServiceID(item.ServiceID),
			ServiceName:  item.ServiceName,
			LocationID:   id.LocationID(item.LocationID),
			LocationName: item.LocationName,
		})
	}
	for reqID, raw := range payload.SubjectValues {
		if v := models.ValueFromJSON(raw); v != nil {
			ord.SubjectValues[id.RequirementID(reqID)] = v
		}
	}
	for itemKey, values := range payload.SearchValues {
		itemID, err := id.ParseItemID(itemKey)
		if err != nil {
			return nil, derrors.New(derrors.CodeBadRequest, "searchValues keys must be item uuids")
		}
		converted := models.Values{}
		for reqID, raw := range values {
			if v := models.ValueFromJSON(raw); v != nil {
				converted[id.RequirementID(reqID)] = v
			}
		}
		ord.SearchValues[itemID] = converted
	}
	for _, doc := range payload.Documents {
		ord.Documents[doc.RequirementID] = doc
	}
	return ord, nil
}
