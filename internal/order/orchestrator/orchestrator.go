// Package orchestrator drives order submission: pre-flight satisfaction
// checks, draft fallback, the order store call, and reconciliation of the
// store's authoritative response.
package orchestrator

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	catalogmodels "clearcheck/internal/catalog/models"
	order "clearcheck/internal/order"
	ordermetrics "clearcheck/internal/order/metrics"
	"clearcheck/internal/order/models"
	"clearcheck/internal/order/resolver"
	"clearcheck/internal/order/satisfaction"
	"clearcheck/internal/order/wizard"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
	audit "clearcheck/pkg/platform/audit"
	"clearcheck/pkg/platform/audit/publisher"
	"clearcheck/pkg/requestcontext"
)

var tracer = otel.Tracer("clearcheck/internal/order/orchestrator")

// OutcomeKind classifies what happened to a submission attempt.
type OutcomeKind string

const (
	// OutcomeSubmitted: the order store persisted the order as submitted.
	OutcomeSubmitted OutcomeKind = "submitted"
	// OutcomeDraft: the operator chose draft and the store persisted it.
	OutcomeDraft OutcomeKind = "draft"
	// OutcomeMissing: the pre-flight check found unmet requirements; the
	// store was never called.
	OutcomeMissing OutcomeKind = "missing_requirements"
	// OutcomeOverridden: the store downgraded a submission to draft.
	OutcomeOverridden OutcomeKind = "server_override"
)

// Outcome is the result of a submission attempt. Missing is set for
// OutcomeMissing and OutcomeOverridden so the confirmation dialog can
// show what to fix.
type Outcome struct {
	Kind    OutcomeKind                 `json:"kind"`
	Status  models.OrderStatus          `json:"status,omitempty"`
	Missing *models.MissingRequirements `json:"missingRequirements,omitempty"`
}

// Orchestrator owns the submission flow.
type Orchestrator struct {
	client   order.Client
	auditPub *publisher.Publisher
	logger   *slog.Logger
	metrics  *ordermetrics.Metrics
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithAuditPublisher(pub *publisher.Publisher) Option {
	return func(o *Orchestrator) { o.auditPub = pub }
}

func WithMetrics(m *ordermetrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func New(client order.Client, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, derrors.New(derrors.CodeInvariantViolation, "order store client is required")
	}
	o := &Orchestrator{client: client}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Check runs the satisfaction check against a resolution without
// submitting. The resolution must match the order's current selection.
func (o *Orchestrator) Check(ord *models.Order, res *resolver.Resolution) (models.MissingRequirements, error) {
	if err := requireCurrentResolution(ord, res); err != nil {
		return models.MissingRequirements{}, err
	}
	return satisfaction.CheckMissing(res.Set, ord), nil
}

// Submit attempts to persist the order. With forceDraft the pre-flight
// check is skipped and the order is saved as a draft regardless of
// completeness. On a transport failure no state changes: the caller keeps
// the order editable and may retry.
func (o *Orchestrator) Submit(ctx context.Context, ord *models.Order, res *resolver.Resolution, forceDraft bool) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Submit")
	defer span.End()

	if ord == nil {
		return nil, derrors.New(derrors.CodeInvariantViolation, "order is required")
	}
	span.SetAttributes(
		attribute.String("order_id", ord.ID.String()),
		attribute.Bool("force_draft", forceDraft),
	)
	if err := wizard.Validate(wizard.StageServices, ord); err != nil {
		return nil, err
	}
	if err := requireCurrentResolution(ord, res); err != nil {
		span.RecordError(err)
		return nil, err
	}

	missing := satisfaction.CheckMissing(res.Set, ord)
	if !forceDraft && !missing.IsValid() {
		if o.logger != nil {
			o.logger.InfoContext(ctx, "submission blocked by missing requirements",
				"request_id", requestcontext.RequestID(ctx),
				"order_id", ord.ID,
				"missing_subject", len(missing.SubjectFields),
				"missing_search", len(missing.SearchFields),
				"missing_documents", len(missing.Documents),
			)
		}
		return &Outcome{Kind: OutcomeMissing, Missing: &missing}, nil
	}

	requested := models.StatusSubmitted
	if forceDraft {
		requested = models.StatusDraft
	}
	resp, err := o.client.Submit(ctx, buildSubmitRequest(ord, res.Set, requested))
	if err != nil {
		span.RecordError(err)
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "order store call failed",
				"request_id", requestcontext.RequestID(ctx),
				"order_id", ord.ID,
				"error", err,
			)
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "order submission failed")
	}

	switch {
	case resp.Status == models.StatusDraft && requested == models.StatusSubmitted:
		// The store's own check disagreed with ours; its list wins when
		// present, otherwise show what we last computed.
		m := resp.Missing
		if m == nil {
			m = &missing
		}
		o.metrics.IncServerOverride()
		o.metrics.IncSubmission(string(models.StatusDraft))
		o.emit(ctx, audit.EventOrderStatusOverridden, ord.ID, "submitted downgraded to draft")
		return &Outcome{Kind: OutcomeOverridden, Status: models.StatusDraft, Missing: m}, nil

	case resp.Status == models.StatusDraft:
		o.metrics.IncDraftFallback()
		o.metrics.IncSubmission(string(models.StatusDraft))
		o.emit(ctx, audit.EventOrderDraftFallback, ord.ID, "saved as draft")
		return &Outcome{Kind: OutcomeDraft, Status: models.StatusDraft}, nil

	default:
		o.metrics.IncSubmission(string(models.StatusSubmitted))
		o.emit(ctx, audit.EventOrderSubmitted, ord.ID, "submitted")
		return &Outcome{Kind: OutcomeSubmitted, Status: models.StatusSubmitted}, nil
	}
}

// requireCurrentResolution rejects submission when requirements are not
// known for the order's current selection, either because resolution never
// completed or because the selection changed since.
func requireCurrentResolution(ord *models.Order, res *resolver.Resolution) error {
	if ord == nil {
		return derrors.New(derrors.CodeInvariantViolation, "order is required")
	}
	if res == nil || res.Set == nil {
		return derrors.New(derrors.CodeUnavailable, "requirements are not resolved for the current selection")
	}
	if res.Snapshot != resolver.Snapshot(resolver.PairsOf(ord)) {
		return derrors.New(derrors.CodeUnavailable, "resolution is stale for the current selection")
	}
	return nil
}

// buildSubmitRequest converts session state into the persistence payload.
// Values are re-keyed from requirement IDs to display names; values whose
// requirement is no longer in the resolved set keep the raw ID as key.
func buildSubmitRequest(ord *models.Order, set *models.ResolvedRequirementSet, status models.OrderStatus) order.SubmitRequest {
	names := make(map[id.RequirementID]string, len(set.SubjectFields)+len(set.SearchFields))
	for _, f := range set.SubjectFields {
		names[f.ID] = f.Name
	}
	for _, f := range set.SearchFields {
		names[f.ID] = f.Name
	}

	req := order.SubmitRequest{
		OrderID:       ord.ID.String(),
		Status:        status,
		Items:         make([]order.SubmitItem, 0, len(ord.Items)),
		SubjectValues: make(map[string]any, len(ord.SubjectValues)),
		SearchValues:  make(map[string]map[string]any, len(ord.SearchValues)),
	}
	for _, item := range ord.Items {
		req.Items = append(req.Items, order.SubmitItem{
			ItemID:     item.ItemID.String(),
			ServiceID:  item.ServiceID.String(),
			LocationID: item.LocationID.String(),
		})
	}
	for reqID, v := range ord.SubjectValues {
		req.SubjectValues[nameFor(names, reqID)] = wireValue(v)
	}
	for itemID, values := range ord.SearchValues {
		keyed := make(map[string]any, len(values))
		for reqID, v := range values {
			keyed[nameFor(names, reqID)] = wireValue(v)
		}
		req.SearchValues[itemID.String()] = keyed
	}
	for _, doc := range ord.Documents {
		req.Documents = append(req.Documents, doc)
	}
	return req
}

func nameFor(names map[id.RequirementID]string, reqID id.RequirementID) string {
	if name, ok := names[reqID]; ok {
		return name
	}
	return reqID.String()
}

func wireValue(v models.Value) any {
	switch tv := v.(type) {
	case models.Scalar:
		return string(tv)
	case models.List:
		return []string(tv)
	case models.Address:
		return catalogmodels.AddressBlockValue(tv)
	default:
		return nil
	}
}

func (o *Orchestrator) emit(ctx context.Context, action audit.AuditEvent, orderID id.OrderID, detail string) {
	if o.auditPub == nil {
		return
	}
	err := o.auditPub.Emit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		OperatorID: requestcontext.OperatorID(ctx),
		Action:     string(action),
		OrderID:    orderID.String(),
		Detail:     detail,
	})
	if err != nil && o.logger != nil {
		o.logger.ErrorContext(ctx, "audit emit failed",
			"action", action,
			"order_id", orderID,
			"error", err,
		)
	}
}
