// Package service orchestrates the operator configuration surface: load
// the decorated location tree for a service, apply flag toggles through
// the cascade engine, persist the result.
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"clearcheck/internal/catalog"
	catalogmodels "clearcheck/internal/catalog/models"
	"clearcheck/internal/location"
	"clearcheck/internal/location/cascade"
	locmodels "clearcheck/internal/location/models"
	"clearcheck/internal/location/tree"
	mappingmetrics "clearcheck/internal/mapping/metrics"
	mapmodels "clearcheck/internal/mapping/models"
	"clearcheck/internal/mapping/store"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
	audit "clearcheck/pkg/platform/audit"
	"clearcheck/pkg/platform/audit/publisher"
	"clearcheck/pkg/requestcontext"
)

// ConfigService owns the configuration read/modify/persist cycle.
type ConfigService struct {
	locations location.Client
	catalog   catalog.Client
	store     store.Store
	auditPub  *publisher.Publisher
	logger    *slog.Logger
	metrics   *mappingmetrics.Metrics
}

type Option func(*ConfigService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *ConfigService) { s.logger = logger }
}

func WithAuditPublisher(pub *publisher.Publisher) Option {
	return func(s *ConfigService) { s.auditPub = pub }
}

func WithMetrics(m *mappingmetrics.Metrics) Option {
	return func(s *ConfigService) { s.metrics = m }
}

func New(locations location.Client, cat catalog.Client, st store.Store, opts ...Option) (*ConfigService, error) {
	if locations == nil || cat == nil || st == nil {
		return nil, derrors.New(derrors.CodeInvariantViolation, "location client, catalog client, and store are required")
	}
	s := &ConfigService{
		locations: locations,
		catalog:   cat,
		store:     st,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config is one loaded configuration session: the decorated tree plus the
// catalog it was decorated against.
type Config struct {
	Tree         *tree.Tree
	Requirements []catalogmodels.Requirement
}

// Load fetches locations, catalog, and overlays in parallel and builds the
// tree. On any fetch failure the whole load fails; callers keep their
// last-good state rather than showing a partial tree.
func (s *ConfigService) Load(ctx context.Context, serviceID id.ServiceID) (*Config, error) {
	if serviceID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "service_id is required")
	}

	var (
		flat         []locmodels.Location
		requirements []catalogmodels.Requirement
		mappings     mapmodels.Set
		availability mapmodels.AvailabilityMap
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.locations.List(gctx)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeUnavailable, "location feed unreachable")
		}
		flat = recs
		return nil
	})
	g.Go(func() error {
		reqs, err := s.catalog.Requirements(gctx, serviceID)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeUnavailable, "requirement catalog unreachable")
		}
		requirements = reqs
		return nil
	})
	g.Go(func() error {
		m, err := s.store.Mappings(gctx, serviceID)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeUnavailable, "mapping store unreachable")
		}
		mappings = m
		return nil
	})
	g.Go(func() error {
		a, err := s.store.Availability(gctx, serviceID)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeUnavailable, "availability store unreachable")
		}
		availability = a
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncConfigLoadFailure()
		return nil, err
	}

	t := tree.Build(flat, mappings, availability)
	s.metrics.IncConfigLoad()
	if t.OrphanCount > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "location feed contains orphaned records",
			"service_id", serviceID,
			"orphans", t.OrphanCount,
		)
	}
	return &Config{Tree: t, Requirements: requirements}, nil
}

// ToggleAvailability applies an operator availability toggle: cascade
// through the current tree, persist the resulting overlay, audit.
func (s *ConfigService) ToggleAvailability(ctx context.Context, serviceID id.ServiceID, locationID id.LocationID, value bool) (*Config, error) {
	cfg, err := s.Load(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if _, ok := cfg.Tree.Lookup(locationID); !ok {
		return nil, derrors.New(derrors.CodeNotFound, "unknown location")
	}

	changed := cascade.SetAvailability(cfg.Tree, locationID, value)
	if err := s.store.SaveAvailability(ctx, serviceID, cfg.Tree.AvailabilityOverlay()); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "failed to persist availability")
	}

	s.metrics.ObserveToggle("availability", len(changed))
	s.emitToggle(ctx, audit.EventAvailabilityToggled, serviceID, locationID, value)
	return cfg, nil
}

// ToggleMapping applies an operator mapping toggle for one requirement.
func (s *ConfigService) ToggleMapping(ctx context.Context, serviceID id.ServiceID, requirementID id.RequirementID, locationID id.LocationID, value bool) (*Config, error) {
	if requirementID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "requirement_id is required")
	}
	cfg, err := s.Load(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if _, ok := cfg.Tree.Lookup(locationID); !ok {
		return nil, derrors.New(derrors.CodeNotFound, "unknown location")
	}
	if !hasRequirement(cfg.Requirements, requirementID) {
		return nil, derrors.New(derrors.CodeNotFound, "requirement not in catalog for service")
	}

	changed := cascade.SetMapping(cfg.Tree, locationID, requirementID, value)
	if err := s.store.SaveMappings(ctx, serviceID, cfg.Tree.MappingOverlay(requirementID)); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "failed to persist mappings")
	}

	s.metrics.ObserveToggle("mapping", len(changed))
	s.emitToggle(ctx, audit.EventMappingToggled, serviceID, locationID, value)
	return cfg, nil
}

func hasRequirement(reqs []catalogmodels.Requirement, requirementID id.RequirementID) bool {
	for _, r := range reqs {
		if r.ID == requirementID {
			return true
		}
	}
	return false
}

func (s *ConfigService) emitToggle(ctx context.Context, action audit.AuditEvent, serviceID id.ServiceID, locationID id.LocationID, value bool) {
	if s.auditPub == nil {
		return
	}
	detail := "off"
	if value {
		detail = "on"
	}
	err := s.auditPub.Emit(ctx, audit.Event{
		Category:   audit.CategoryOperations,
		OperatorID: requestcontext.OperatorID(ctx),
		Action:     string(action),
		ServiceID:  serviceID,
		LocationID: locationID,
		Detail:     detail,
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", action,
			"service_id", serviceID,
			"error", err,
		)
	}
}
