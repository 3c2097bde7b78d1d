// Package resolver computes the resolved requirement set for a selection
// of service+location pairs by intersecting the requirement catalog with
// the persisted mapping configuration.
package resolver

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"clearcheck/internal/catalog"
	catalogmodels "clearcheck/internal/catalog/models"
	mapmodels "clearcheck/internal/mapping/models"
	"clearcheck/internal/mapping/store"
	ordermetrics "clearcheck/internal/order/metrics"
	"clearcheck/internal/order/models"
	id "clearcheck/pkg/domain"
	derrors "clearcheck/pkg/domain-errors"
	"clearcheck/pkg/platform/sentinel"
)

var tracer = otel.Tracer("clearcheck/internal/order/resolver")

// Pair is one service+location selection to resolve for. Duplicate pairs
// resolve to the same requirements and are collapsed by the snapshot.
type Pair struct {
	ServiceID  id.ServiceID  `json:"serviceId"`
	LocationID id.LocationID `json:"locationId"`
}

// PairsOf extracts the distinct pairs of an order's items.
func PairsOf(order *models.Order) []Pair {
	seen := make(map[Pair]struct{}, len(order.Items))
	var pairs []Pair
	for _, item := range order.Items {
		p := Pair{ServiceID: item.ServiceID, LocationID: item.LocationID}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs
}

// Snapshot fingerprints a selection independent of pair order. Two
// selections with the same snapshot resolve identically.
func Snapshot(pairs []Pair) string {
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.ServiceID.String()+"@"+p.LocationID.String())
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

// Resolver resolves requirement sets against the catalog and the mapping
// store.
type Resolver struct {
	catalog  catalog.Client
	mappings store.Store
	logger   *slog.Logger
	metrics  *ordermetrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *ordermetrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func New(cat catalog.Client, st store.Store, opts ...Option) (*Resolver, error) {
	if cat == nil || st == nil {
		return nil, derrors.New(derrors.CodeInvariantViolation, "catalog client and mapping store are required")
	}
	r := &Resolver{catalog: cat, mappings: st}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve computes the requirement set for the given pairs. Subject fields
// and documents are deduplicated across pairs; search fields stay tagged
// with the pair they came from. An empty selection resolves to an empty
// set; any fetch failure fails the whole resolution rather than returning
// a partial set.
func (r *Resolver) Resolve(ctx context.Context, pairs []Pair) (*models.ResolvedRequirementSet, error) {
	ctx, span := tracer.Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("pairs", len(pairs)))

	set := &models.ResolvedRequirementSet{
		SubjectFields: []catalogmodels.Requirement{},
		SearchFields:  []models.SearchField{},
		Documents:     []catalogmodels.Requirement{},
	}
	if len(pairs) == 0 {
		return set, nil
	}

	services := make([]id.ServiceID, 0, len(pairs))
	seen := make(map[id.ServiceID]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.ServiceID]; dup {
			continue
		}
		seen[p.ServiceID] = struct{}{}
		services = append(services, p.ServiceID)
	}

	var (
		mu            sync.Mutex
		reqsByService = make(map[id.ServiceID][]catalogmodels.Requirement, len(services))
		mapsByService = make(map[id.ServiceID]mapmodels.Set, len(services))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			reqs, err := r.catalog.Requirements(gctx, svc)
			if err != nil {
				return derrors.Wrap(err, derrors.CodeUnavailable, "requirement catalog unreachable")
			}
			mu.Lock()
			reqsByService[svc] = reqs
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			m, err := r.mappings.Mappings(gctx, svc)
			if err != nil {
				return derrors.Wrap(err, derrors.CodeUnavailable, "mapping store unreachable")
			}
			mu.Lock()
			mapsByService[svc] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		r.metrics.IncResolutionFailure()
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "requirement resolution failed", "error", err)
		}
		return nil, err
	}

	subjectSeen := make(map[id.RequirementID]struct{})
	docSeen := make(map[id.RequirementID]struct{})
	for _, p := range pairs {
		mapping := mapsByService[p.ServiceID]
		for _, req := range reqsByService[p.ServiceID] {
			if !mapping.Mapped(p.LocationID, req.ID) {
				continue
			}
			switch {
			case req.Type == catalogmodels.TypeField && req.Scope == catalogmodels.ScopeSubject:
				if _, dup := subjectSeen[req.ID]; !dup {
					subjectSeen[req.ID] = struct{}{}
					set.SubjectFields = append(set.SubjectFields, req)
				}
			case req.Type == catalogmodels.TypeField && req.Scope == catalogmodels.ScopeSearch:
				set.SearchFields = append(set.SearchFields, models.SearchField{
					Requirement: req,
					ServiceID:   p.ServiceID,
					LocationID:  p.LocationID,
				})
			default:
				// Documents and forms are both fulfilled by an attachment.
				if _, dup := docSeen[req.ID]; !dup {
					docSeen[req.ID] = struct{}{}
					set.Documents = append(set.Documents, req)
				}
			}
		}
	}

	sortRequirements(set.SubjectFields)
	sortRequirements(set.Documents)
	sort.SliceStable(set.SearchFields, func(i, j int) bool {
		a, b := set.SearchFields[i], set.SearchFields[j]
		if a.ServiceID != b.ServiceID {
			return a.ServiceID < b.ServiceID
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	r.metrics.IncResolution()
	return set, nil
}

func sortRequirements(reqs []catalogmodels.Requirement) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Name != reqs[j].Name {
			return reqs[i].Name < reqs[j].Name
		}
		return reqs[i].ID < reqs[j].ID
	})
}

// Resolution is one completed resolution tagged with the selection
// snapshot it was computed for.
type Resolution struct {
	Snapshot string                         `json:"snapshot"`
	Set      *models.ResolvedRequirementSet `json:"set"`
}

// Session serializes resolutions for one order-editing session. Each call
// records the snapshot it is resolving for; a result arriving after the
// selection has moved on is dropped with sentinel.ErrStale instead of
// overwriting the newer state.
type Session struct {
	mu      sync.Mutex
	current string
	latest  *Resolution
}

func NewSession() *Session {
	return &Session{}
}

// Resolve runs one resolution through the session. On fetch failure the
// latest resolution is cleared: the requirements are unknown until a
// retry succeeds.
func (s *Session) Resolve(ctx context.Context, r *Resolver, pairs []Pair) (*Resolution, error) {
	snap := Snapshot(pairs)
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	set, err := r.Resolve(ctx, pairs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != snap {
		r.metrics.IncStaleResolution()
		return nil, sentinel.ErrStale
	}
	if err != nil {
		s.latest = nil
		return nil, err
	}
	res := &Resolution{Snapshot: snap, Set: set}
	s.latest = res
	return res, nil
}

// Latest returns the most recent resolution, or nil when none has
// completed for the current selection.
func (s *Session) Latest() *Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
