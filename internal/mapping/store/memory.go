package store

import (
	"context"
	"maps"
	"sync"

	"clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

// InMemory keeps configuration overlays in memory. Intended for tests and
// local running; it favors clarity over performance.
type InMemory struct {
	mu           sync.RWMutex
	mappings     map[id.ServiceID]models.Set
	availability map[id.ServiceID]models.AvailabilityMap
}

func NewInMemory() *InMemory {
	return &InMemory{
		mappings:     make(map[id.ServiceID]models.Set),
		availability: make(map[id.ServiceID]models.AvailabilityMap),
	}
}

func (s *InMemory) Mappings(_ context.Context, serviceID id.ServiceID) (models.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.Set, len(s.mappings[serviceID]))
	maps.Copy(out, s.mappings[serviceID])
	return out, nil
}

func (s *InMemory) Availability(_ context.Context, serviceID id.ServiceID) (models.AvailabilityMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.AvailabilityMap, len(s.availability[serviceID]))
	maps.Copy(out, s.availability[serviceID])
	return out, nil
}

func (s *InMemory) SaveMappings(_ context.Context, serviceID id.ServiceID, set models.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.mappings[serviceID]
	if existing == nil {
		existing = make(models.Set, len(set))
		s.mappings[serviceID] = existing
	}
	maps.Copy(existing, set)
	return nil
}

func (s *InMemory) SaveAvailability(_ context.Context, serviceID id.ServiceID, availability models.AvailabilityMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.availability[serviceID]
	if existing == nil {
		existing = make(models.AvailabilityMap, len(availability))
		s.availability[serviceID] = existing
	}
	maps.Copy(existing, availability)
	return nil
}
