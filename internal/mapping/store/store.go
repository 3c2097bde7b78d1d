// Package store persists the mapping and availability overlays, keyed by
// service.
package store

import (
	"context"

	"clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

// Store is interface-driven to keep the services testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Reads return empty (not nil-error) collections for unknown
// services: an unconfigured service simply has no overrides.
type Store interface {
	Mappings(ctx context.Context, serviceID id.ServiceID) (models.Set, error)
	Availability(ctx context.Context, serviceID id.ServiceID) (models.AvailabilityMap, error)
	SaveMappings(ctx context.Context, serviceID id.ServiceID, set models.Set) error
	SaveAvailability(ctx context.Context, serviceID id.ServiceID, availability models.AvailabilityMap) error
}
