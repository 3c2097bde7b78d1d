package store

import (
	"context"
	"database/sql"
	"fmt"

	"clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

// PostgresStore persists configuration overlays in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE requirement_mappings (
//	    service_id     TEXT NOT NULL,
//	    location_id    TEXT NOT NULL,
//	    requirement_id TEXT NOT NULL,
//	    mapped         BOOLEAN NOT NULL,
//	    PRIMARY KEY (service_id, location_id, requirement_id)
//	);
//	CREATE TABLE location_availability (
//	    service_id  TEXT NOT NULL,
//	    location_id TEXT NOT NULL,
//	    available   BOOLEAN NOT NULL,
//	    PRIMARY KEY (service_id, location_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Mappings(ctx context.Context, serviceID id.ServiceID) (models.Set, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, requirement_id, mapped
		   FROM requirement_mappings
		  WHERE service_id = $1`,
		serviceID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	set := make(models.Set)
	for rows.Next() {
		var loc, req string
		var mapped bool
		if err := rows.Scan(&loc, &req, &mapped); err != nil {
			return nil, fmt.Errorf("scan mapping row: %w", err)
		}
		set.Set(id.LocationID(loc), id.RequirementID(req), mapped)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return set, nil
}

func (s *PostgresStore) Availability(ctx context.Context, serviceID id.ServiceID) (models.AvailabilityMap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, available
		   FROM location_availability
		  WHERE service_id = $1`,
		serviceID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	out := make(models.AvailabilityMap)
	for rows.Next() {
		var loc string
		var available bool
		if err := rows.Scan(&loc, &available); err != nil {
			return nil, fmt.Errorf("scan availability row: %w", err)
		}
		out[id.LocationID(loc)] = available
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveMappings(ctx context.Context, serviceID id.ServiceID, set models.Set) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save mappings: %w", err)
	}
	defer tx.Rollback()

	for key, mapped := range set {
		loc, req, ok := key.Split()
		if !ok {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO requirement_mappings (service_id, location_id, requirement_id, mapped)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (service_id, location_id, requirement_id)
			 DO UPDATE SET mapped = EXCLUDED.mapped`,
			serviceID.String(), loc.String(), req.String(), mapped,
		)
		if err != nil {
			return fmt.Errorf("upsert mapping %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save mappings: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveAvailability(ctx context.Context, serviceID id.ServiceID, availability models.AvailabilityMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save availability: %w", err)
	}
	defer tx.Rollback()

	for loc, available := range availability {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO location_availability (service_id, location_id, available)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (service_id, location_id)
			 DO UPDATE SET available = EXCLUDED.available`,
			serviceID.String(), loc.String(), available,
		)
		if err != nil {
			return fmt.Errorf("upsert availability %s: %w", loc, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save availability: %w", err)
	}
	return nil
}
