// Package models defines the persisted configuration overlays: which
// requirements apply at which locations, and which locations are in scope
// at all. Both are flat maps keyed by location so they survive tree
// rebuilds unchanged.
package models

import (
	"strings"

	id "clearcheck/pkg/domain"
)

// keySeparator joins location and requirement IDs into one flat key. Three
// underscores cannot collide with UUID-shaped identifiers.
const keySeparator = "___"

// Key identifies one (location, requirement) mapping cell.
type Key string

func NewKey(locationID id.LocationID, requirementID id.RequirementID) Key {
	return Key(locationID.String() + keySeparator + requirementID.String())
}

// Split recovers the composite parts. ok is false for malformed keys.
func (k Key) Split() (id.LocationID, id.RequirementID, bool) {
	loc, req, found := strings.Cut(string(k), keySeparator)
	if !found || loc == "" || req == "" {
		return "", "", false
	}
	return id.LocationID(loc), id.RequirementID(req), true
}

// Set holds mapping cells. Absent means false: a requirement applies at a
// location only when explicitly mapped.
type Set map[Key]bool

func (s Set) Mapped(locationID id.LocationID, requirementID id.RequirementID) bool {
	return s[NewKey(locationID, requirementID)]
}

func (s Set) Set(locationID id.LocationID, requirementID id.RequirementID, v bool) {
	s[NewKey(locationID, requirementID)] = v
}

// RequirementIDs returns the distinct requirements present in the set, in
// no particular order.
func (s Set) RequirementIDs() []id.RequirementID {
	seen := make(map[id.RequirementID]struct{})
	var out []id.RequirementID
	for k := range s {
		if _, req, ok := k.Split(); ok {
			if _, dup := seen[req]; !dup {
				seen[req] = struct{}{}
				out = append(out, req)
			}
		}
	}
	return out
}

// AvailabilityMap holds per-location availability. Absent means true: a
// location is in scope unless explicitly excluded.
type AvailabilityMap map[id.LocationID]bool

func (a AvailabilityMap) Available(locationID id.LocationID) bool {
	v, ok := a[locationID]
	if !ok {
		return true
	}
	return v
}
