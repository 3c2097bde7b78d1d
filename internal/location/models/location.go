// Package models defines the flat location records delivered by the
// upstream location feed. The hierarchy itself is a projection built by
// the tree package, never persisted.
package models

import id "clearcheck/pkg/domain"

// Level of a node in the geography hierarchy. The synthetic root is level
// 0; real records are level 1 (country) through 4 (subregion3).
const (
	LevelRoot = iota
	LevelCountry
	LevelSubregion1
	LevelSubregion2
	LevelSubregion3
)

// Location is one flat record from the feed. ParentID is empty for
// countries; an unresolvable ParentID is tolerated, not rejected (the tree
// attaches such nodes to the synthetic root).
type Location struct {
	ID       id.LocationID `json:"id"`
	Name     string        `json:"name"`
	ParentID id.LocationID `json:"parentId,omitempty"`
	Code2    string        `json:"code2,omitempty"`
	Code3    string        `json:"code3,omitempty"`

	Subregion1 string `json:"subregion1,omitempty"`
	Subregion2 string `json:"subregion2,omitempty"`
	Subregion3 string `json:"subregion3,omitempty"`
}
