package cascade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	locmodels "clearcheck/internal/location/models"
	"clearcheck/internal/location/tree"
	mapmodels "clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

type CascadeSuite struct {
	suite.Suite
	tree *tree.Tree
}

func TestCascadeSuite(t *testing.T) {
	suite.Run(t, new(CascadeSuite))
}

// root → {US} → {CA → {LA, SF}, NY}
func (s *CascadeSuite) SetupTest() {
	flat := []locmodels.Location{
		{ID: "us", Name: "United States"},
		{ID: "us-ca", Name: "California", ParentID: "us"},
		{ID: "us-ny", Name: "New York", ParentID: "us"},
		{ID: "us-ca-la", Name: "Los Angeles", ParentID: "us-ca"},
		{ID: "us-ca-sf", Name: "San Francisco", ParentID: "us-ca"},
	}
	s.tree = tree.Build(flat, mapmodels.Set{}, mapmodels.AvailabilityMap{})
}

// Each subtest starts from a fresh all-enabled tree.
func (s *CascadeSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *CascadeSuite) available(locationID id.LocationID) bool {
	idx, ok := s.tree.Lookup(locationID)
	s.Require().True(ok)
	return s.tree.Node(idx).Available
}

func (s *CascadeSuite) mapped(locationID id.LocationID, req id.RequirementID) bool {
	idx, ok := s.tree.Lookup(locationID)
	s.Require().True(ok)
	return s.tree.Node(idx).Mapped[req]
}

// TestDownwardPropagation covers the rule that a toggle is a bulk action
// over the whole subtree, for both values.
func (s *CascadeSuite) TestDownwardPropagation() {
	s.Run("disabling a country disables every descendant", func() {
		SetAvailability(s.tree, "us", false)
		for _, loc := range []id.LocationID{"us", "us-ca", "us-ny", "us-ca-la", "us-ca-sf"} {
			s.False(s.available(loc), "expected %s disabled", loc)
		}
	})

	s.Run("enabling a subtree re-enables every descendant", func() {
		SetAvailability(s.tree, "us", false)
		SetAvailability(s.tree, "us-ca", true)
		for _, loc := range []id.LocationID{"us-ca", "us-ca-la", "us-ca-sf"} {
			s.True(s.available(loc), "expected %s enabled", loc)
		}
	})
}

// TestUpwardPropagation covers the disable-only upward rule, including the
// deliberate over-propagation when siblings remain enabled.
func (s *CascadeSuite) TestUpwardPropagation() {
	s.Run("disable clears every ancestor up to the root", func() {
		SetAvailability(s.tree, "us-ca-la", false)
		s.False(s.available("us-ca"))
		s.False(s.available("us"))
		s.False(s.available(id.RootLocationID))
	})

	s.Run("ancestors are cleared even when siblings stay enabled", func() {
		// One gap disables the whole chain. This is the observed behavior
		// of the configuration surface; do not "fix" it to an
		// all-children-disabled rule.
		SetAvailability(s.tree, "us-ca", false)
		s.True(s.available("us-ny"))
		s.False(s.available("us"))
		s.False(s.available(id.RootLocationID))
	})

	s.Run("enable never propagates upward", func() {
		SetAvailability(s.tree, "us", false)
		SetAvailability(s.tree, "us-ca-la", true)
		s.True(s.available("us-ca-la"))
		s.False(s.available("us-ca"), "enable must not re-enable the parent")
		s.False(s.available("us"))
		s.False(s.available(id.RootLocationID))
	})
}

func (s *CascadeSuite) TestEdgeCases() {
	s.Run("root toggle only cascades down", func() {
		changed := SetAvailability(s.tree, id.RootLocationID, false)
		s.Len(changed, s.tree.Len())
		for _, loc := range []id.LocationID{"us", "us-ny", "us-ca-sf"} {
			s.False(s.available(loc))
		}
	})

	s.Run("leaf disable touches only the leaf and its ancestors", func() {
		changed := SetAvailability(s.tree, "us-ny", false)
		s.ElementsMatch([]id.LocationID{"us-ny", "us", id.RootLocationID}, changed)
		s.True(s.available("us-ca"))
	})

	s.Run("unknown node is a no-op", func() {
		s.Nil(SetAvailability(s.tree, "atlantis", false))
	})

	s.Run("idempotent toggle reports no changes", func() {
		SetAvailability(s.tree, "us-ny", false)
		s.Empty(SetAvailability(s.tree, "us-ny", false))
	})
}

// TestLoopingFeed verifies a toggle returns on a tree built from records
// whose parent chain loops; the build repairs the loop into an orphan, so
// the walk stays bounded.
func (s *CascadeSuite) TestLoopingFeed() {
	tr := tree.Build([]locmodels.Location{
		{ID: "aa", Name: "Alpha", ParentID: "bb"},
		{ID: "bb", Name: "Beta", ParentID: "aa"},
	}, mapmodels.Set{}, mapmodels.AvailabilityMap{})

	done := make(chan []id.LocationID, 1)
	go func() { done <- SetAvailability(tr, "aa", false) }()

	select {
	case changed := <-done:
		s.NotEmpty(changed)
	case <-time.After(2 * time.Second):
		s.FailNow("toggle did not return on a tree built from looping parent records")
	}

	for _, locID := range []id.LocationID{"aa", "bb", id.RootLocationID} {
		idx, ok := tr.Lookup(locID)
		s.Require().True(ok)
		s.False(tr.Node(idx).Available, "expected %s disabled", locID)
	}
}

// TestMappingFlag verifies the same engine drives per-requirement mapping
// flags, which default to off.
func (s *CascadeSuite) TestMappingFlag() {
	const req = id.RequirementID("req-ssn")

	s.Run("enabling a country maps the whole subtree", func() {
		SetMapping(s.tree, "us", req, true)
		for _, loc := range []id.LocationID{"us", "us-ca", "us-ny", "us-ca-la"} {
			s.True(s.mapped(loc, req))
		}
		s.False(s.mapped(id.RootLocationID, req), "enable must not reach the root")
	})

	s.Run("disabling a subregion unmaps its ancestors", func() {
		SetMapping(s.tree, "us", req, true)
		SetMapping(s.tree, "us-ca-la", req, false)
		s.False(s.mapped("us-ca", req))
		s.False(s.mapped("us", req))
		s.True(s.mapped("us-ny", req), "siblings keep their mapping")
	})
}
