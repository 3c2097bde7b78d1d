package tree

import (
	"testing"

	"github.com/stretchr/testify/suite"

	locmodels "clearcheck/internal/location/models"
	mapmodels "clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

type TreeSuite struct {
	suite.Suite
}

func TestTreeSuite(t *testing.T) {
	suite.Run(t, new(TreeSuite))
}

func (s *TreeSuite) flatUS() []locmodels.Location {
	return []locmodels.Location{
		{ID: "us", Name: "United States"},
		{ID: "us-ca", Name: "California", ParentID: "us"},
		{ID: "us-ny", Name: "New York", ParentID: "us"},
		{ID: "us-ca-la", Name: "Los Angeles County", ParentID: "us-ca"},
	}
}

func (s *TreeSuite) TestBuild() {
	s.Run("synthetic root with sorted countries", func() {
		flat := append(s.flatUS(), locmodels.Location{ID: "ca", Name: "Canada"})
		t := Build(flat, mapmodels.Set{}, mapmodels.AvailabilityMap{})

		root := t.Node(Root)
		s.Equal(id.RootLocationID, root.ID)
		s.Equal(locmodels.LevelRoot, root.Level)
		s.Equal(NoParent, root.Parent)

		s.Require().Len(root.Children, 2)
		s.Equal("Canada", t.Node(root.Children[0]).Name)
		s.Equal("United States", t.Node(root.Children[1]).Name)
	})

	s.Run("levels follow the parent chain", func() {
		t := Build(s.flatUS(), mapmodels.Set{}, mapmodels.AvailabilityMap{})

		us, ok := t.Lookup("us")
		s.Require().True(ok)
		s.Equal(locmodels.LevelCountry, t.Node(us).Level)

		ca, ok := t.Lookup("us-ca")
		s.Require().True(ok)
		s.Equal(locmodels.LevelSubregion1, t.Node(ca).Level)

		la, ok := t.Lookup("us-ca-la")
		s.Require().True(ok)
		s.Equal(locmodels.LevelSubregion2, t.Node(la).Level)
		s.Equal(ca, t.Node(la).Parent)
	})

	s.Run("subregions keep discovery order", func() {
		t := Build(s.flatUS(), mapmodels.Set{}, mapmodels.AvailabilityMap{})
		us, _ := t.Lookup("us")
		children := t.Node(us).Children
		s.Require().Len(children, 2)
		s.Equal(id.LocationID("us-ca"), t.Node(children[0]).ID)
		s.Equal(id.LocationID("us-ny"), t.Node(children[1]).ID)
	})

	s.Run("orphaned parentId attaches to root silently", func() {
		flat := append(s.flatUS(), locmodels.Location{ID: "stray", Name: "Stray", ParentID: "nope"})
		t := Build(flat, mapmodels.Set{}, mapmodels.AvailabilityMap{})

		stray, ok := t.Lookup("stray")
		s.Require().True(ok)
		s.Equal(Root, t.Node(stray).Parent)
		s.Equal(locmodels.LevelCountry, t.Node(stray).Level)
		s.Equal(1, t.OrphanCount)
	})

	s.Run("looping parentId chain degrades to an orphan", func() {
		flat := []locmodels.Location{
			{ID: "aa", Name: "Alpha", ParentID: "bb"},
			{ID: "bb", Name: "Beta", ParentID: "aa"},
			{ID: "aa-1", Name: "Alpha Sub", ParentID: "aa"},
		}
		t := Build(flat, mapmodels.Set{}, mapmodels.AvailabilityMap{})

		s.Equal(1, t.OrphanCount, "one node per loop re-attaches to the root")
		s.Equal(4, t.Len())

		// Every node hangs off the root again, so a full expansion covers
		// the whole arena and levels follow the repaired chain.
		expanded := map[id.LocationID]bool{
			id.RootLocationID: true, "aa": true, "bb": true, "aa-1": true,
		}
		s.Len(t.Flatten(expanded), 4)
		for _, locID := range []id.LocationID{"aa", "bb", "aa-1"} {
			idx, ok := t.Lookup(locID)
			s.Require().True(ok)
			n := t.Node(idx)
			s.Equal(t.Node(n.Parent).Level+1, n.Level)
		}
	})

	s.Run("self-referencing parentId attaches to root", func() {
		flat := []locmodels.Location{{ID: "self", Name: "Self", ParentID: "self"}}
		t := Build(flat, mapmodels.Set{}, mapmodels.AvailabilityMap{})

		idx, ok := t.Lookup("self")
		s.Require().True(ok)
		s.Equal(Root, t.Node(idx).Parent)
		s.Equal(locmodels.LevelCountry, t.Node(idx).Level)
		s.Equal(1, t.OrphanCount)
	})

	s.Run("availability defaults true, mappings default false", func() {
		avail := mapmodels.AvailabilityMap{"us-ny": false}
		maps := mapmodels.Set{}
		maps.Set("us-ca", "req-ssn", true)

		t := Build(s.flatUS(), maps, avail)

		ca, _ := t.Lookup("us-ca")
		ny, _ := t.Lookup("us-ny")
		s.True(t.Node(ca).Available)
		s.False(t.Node(ny).Available)
		s.True(t.Node(ca).Mapped["req-ssn"])
		s.False(t.Node(ny).Mapped["req-ssn"])
	})
}

func (s *TreeSuite) TestFlatten() {
	t := Build(s.flatUS(), mapmodels.Set{}, mapmodels.AvailabilityMap{})

	s.Run("collapsed tree emits only the root", func() {
		out := t.Flatten(map[id.LocationID]bool{})
		s.Require().Len(out, 1)
		s.Equal(Root, out[0])
	})

	s.Run("expansion gates children per node", func() {
		out := t.Flatten(map[id.LocationID]bool{
			id.RootLocationID: true,
			"us":              true,
		})
		var ids []id.LocationID
		for _, idx := range out {
			ids = append(ids, t.Node(idx).ID)
		}
		// us-ca is not expanded, so us-ca-la stays hidden.
		s.Equal([]id.LocationID{id.RootLocationID, "us", "us-ca", "us-ny"}, ids)
	})
}

func (s *TreeSuite) TestOverlays() {
	s.Run("availability overlay writes every node explicitly", func() {
		t := Build(s.flatUS(), mapmodels.Set{}, mapmodels.AvailabilityMap{})
		ny, _ := t.Lookup("us-ny")
		t.Node(ny).Available = false

		overlay := t.AvailabilityOverlay()
		s.Len(overlay, t.Len())
		s.False(overlay.Available("us-ny"))
		s.True(overlay.Available("us-ca"))
	})

	s.Run("mapping overlay round-trips through build", func() {
		t := Build(s.flatUS(), mapmodels.Set{}, mapmodels.AvailabilityMap{})
		ca, _ := t.Lookup("us-ca")
		t.Node(ca).Mapped["req-dob"] = true

		rebuilt := Build(s.flatUS(), t.MappingOverlay("req-dob"), mapmodels.AvailabilityMap{})
		ca2, _ := rebuilt.Lookup("us-ca")
		ny2, _ := rebuilt.Lookup("us-ny")
		s.True(rebuilt.Node(ca2).Mapped["req-dob"])
		s.False(rebuilt.Node(ny2).Mapped["req-dob"])
	})
}
