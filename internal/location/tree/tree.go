// Package tree builds the hierarchical view of flat location records.
//
// The tree is a pure projection: it is rebuilt from the flat list and the
// configuration overlays whenever either changes, never mutated as a
// source of truth. Nodes live in a dense arena slice with parent/child
// relationships as indices, so traversal cost is explicit and there are no
// pointer cycles to manage.
package tree

import (
	"sort"

	locmodels "clearcheck/internal/location/models"
	mapmodels "clearcheck/internal/mapping/models"
	id "clearcheck/pkg/domain"
)

// NodeIndex addresses a node inside the arena. The synthetic root is
// always index 0.
type NodeIndex int

// NoParent marks the root's parent slot.
const NoParent NodeIndex = -1

// Root is the arena index of the synthetic "all locations" node.
const Root NodeIndex = 0

// Node is one tree node plus its configuration decoration. Available and
// Mapped reflect the overlays at build time; the cascade engine mutates
// them in place between rebuilds.
type Node struct {
	ID       id.LocationID
	Name     string
	Level    int
	Parent   NodeIndex
	Children []NodeIndex

	Available bool
	Mapped    map[id.RequirementID]bool
}

// Tree is the arena plus an ID index.
type Tree struct {
	nodes []Node
	byID  map[id.LocationID]NodeIndex

	// OrphanCount records how many records had an unresolvable parentId
	// and were attached to the root. Tolerated for partially-imported
	// data, surfaced so operators can see it.
	OrphanCount int
}

// Build constructs the tree from flat records and configuration overlays.
//
// Every record becomes exactly one node. Records whose parentId is absent
// or does not resolve become children of the synthetic root; unresolvable
// parents additionally count as orphans, and so do parent chains that loop
// back on themselves instead of reaching the root. Countries are sorted by
// name under the root, subregions keep feed discovery order. Build never
// fails, and the result is always a tree rooted at the synthetic root, so
// every walk over it terminates.
func Build(flat []locmodels.Location, mappings mapmodels.Set, availability mapmodels.AvailabilityMap) *Tree {
	t := &Tree{
		nodes: make([]Node, 0, len(flat)+1),
		byID:  make(map[id.LocationID]NodeIndex, len(flat)+1),
	}

	t.nodes = append(t.nodes, Node{
		ID:        id.RootLocationID,
		Name:      "All locations",
		Level:     locmodels.LevelRoot,
		Parent:    NoParent,
		Available: availability.Available(id.RootLocationID),
		Mapped:    mappedFlags(id.RootLocationID, mappings),
	})
	t.byID[id.RootLocationID] = Root

	for _, rec := range flat {
		idx := NodeIndex(len(t.nodes))
		t.nodes = append(t.nodes, Node{
			ID:        rec.ID,
			Name:      rec.Name,
			Parent:    NoParent,
			Available: availability.Available(rec.ID),
			Mapped:    mappedFlags(rec.ID, mappings),
		})
		t.byID[rec.ID] = idx
	}

	// Resolve candidate parents after all nodes exist so forward
	// references work. Absent parents attach to the root; unresolvable
	// ones do too and count as orphans.
	for i, rec := range flat {
		idx := NodeIndex(i + 1)
		parent := Root
		if !rec.ParentID.IsNil() {
			p, ok := t.byID[rec.ParentID]
			if ok {
				parent = p
			} else {
				t.OrphanCount++
			}
		}
		t.nodes[idx].Parent = parent
	}

	// Feeds can also loop (a.parentId=b, b.parentId=a). A chain that never
	// reaches the root degrades the same way an unresolvable parent does:
	// one node per loop re-attaches to the root as an orphan.
	t.breakCycles()

	// Wire children once the parent graph is a tree.
	for idx := NodeIndex(1); int(idx) < len(t.nodes); idx++ {
		p := t.nodes[idx].Parent
		t.nodes[p].Children = append(t.nodes[p].Children, idx)
	}

	// Levels follow the parent chain; children of the root are countries
	// regardless of where the feed intended them.
	t.assignLevels(Root)

	sort.SliceStable(t.nodes[Root].Children, func(a, b int) bool {
		ca, cb := t.nodes[Root].Children[a], t.nodes[Root].Children[b]
		return t.nodes[ca].Name < t.nodes[cb].Name
	})

	return t
}

func mappedFlags(loc id.LocationID, mappings mapmodels.Set) map[id.RequirementID]bool {
	flags := make(map[id.RequirementID]bool)
	for k, v := range mappings {
		kl, kr, ok := k.Split()
		if ok && kl == loc {
			flags[kr] = v
		}
	}
	return flags
}

const (
	chainUnknown uint8 = iota
	chainWalking
	chainRooted
)

// breakCycles re-parents one node per parent loop onto the root, counting
// it as an orphan. Afterwards every parent chain reaches the root.
func (t *Tree) breakCycles() {
	state := make([]uint8, len(t.nodes))
	state[Root] = chainRooted

	var resolve func(idx NodeIndex)
	resolve = func(idx NodeIndex) {
		if state[idx] != chainUnknown {
			return
		}
		state[idx] = chainWalking
		p := t.nodes[idx].Parent
		if state[p] == chainWalking {
			// idx closes a loop; degrade it to an orphan under the root.
			t.nodes[idx].Parent = Root
			t.OrphanCount++
		} else {
			resolve(p)
		}
		state[idx] = chainRooted
	}
	for idx := NodeIndex(1); int(idx) < len(t.nodes); idx++ {
		resolve(idx)
	}
}

func (t *Tree) assignLevels(idx NodeIndex) {
	for _, c := range t.nodes[idx].Children {
		t.nodes[c].Level = t.nodes[idx].Level + 1
		t.assignLevels(c)
	}
}

// Node returns the node at idx. The pointer stays valid for the lifetime
// of the tree; callers may mutate decoration fields through it.
func (t *Tree) Node(idx NodeIndex) *Node {
	return &t.nodes[idx]
}

// Lookup resolves a location ID to its arena index.
func (t *Tree) Lookup(locationID id.LocationID) (NodeIndex, bool) {
	idx, ok := t.byID[locationID]
	return idx, ok
}

// Len returns the node count including the synthetic root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Flatten returns nodes in depth-first pre-order starting at the root. A
// node's children are emitted only when its ID is in expanded. Display
// concern only; the cascade engine always traverses the full tree.
func (t *Tree) Flatten(expanded map[id.LocationID]bool) []NodeIndex {
	out := make([]NodeIndex, 0, len(t.nodes))
	var walk func(NodeIndex)
	walk = func(idx NodeIndex) {
		out = append(out, idx)
		if !expanded[t.nodes[idx].ID] {
			return
		}
		for _, c := range t.nodes[idx].Children {
			walk(c)
		}
	}
	walk(Root)
	return out
}

// AvailabilityOverlay exports the current availability flags as a flat
// map for persistence. Every node is written explicitly so a cascade that
// turned nodes off survives the absent-means-true default.
func (t *Tree) AvailabilityOverlay() mapmodels.AvailabilityMap {
	overlay := make(mapmodels.AvailabilityMap, len(t.nodes))
	for _, n := range t.nodes {
		overlay[n.ID] = n.Available
	}
	return overlay
}

// MappingOverlay exports the current flags for one requirement.
func (t *Tree) MappingOverlay(requirementID id.RequirementID) mapmodels.Set {
	overlay := make(mapmodels.Set, len(t.nodes))
	for _, n := range t.nodes {
		overlay.Set(n.ID, requirementID, n.Mapped[requirementID])
	}
	return overlay
}
