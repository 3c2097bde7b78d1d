// Package cascade keeps a boolean flag consistent across a location tree
// when one node is toggled.
//
// Rules:
//   - Downward, always: toggling a node is a bulk action over its subtree.
//   - Upward, only on disable: a parent cannot count as fully on once any
//     part of it is explicitly off. This holds even when the node's
//     siblings remain enabled; one gap disables the whole chain of
//     ancestors.
//   - Never upward on enable: enabling a subregion does not re-enable its
//     country. Enabling is an explicit, bottom-up confirmation.
//
// The engine is purely structural: it never fails and terminates in
// O(subtree size + ancestor depth). Persisting the result is the caller's
// job.
package cascade

import (
	"clearcheck/internal/location/tree"
	id "clearcheck/pkg/domain"
)

// SetAvailability toggles a node's availability flag and propagates.
// Returns the IDs of nodes whose value actually changed, or nil when
// nodeID is not in the tree.
func SetAvailability(t *tree.Tree, nodeID id.LocationID, value bool) []id.LocationID {
	return setFlag(t, nodeID, value,
		func(n *tree.Node) bool { return n.Available },
		func(n *tree.Node, v bool) { n.Available = v },
	)
}

// SetMapping toggles one requirement's mapping flag on a node and
// propagates.
func SetMapping(t *tree.Tree, nodeID id.LocationID, requirementID id.RequirementID, value bool) []id.LocationID {
	return setFlag(t, nodeID, value,
		func(n *tree.Node) bool { return n.Mapped[requirementID] },
		func(n *tree.Node, v bool) {
			if n.Mapped == nil {
				n.Mapped = make(map[id.RequirementID]bool)
			}
			n.Mapped[requirementID] = v
		},
	)
}

func setFlag(t *tree.Tree, nodeID id.LocationID, value bool, get func(*tree.Node) bool, set func(*tree.Node, bool)) []id.LocationID {
	start, ok := t.Lookup(nodeID)
	if !ok {
		return nil
	}

	var changed []id.LocationID
	apply := func(idx tree.NodeIndex) {
		n := t.Node(idx)
		if get(n) != value {
			set(n, value)
			changed = append(changed, n.ID)
		}
	}

	// Downward over the whole subtree, including the toggled node.
	stack := []tree.NodeIndex{start}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		apply(idx)
		stack = append(stack, t.Node(idx).Children...)
	}

	// Upward only on disable, through the synthetic root.
	if !value {
		for p := t.Node(start).Parent; p != tree.NoParent; p = t.Node(p).Parent {
			apply(p)
		}
	}

	return changed
}
