// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import "github.com/crhslab/crhs/gf2"

// level is one layer of a BDD: a linear combination lhs and the nodes
// that live at that depth. order records insertion order so that
// iteration over a level's nodes is deterministic (§9 "Nondeterministic
// hash-map iteration"), independent of Go's randomized map order.
type level struct {
	lhs   gf2.LC
	order []nodeID
	nodes map[nodeID]node
}

func newLevel(lhs gf2.LC) *level {
	return &level{lhs: lhs, nodes: make(map[nodeID]node)}
}

// get returns the node stored at id and whether it exists.
func (lv *level) get(id nodeID) (node, bool) {
	n, ok := lv.nodes[id]
	return n, ok
}

// add inserts a new node at id with the given successors, recording
// insertion order. Overwriting an existing id does not change its
// position in order.
func (lv *level) add(id nodeID, n node) {
	if _, exists := lv.nodes[id]; !exists {
		lv.order = append(lv.order, id)
	}
	lv.nodes[id] = n
}

// remove deletes the node at id, if present, from both the membership
// map and the insertion-order list.
func (lv *level) remove(id nodeID) {
	if _, ok := lv.nodes[id]; !ok {
		return
	}
	delete(lv.nodes, id)
	for i, o := range lv.order {
		if o == id {
			lv.order = append(lv.order[:i], lv.order[i+1:]...)
			break
		}
	}
}

// ids returns the node identifiers of lv in deterministic insertion
// order.
func (lv *level) ids() []nodeID {
	return lv.order
}

// len reports the number of nodes at lv.
func (lv *level) len() int {
	return len(lv.nodes)
}

// replace discards lv's current nodes and installs newOrder/newNodes in
// their place.
func (lv *level) replace(newOrder []nodeID, newNodes map[nodeID]node) {
	lv.order = newOrder
	lv.nodes = newNodes
}

// outgoingEdgeShape scans lv's nodes for the presence of a live low edge
// and a live high edge, short-circuiting as soon as both have been
// observed. A level ready for absorption has exactly one of the two: if
// every node only ever uses its low (respectively high) edge, the
// level's equation is forced to a single value by the structure already
// built above it, and the level can be removed by absorption.
func (lv *level) outgoingEdgeShape() (hasLow, hasHigh bool) {
	for _, id := range lv.order {
		n := lv.nodes[id]
		if !hasLow && n.low != noEdge {
			hasLow = true
		}
		if !hasHigh && n.high != noEdge {
			hasHigh = true
		}
		if hasLow && hasHigh {
			break
		}
	}
	return
}

// flipEdges swaps the low and high successor of every node at lv,
// matching the edge-parity flip used by fix when an asserted value
// inverts a level's meaning.
func (lv *level) flipEdges() {
	for id, n := range lv.nodes {
		lv.nodes[id] = node{low: n.high, high: n.low}
	}
}

// removeOrphans deletes every node at lv whose id is not present in
// parents, releasing its id via release, then inserts the surviving
// nodes' own successors into parents so that the level below lv can
// continue the same top-down sweep. It reports whether anything was removed.
func (lv *level) removeOrphans(parents map[nodeID]bool, release func(nodeID)) bool {
	removed := false
	for _, id := range append([]nodeID(nil), lv.order...) {
		if parents[id] {
			delete(parents, id)
			n := lv.nodes[id]
			if n.low != noEdge {
				parents[n.low] = true
			}
			if n.high != noEdge {
				parents[n.high] = true
			}
		} else {
			lv.remove(id)
			release(id)
			removed = true
		}
	}
	return removed
}

// popSource drains lv's single node and returns it; used only when
// absorbing the root level of a BDD, where by construction exactly one
// node (the root) can remain.
func (lv *level) popSource() (nodeID, node) {
	if len(lv.order) != 1 {
		panic("popSource: source level does not have exactly one node")
	}
	id := lv.order[0]
	n := lv.nodes[id]
	lv.order = nil
	lv.nodes = make(map[nodeID]node)
	return id, n
}
