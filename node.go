// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// nodeID is an arena handle for a node inside one BDD. Identifiers are
// only unique within their owning BDD: unlike a pointer graph, an edge
// is a bare integer and carries no reference to which BDD it belongs
// to, so nodeIDs must never be compared across BDDs.
type nodeID int32

// sinkID is the reserved identifier of the unique sink of every BDD. It
// occupies the sole node of the BDD's terminal level (empty lhs, both
// edges absent) and is never allocated or freed like an ordinary node.
const sinkID nodeID = 0

// noEdge marks an absent branch: a node's edge that leads nowhere. It
// is how buildBDD stores a spec's 0 target (e.g. the dead branch of a
// level that forces its lhs to one value), and mutators also set it
// while rewiring; cleanup removes any node whose two edges are both
// noEdge.
const noEdge nodeID = -1

// node is a decision vertex: its low (0-edge) and high (1-edge)
// successors. A node's depth is determined by which level owns it, not
// by the node itself.
type node struct {
	low, high nodeID
}

// pair is the (low, high) successor pair used to canonicalize nodes
// within a level: two nodes sharing a pair are redundant and must be
// merged (reducedness invariant I1).
type pair struct {
	low, high nodeID
}
