// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// swap exchanges the lhs of the two adjacent non-terminal levels i and
// i+1 while preserving the BDD's path semantics (§4.2.1). Node
// identifiers at level i are kept (only their edges are rewired); level
// i+1 is rebuilt from scratch behind a canonicalization table keyed by
// the successor pair each new node represents, mirroring
// crush::soc::bdd::Bdd::swap.
//
// swap only ever looks at a child's immediate neighbor level, so it
// relies on buildBDD having already normalized away every edge that
// jumps past level i+1 (pointing directly at a node two or more levels
// deeper, or at the sink while i+1 is not the last real level); resolve
// below falls back to disconnecting such an edge rather than preserving
// it, which would silently lose the sub-diagram it led to, but by
// construction every *bdd reaching this method came from buildBDD or
// joinBDDs, both of which only ever hand it adjacent edges.
func (b *bdd) swap(i int) error {
	if i < 0 || i+1 >= b.depth() {
		return malformed("bdd %d: cannot swap levels %d and %d, both must be real levels", b.id, i, i+1)
	}

	above := b.levels[i]
	below := b.levels[i+1]

	known := make(map[pair]nodeID, below.len()*2)
	newBelow := newLevel(above.lhs)

	resolve := func(child nodeID) pair {
		if child == noEdge {
			return pair{noEdge, noEdge}
		}
		n, ok := below.get(child)
		if !ok {
			return pair{noEdge, noEdge}
		}
		return pair{n.low, n.high}
	}

	canon := func(p pair) nodeID {
		if p.low == noEdge && p.high == noEdge {
			return noEdge
		}
		if id, ok := known[p]; ok {
			return id
		}
		id := b.alloc()
		known[p] = id
		newBelow.add(id, node{low: p.low, high: p.high})
		return id
	}

	for _, id := range above.ids() {
		n := above.get0(id)
		e0 := resolve(n.low)
		e1 := resolve(n.high)
		// After the swap, level i decides the old level i+1's lhs first:
		// its low branch must lead to the grandchildren reached with
		// that lhs = 0 (e0.low under the old low edge, e1.low under the
		// old high edge), and likewise for its high branch.
		above.nodes[id] = node{low: canon(pair{e0.low, e1.low}), high: canon(pair{e0.high, e1.high})}
	}

	for _, id := range below.ids() {
		b.release(id)
	}

	above.lhs = below.lhs
	b.levels[i+1] = newBelow

	if b.cleanup() == cleanupInconsistent {
		return inconsistent(b.id, "swapping levels %d and %d collapsed the root", i, i+1)
	}
	return nil
}

// get0 is a convenience that panics if id is not present; its callers
// (swap, absorb, drop, join) only ever pass ids drawn from the level's
// own ids(), so this
// indicates an invariant violation rather than a caller mistake.
func (lv *level) get0(id nodeID) node {
	n, ok := lv.get(id)
	if !ok {
		panicInvariant(-1, -1, "swap", "node %d missing from its own level", id)
	}
	return n
}
