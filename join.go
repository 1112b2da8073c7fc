// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// joinBDDs combines b1 and b2 into a single BDD whose paths are exactly
// the concatenation of a path through b1 with a path through b2, i.e.
// the conjunction of both constraints (§4.2.4). This is grounded on
// crush::soc::bdd::Bdd::join_bdds and merge_sink_source: rather than a
// synchronized-product traversal over both diagrams' levels at once,
// the two level sequences are concatenated and every edge in b1 that
// used to reach the sink (b1 satisfied) is redirected to b2's source
// instead (b1 satisfied only continues the search into b2). b2's own
// sink becomes the combined sink unchanged, since sinkID is a fixed
// sentinel rather than an arena-local identifier.
//
// b2 must have a single source node, which every BDD does by
// construction (§3's Node: "a unique root"). The result collapses to
// Inconsistency when no path survives cleanup.
func joinBDDs(id int, b1, b2 *bdd) (*bdd, error) {
	if b2.depth() == 0 {
		return nil, malformed("bdd %d: cannot join against an empty diagram", b2.id)
	}
	if b2.levels[0].len() != 1 {
		return nil, malformed("bdd %d: join requires a single source node at level 0", b2.id)
	}

	result := newBDD(id)
	result.levels = result.levels[:0]

	remap2 := make(map[nodeID]nodeID)
	remap2[sinkID] = sinkID
	for _, lv := range b2.levels {
		for _, nid := range lv.ids() {
			if nid == sinkID {
				continue
			}
			remap2[nid] = result.alloc()
		}
	}
	b2Levels := make([]*level, len(b2.levels))
	for li, lv := range b2.levels {
		newLv := newLevel(lv.lhs)
		for _, nid := range lv.ids() {
			n := lv.get0(nid)
			newLv.add(remap2[nid], node{low: remap2Edge(remap2, n.low), high: remap2Edge(remap2, n.high)})
		}
		b2Levels[li] = newLv
	}
	newRootID := remap2[b2.levels[0].ids()[0]]

	remap1 := make(map[nodeID]nodeID)
	for _, lv := range b1.levels[:b1.depth()] {
		for _, nid := range lv.ids() {
			remap1[nid] = result.alloc()
		}
	}
	b1Levels := make([]*level, b1.depth())
	for li, lv := range b1.levels[:b1.depth()] {
		newLv := newLevel(lv.lhs)
		for _, nid := range lv.ids() {
			n := lv.get0(nid)
			newLv.add(remap1[nid], node{
				low:  fuseEdge(remap1, newRootID, n.low),
				high: fuseEdge(remap1, newRootID, n.high),
			})
		}
		b1Levels[li] = newLv
	}

	result.levels = append(b1Levels, b2Levels...)

	if result.cleanup() == cleanupInconsistent {
		return nil, inconsistent(id, "joining bdd %d and bdd %d leaves no satisfying path", b1.id, b2.id)
	}
	if err := result.checkLHSDistinct(); err != nil {
		return nil, wrap(err, "joining bdd %d and bdd %d produced a level lhs collision", b1.id, b2.id)
	}
	return result, nil
}

// remap2Edge translates one of b2's own edges into the combined arena.
// An absent branch (noEdge) stays absent.
func remap2Edge(remap map[nodeID]nodeID, target nodeID) nodeID {
	if target == noEdge {
		return noEdge
	}
	return remap[target]
}

// fuseEdge translates one of b1's edges into the combined arena,
// redirecting a reference to the real sink (b1's own satisfaction) to
// b2's relocated source instead.
func fuseEdge(remap map[nodeID]nodeID, newRootID, target nodeID) nodeID {
	switch target {
	case noEdge:
		return noEdge
	case sinkID:
		return newRootID
	default:
		return remap[target]
	}
}
