// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// cleanupOutcome classifies the state cleanup leaves a BDD in.
type cleanupOutcome int

const (
	// cleanupOK: the BDD still has a real root and at least one real
	// level; normal case.
	cleanupOK cleanupOutcome = iota
	// cleanupAlwaysTrue: the calling mutator spliced away the BDD's
	// last real level, so the root is now the sink itself. Every
	// remaining variable is unconstrained by this BDD; §3's Lifecycle
	// has the SoC remove it rather than treat it as an error.
	cleanupAlwaysTrue
	// cleanupInconsistent: the root level still exists as a slot but
	// dead-end propagation emptied it of nodes — no path survives at
	// all, matching §8's boundary behavior "a BDD whose root equals
	// its sink (empty diagram) marks the SoC inconsistent" for the
	// case where that emptiness was not the mutator's own intent.
	cleanupInconsistent
)

// cleanup restores the reducedness and reachability invariants after a
// mutator has rewired edges or spliced levels in place: it first
// propagates dead ends bottom-up (a node whose low and high edges have
// both collapsed to noEdge is itself removed, which can cascade to its
// own parents), then sweeps top-down removing every node no longer
// reachable from the root, and finally classifies the result.
//
// Every public mutator that rewires edges or removes a level calls
// cleanup as its last step, so that each one is independently
// invariant-preserving even though the lower-level rewiring primitives
// it is built from (ported from the source this engine was distilled
// from) tolerate transient dead and unreachable nodes between steps of
// a longer composite operation.
func (b *bdd) cleanup() cleanupOutcome {
	dead := make(map[nodeID]bool)
	for li := b.depth() - 1; li >= 0; li-- {
		lv := b.levels[li]
		for _, id := range append([]nodeID(nil), lv.ids()...) {
			n := lv.nodes[id]
			if n.low != sinkID && n.low != noEdge && dead[n.low] {
				n.low = noEdge
			}
			if n.high != sinkID && n.high != noEdge && dead[n.high] {
				n.high = noEdge
			}
			lv.nodes[id] = n
			if n.low == noEdge && n.high == noEdge {
				dead[id] = true
				lv.remove(id)
				b.release(id)
			}
		}
	}

	if b.depth() == 0 {
		return cleanupAlwaysTrue
	}
	if b.levels[0].len() == 0 {
		return cleanupInconsistent
	}

	parents := make(map[nodeID]bool, b.levels[0].len())
	for _, id := range b.levels[0].ids() {
		n := b.levels[0].nodes[id]
		if n.low != noEdge {
			parents[n.low] = true
		}
		if n.high != noEdge {
			parents[n.high] = true
		}
	}
	for li := 1; li < len(b.levels); li++ {
		b.levels[li].removeOrphans(parents, b.release)
	}
	return cleanupOK
}
