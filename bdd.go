// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"fmt"

	"github.com/crhslab/crhs/gf2"
)

// bdd is an ordered sequence of levels with a unique root at levels[0]
// and a unique sink occupying the sole node of the terminal level,
// levels[len(levels)-1]. Node identifiers are allocated from a per-BDD
// arena with a free list, so that canonicalization within the same BDD
// can reuse slots instead of growing the arena unboundedly.
type bdd struct {
	id     int
	levels []*level
	nextID nodeID
	free   []nodeID
}

// newBDD creates an empty BDD consisting only of the terminal level
// (the sink, with empty lhs and no outgoing edges). It is not yet a
// valid BDD on its own (it has no root distinct from the sink); callers
// build a real BDD through buildBDD.
func newBDD(id int) *bdd {
	b := &bdd{id: id, nextID: 1}
	term := newLevel(gf2.LC{})
	term.add(sinkID, node{low: noEdge, high: noEdge})
	b.levels = append(b.levels, term)
	return b
}

// alloc reserves a fresh node identifier, reusing a freed slot when one
// is available, mirroring the teacher's arena free-list (hkernel.go's
// freepos/freenum) adapted to a per-BDD scope instead of a single
// global node table.
func (b *bdd) alloc() nodeID {
	if n := len(b.free); n > 0 {
		id := b.free[n-1]
		b.free = b.free[:n-1]
		return id
	}
	id := b.nextID
	b.nextID++
	return id
}

// release returns id to the free list. It must only be called for ids
// that are no longer referenced by any node in b.
func (b *bdd) release(id nodeID) {
	if id == sinkID {
		return
	}
	b.free = append(b.free, id)
}

// depth returns the number of non-terminal levels: the levels that
// carry a real lhs, excluding the sink's conceptual terminal level.
func (b *bdd) depth() int {
	return len(b.levels) - 1
}

// terminal returns the BDD's terminal level (the sink's level).
func (b *bdd) terminal() *level {
	return b.levels[len(b.levels)-1]
}

// nodeCount sums the number of nodes across every level, including the
// sink, used as the primary memory-budget signal (§9: measure node
// count, not bytes).
func (b *bdd) nodeCount() int {
	total := 0
	for _, lv := range b.levels {
		total += lv.len()
	}
	return total
}

// lhsAt returns the lhs of level i (0 is the root's level).
func (b *bdd) lhsAt(i int) gf2.LC {
	return b.levels[i].lhs
}

// lhsList returns every non-terminal level's lhs in top-to-bottom
// order: the per-BDD half of the system-wide "ordered list of level
// lhs'es" index (§3).
func (b *bdd) lhsList() []gf2.LC {
	res := make([]gf2.LC, b.depth())
	for i := 0; i < b.depth(); i++ {
		res[i] = b.levels[i].lhs
	}
	return res
}

// isEmptyDiagram reports whether b has collapsed to a root that is
// itself the sink (no real levels at all): the "always true" diagram
// whose removal spec §3's Lifecycle describes, distinct from an
// inconsistent (unsatisfiable) diagram.
func (b *bdd) isEmptyDiagram() bool {
	return b.depth() == 0
}

// checkReducedAndOrdered validates invariant I1 across every level: no
// node has identical children, and no two nodes on the same level share
// a (low, high) pair. Ordering is implicit in the levels slice by
// construction (edges always point strictly deeper, enforced at
// insertion time by buildBDD and by every mutator), so only the
// per-level reducedness is checked here.
func (b *bdd) checkReducedAndOrdered() error {
	for li, lv := range b.levels {
		seen := make(map[pair]nodeID, lv.len())
		for _, id := range lv.ids() {
			n := lv.nodes[id]
			if li != len(b.levels)-1 {
				if n.low == n.high && n.low != noEdge {
					return malformed("bdd %d level %d: node %d has identical children", b.id, li, id)
				}
			}
			p := pair{n.low, n.high}
			if other, dup := seen[p]; dup {
				return malformed("bdd %d level %d: nodes %d and %d share children (%d,%d)", b.id, li, other, id, n.low, n.high)
			}
			seen[p] = id
		}
	}
	return nil
}

// checkLHSDistinct validates invariant I2: no two levels of b carry the
// same lhs.
func (b *bdd) checkLHSDistinct() error {
	for i := 0; i < b.depth(); i++ {
		for j := i + 1; j < b.depth(); j++ {
			if b.levels[i].lhs.Equal(b.levels[j].lhs) {
				return malformed("bdd %d: levels %d and %d share lhs %s", b.id, i, j, b.levels[i].lhs)
			}
		}
	}
	return nil
}

func (b *bdd) String() string {
	return fmt.Sprintf("bdd(%d, %d levels, %d nodes)", b.id, b.depth(), b.nodeCount())
}
