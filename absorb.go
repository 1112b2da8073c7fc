// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import "github.com/crhslab/crhs/gf2"

// absorb removes level i, whose lhs is known to be forced to a single
// value by the structure already built above it: every node at level i
// uses only its low edge, or only its high edge (§4.2.2's "parity of the
// dependence" made structurally concrete, grounded on
// crush::soc::level::Level::check_outgoing_edges and
// crush::soc::bdd::Bdd::absorb). edge selects which branch is the
// consistent one. Parents of level i are redirected straight to the
// chosen grandchildren; cleanup then removes whatever becomes
// unreachable as a result.
func (b *bdd) absorb(i int, edge bool) error {
	if i < 0 || i >= b.depth() {
		return malformed("bdd %d: no such level %d to absorb", b.id, i)
	}
	if i == 0 {
		return b.absorbSource(edge)
	}

	above := b.levels[i-1]
	target := b.levels[i]

	redirect := func(child nodeID) nodeID {
		n, ok := target.get(child)
		if !ok {
			return child
		}
		if edge {
			return n.high
		}
		return n.low
	}

	for _, id := range above.ids() {
		n := above.get0(id)
		above.nodes[id] = node{low: redirect(n.low), high: redirect(n.high)}
	}

	for _, id := range target.ids() {
		b.release(id)
	}
	b.levels = append(b.levels[:i], b.levels[i+1:]...)

	if b.cleanup() == cleanupInconsistent {
		return inconsistent(b.id, "absorbing level %d collapsed the root", i)
	}
	return nil
}

// absorbSource handles the special case of absorbing the root level
// (level 0): there are no parents to redirect, so the chosen child of
// the sole root node becomes the new root of the shrunk BDD. An empty
// resulting BDD (the chosen child was itself absent) signals
// Inconsistency, mirroring crush's absorb_source, which panics on an
// empty new level; here that is a typed error instead of a panic, since
// Inconsistency is an expected, recoverable outcome rather than a bug.
func (b *bdd) absorbSource(edge bool) error {
	root := b.levels[0]
	_, n := root.popSource()
	child := n.low
	if edge {
		child = n.high
	}
	if child == noEdge {
		return inconsistent(b.id, "absorbing the source level leaves no consistent path")
	}
	b.levels = b.levels[1:]
	if child != sinkID {
		if _, ok := b.levels[0].get(child); !ok {
			panicInvariant(b.id, 0, "absorbSource", "chosen child %d not present at the new root level", child)
		}
	}
	if b.cleanup() == cleanupInconsistent {
		return inconsistent(b.id, "absorbing the source level collapsed the root")
	}
	return nil
}

// dependence computes whether target's lhs is a linear combination of
// the lhs'es of b's other non-terminal levels, using the echelon basis
// built from those other levels (§4.1's reduce/extend_basis). It returns
// ok=false when the lhs is independent (not absorbable by linear
// absorption).
func (b *bdd) dependence(target int) (ok bool) {
	var basis []gf2.LC
	for li, lv := range b.levels[:b.depth()] {
		if li == target {
			continue
		}
		basis, _, _ = gf2.ExtendBasis(basis, lv.lhs)
	}
	residual := gf2.Reduce(basis, b.levels[target].lhs)
	return residual.IsZero()
}

// absorbable reports whether level i can be absorbed right now: its
// outgoing edges are structurally forced to a single branch. It returns
// the edge to absorb along when it can.
func (lv *level) absorbable() (edge bool, ok bool) {
	hasLow, hasHigh := lv.outgoingEdgeShape()
	switch {
	case hasHigh && !hasLow:
		return true, true
	case hasLow && !hasHigh:
		return false, true
	default:
		return false, false
	}
}

// absorbToEchelon repeatedly swaps dependent levels past their
// neighbors and absorbs them once they become structurally absorbable,
// until the BDD's remaining level lhs'es form a linearly independent
// family (a basis), or the BDD collapses inconsistently. It returns the
// equations absorbed along the way (each absorbed level's lhs with the
// edge value it was forced to), grounded on
// crush::soc::bdd::Bdd::scan_absorb_lin_eq / System::scan_absorb_lin_eqs.
//
// The schedule (left as "a strategy decision" by §4.2.3) is: scan levels
// outer to inner; a level already structurally absorbable is absorbed
// immediately; a level that is linearly dependent on the others but not
// yet structurally absorbable is swapped one step deeper, so that the
// level previously below it — and whatever lhs it still needs to "see
// decided" along the path — moves above it instead. Pushed deep enough,
// every other level ends up above a genuinely dependent one and the
// structural condition must appear.
func (b *bdd) absorbToEchelon() ([]linEq, error) {
	var (
		basis    []gf2.LC
		absorbed []linEq
	)
	progressed := true
	for progressed {
		progressed = false
		for i := 0; i < b.depth(); i++ {
			lv := b.levels[i]
			if edge, ok := lv.absorbable(); ok {
				lhs := lv.lhs
				if err := b.absorb(i, edge); err != nil {
					return absorbed, err
				}
				basis, _, _ = gf2.ExtendBasis(basis, lhs)
				absorbed = append(absorbed, linEq{lhs: lhs, rhs: edge})
				progressed = true
				break
			}
			if i < b.depth()-1 && b.dependence(i) {
				if err := b.swap(i); err != nil {
					return absorbed, err
				}
				progressed = true
				break
			}
		}
	}
	return absorbed, nil
}
