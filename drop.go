// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// drop eliminates variable x from b entirely (§4.2.5): every remaining
// level's lhs is free of x, and the diagram's solution set becomes the
// projection of the original onto the other variables. It is a no-op
// when x does not appear in b at all.
//
// Precondition: x appears in at most one of b's levels. drop does not
// gather several x-carrying levels into one: when x appears in more
// than one level it returns MalformedInputError and leaves b
// unchanged. Running linear absorption to echelon (§4.2.3) beforehand
// does not by itself guarantee the precondition, since an independent
// family of lhs'es can still mention x in several levels.
//
// Algorithm, grounded on crush::soc::bdd::Bdd::drop: swap the lone
// x-carrying level down until it sits directly above the terminal
// level, redirect every live edge of the level now above it straight
// to the sink (reaching this point at all means some value of x made
// the rest of the diagram satisfiable, which is all a projection onto
// the other variables can say), then splice the level out and clean up.
func (b *bdd) drop(x int) error {
	found := -1
	count := 0
	for i := 0; i < b.depth(); i++ {
		if b.levels[i].lhs.Has(x) {
			found = i
			count++
		}
	}
	if count == 0 {
		return nil
	}
	if count > 1 {
		return malformed("bdd %d: variable %d appears in %d levels; run linear absorption to echelon before dropping it", b.id, x, count)
	}

	li := found
	for li != b.depth()-1 {
		if err := b.swap(li); err != nil {
			return err
		}
		li++
	}

	if li != 0 {
		above := b.levels[li-1]
		for _, id := range above.ids() {
			n := above.get0(id)
			if n.low != noEdge {
				n.low = sinkID
			}
			if n.high != noEdge {
				n.high = sinkID
			}
			above.nodes[id] = n
		}
	}

	b.levels = append(b.levels[:li], b.levels[li+1:]...)

	switch b.cleanup() {
	case cleanupInconsistent:
		return inconsistent(b.id, "dropping variable %d collapsed the root", x)
	default:
		return nil
	}
}
