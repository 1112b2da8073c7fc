// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// fix asserts x = val and restricts b's solution set accordingly
// (§4.2.6). It substitutes x out of every level whose lhs contains it:
// writing the level's original equation as lhs = e (e the edge taken),
// substituting x = val turns it into lhs' = e XOR val, where lhs' is
// lhs with x removed.
//
//   - When val is false, the canonical edge convention (low edge means
//     lhs'=0, high edge means lhs'=1) is unchanged; the level keeps its
//     node structure and only its lhs shrinks.
//   - When val is true, the convention inverts (low now means lhs'=1),
//     so the level's edges are flipped to restore the canonical
//     reading.
//   - When lhs' becomes the zero combination, the level's equation
//     collapses to a constant ("0 = e XOR val"): edge val is always
//     consistent and the opposite edge is never taken, exactly the
//     precondition absorb already knows how to exploit, so the level
//     is absorbed along edge val rather than handled by hand. If no
//     node actually has a live edge val, absorb's own emptiness check
//     reports Inconsistency, matching §4.2.6's "lhs = 0 = 1" case.
//
// Fixing a variable that does not appear anywhere in b is a no-op.
func (b *bdd) fix(x int, val bool) error {
	for {
		i := -1
		for j := 0; j < b.depth(); j++ {
			if b.levels[j].lhs.Has(x) {
				i = j
				break
			}
		}
		if i < 0 {
			return nil
		}

		lv := b.levels[i]
		residual := lv.lhs.Clone()
		residual.Toggle(x)

		if residual.IsZero() {
			if err := b.absorb(i, val); err != nil {
				return err
			}
			continue
		}

		if val {
			lv.flipEdges()
		}
		lv.lhs = residual
	}
}
