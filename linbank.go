// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import "github.com/crhslab/crhs/gf2"

// linEq is a single solved linear equation over GF(2): lhs = rhs.
// Grounded on crush::soc::bdd::LinEq, the record absorption and fix
// leave behind once a variable's value is pinned down structurally and
// its level disappears from every BDD.
type linEq struct {
	lhs gf2.LC
	rhs bool
}

func newLinEqFromVar(x int, val bool) linEq {
	return linEq{lhs: gf2.NewLC(x), rhs: val}
}

// linBank accumulates the linear equations settled by fix and
// absorption across the whole System, keeping the accumulated family
// linearly independent by reducing every incoming equation against
// what it already holds, pivoting on each equation's largest variable
// id. Grounded on crush::soc::system::LinBank; the doc comment on
// System explains the bank's role in reconstructing values for
// variables no BDD mentions anymore by the time a solve finishes.
type linBank struct {
	eqs []linEq
}

// push reduces eq against the bank and, if the result is non-zero,
// records it and reports the variable it now pins down (the pivot,
// eq's largest remaining variable id). A reduction to the zero
// combination means eq was already implied by the bank: rhs true is a
// contradiction (Inconsistency), rhs false is simply redundant.
func (lb *linBank) push(eq linEq) (pivot int, err error) {
	for _, banked := range lb.eqs {
		pv, ok := banked.lhs.MaxVar()
		if !ok {
			continue
		}
		if eq.lhs.Has(pv) {
			eq.lhs = eq.lhs.Xor(banked.lhs)
			eq.rhs = eq.rhs != banked.rhs
		}
	}
	if eq.lhs.IsZero() {
		if eq.rhs {
			return 0, inconsistent(0, "fixed/absorbed equations are contradictory")
		}
		return 0, nil
	}
	lb.eqs = append(lb.eqs, eq)
	pivot, _ = eq.lhs.MaxVar()
	return pivot, nil
}

// solveFor returns the bank's forced value for x, if the accumulated
// system pins it down to a plain constant (no remaining dependency on
// any free variable), using the same reduced-row-echelon solve as the
// rest of the GF(2) layer.
func (lb *linBank) solveFor(x int) (bool, bool) {
	basis := make([]gf2.LC, len(lb.eqs))
	rhs := make([]bool, len(lb.eqs))
	width := x + 1
	for i, eq := range lb.eqs {
		basis[i] = eq.lhs
		rhs[i] = eq.rhs
		if v, ok := eq.lhs.MaxVar(); ok && v+1 > width {
			width = v + 1
		}
	}
	assignment := gf2.SolveLinearSystem(basis, rhs, width)
	if x >= len(assignment) || assignment[x] == nil || len(assignment[x].Deps) > 0 {
		return false, false
	}
	return assignment[x].RHS, true
}
