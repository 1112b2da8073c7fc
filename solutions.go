// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"errors"
	"math/big"

	"github.com/crhslab/crhs/gf2"
)

// Assignment maps a variable id to its value in one full solution.
type Assignment map[int]bool

// Solutions lazily enumerates every full variable assignment
// satisfying the System, calling yield once per solution. yield
// returning false stops enumeration early ("lazily" per §4.2.7).
// Grounded on crush::soc::system::System::get_solutions's three-way
// branch: everything already resolved into the bank, a single BDD
// left to walk, or several BDDs that must be joined into one first.
func (s *System) Solutions(yield func(Assignment) bool) error {
	switch s.BDDCount() {
	case 0:
		return s.enumerate(nil, yield)
	case 1:
		b := s.bdds[s.order[0]]
		return s.enumerate(b, yield)
	default:
		if err := s.joinAll(); err != nil {
			return err
		}
		return s.Solutions(yield)
	}
}

// CollectSolutions materializes Solutions up to the configured
// solution cap (WithSolutionCap), logging a warning rather than
// truncating silently whenever the cap is reached.
func (s *System) CollectSolutions() ([]Assignment, error) {
	out := make([]Assignment, 0, 16)
	err := s.Solutions(func(a Assignment) bool {
		out = append(out, a)
		return len(out) < s.cfg.solutionCap
	})
	if err == nil && len(out) >= s.cfg.solutionCap {
		s.logger().Warn().Int("cap", s.cfg.solutionCap).Msg("solution cap reached; enumeration stopped early")
	}
	return out, err
}

// CountSolutions computes the exact number of full variable
// assignments satisfying the System, without materializing any of
// them. It walks the same paths Solutions does, but instead of
// expanding each path's free variables one assignment at a time it
// adds 2^|free| to a running arbitrary-precision total — the same
// bit-shift-and-add technique the teacher's own Satcount
// (operations.go) uses to avoid overflow on wide systems, adapted
// here from a single per-node level gap to a per-path free-variable
// count.
func (s *System) CountSolutions() (*big.Int, error) {
	total := big.NewInt(0)
	if err := s.countEnumerate(total); err != nil {
		return nil, err
	}
	return total, nil
}

func (s *System) countEnumerate(total *big.Int) error {
	switch s.BDDCount() {
	case 0:
		return s.countPath(nil, total)
	case 1:
		b := s.bdds[s.order[0]]
		return s.countWalk(b, 0, sinkLocator(b), nil, total)
	default:
		if err := s.joinAll(); err != nil {
			return err
		}
		return s.countEnumerate(total)
	}
}

func (s *System) countWalk(b *bdd, level int, id nodeID, path []linEq, total *big.Int) error {
	if level == b.depth() {
		return s.countPath(path, total)
	}
	lv := b.levels[level]
	n, ok := lv.get(id)
	if !ok {
		panicInvariant(b.id, level, "countWalk", "node %d missing while counting solutions", id)
	}
	if n.low != noEdge {
		if err := s.countWalk(b, level+1, n.low, append(path, linEq{lhs: lv.lhs, rhs: false}), total); err != nil {
			return err
		}
	}
	if n.high != noEdge {
		if err := s.countWalk(b, level+1, n.high, append(path, linEq{lhs: lv.lhs, rhs: true}), total); err != nil {
			return err
		}
	}
	return nil
}

// countPath solves one path's equations exactly as emitSolved does,
// then adds 2^|free variables| to total instead of expanding them.
func (s *System) countPath(path []linEq, total *big.Int) error {
	pivots := s.solveCombined(path)

	free := 0
	for _, p := range pivots {
		if p == nil {
			free++
		}
	}
	contribution := big.NewInt(0)
	contribution.SetBit(contribution, free, 1)
	total.Add(total, contribution)
	return nil
}

// enumerate walks every root-to-sink path of b (nil meaning no BDD
// remains at all), turning each path into the linear system its
// edges impose, merging it with the System's own lin bank, and
// expanding whatever variables remain free after solving.
func (s *System) enumerate(b *bdd, yield func(Assignment) bool) error {
	var err error
	if b == nil {
		err = s.emitSolved(nil, yield)
	} else {
		err = s.walk(b, 0, sinkLocator(b), nil, yield)
	}
	if err == errStopEnumeration {
		return nil
	}
	return err
}

// errStopEnumeration unwinds the walk once yield has returned false;
// enumerate turns it back into a normal, error-free end.
var errStopEnumeration = errors.New("enumeration stopped by yield")

// sinkLocator returns the node id b's root starts at; kept as its own
// function so the walk below reads as "start at the root, descend".
func sinkLocator(b *bdd) nodeID {
	return b.levels[0].ids()[0]
}

// walk performs the root-to-sink DFS of b, accumulating the per-level
// equation each edge choice imposes, and emits one solution per
// completed path.
func (s *System) walk(b *bdd, level int, id nodeID, path []linEq, yield func(Assignment) bool) error {
	if level == b.depth() {
		return s.emitSolved(path, yield)
	}
	lv := b.levels[level]
	n, ok := lv.get(id)
	if !ok {
		panicInvariant(b.id, level, "walk", "node %d missing while enumerating solutions", id)
	}
	if n.low != noEdge {
		if err := s.walk(b, level+1, n.low, append(path, linEq{lhs: lv.lhs, rhs: false}), yield); err != nil {
			return err
		}
	}
	if n.high != noEdge {
		if err := s.walk(b, level+1, n.high, append(path, linEq{lhs: lv.lhs, rhs: true}), yield); err != nil {
			return err
		}
	}
	return nil
}

// solveCombined merges one path's equations (nil for the bank-only
// case) with the System's lin bank and returns the resulting pivot
// formulas, one per variable id up to the combined width.
func (s *System) solveCombined(path []linEq) []*gf2.Pivot {
	eqs := append(append([]linEq(nil), s.bank.eqs...), path...)

	width := 0
	for _, eq := range eqs {
		if v, ok := eq.lhs.MaxVar(); ok && v+1 > width {
			width = v + 1
		}
	}

	basis := make([]gf2.LC, len(eqs))
	rhs := make([]bool, len(eqs))
	for i, eq := range eqs {
		basis[i] = eq.lhs
		rhs[i] = eq.rhs
	}
	return gf2.SolveLinearSystem(basis, rhs, width)
}

// emitSolved merges one path's equations with the System's lin bank,
// solves the combined linear system, and expands whatever variables
// remain free (unconstrained by either the path or the bank) into
// every possible value, yielding one Assignment per combination. A
// pivot variable's own value is only a plain constant when its row, in
// the end, mentions no free variable; otherwise it is an affine
// formula over the free choices being expanded here (gf2.Pivot.Deps),
// resolved once all free choices for this combination are fixed.
func (s *System) emitSolved(path []linEq, yield func(Assignment) bool) error {
	pivots := s.solveCombined(path)

	free := make([]int, 0)
	for v, p := range pivots {
		if p == nil {
			free = append(free, v)
		}
	}
	return expandFree(pivots, free, make(map[int]bool, len(free)), yield)
}

// expandFree enumerates every value combination of the free variables
// left over from emitSolved, resolving each pivot's formula against
// the current choice before yielding a fully concrete Assignment per
// combination.
func expandFree(pivots []*gf2.Pivot, free []int, chosen map[int]bool, yield func(Assignment) bool) error {
	if len(free) == 0 {
		return yieldAssignment(pivots, chosen, yield)
	}
	v := free[0]
	rest := free[1:]
	for _, choice := range [2]bool{false, true} {
		chosen[v] = choice
		if err := expandFree(pivots, rest, chosen, yield); err != nil {
			return err
		}
	}
	delete(chosen, v)
	return nil
}

// resolvePivot evaluates p against the free variables chosen for this
// combination: its constant term XORed with every dependency that was
// chosen true.
func resolvePivot(p *gf2.Pivot, chosen map[int]bool) bool {
	v := p.RHS
	for _, d := range p.Deps {
		if chosen[d] {
			v = !v
		}
	}
	return v
}

func yieldAssignment(pivots []*gf2.Pivot, chosen map[int]bool, yield func(Assignment) bool) error {
	a := make(Assignment, len(pivots))
	for v, p := range pivots {
		if p != nil {
			a[v] = resolvePivot(p, chosen)
		}
	}
	for v, val := range chosen {
		a[v] = val
	}
	if !yield(a) {
		return errStopEnumeration
	}
	return nil
}
