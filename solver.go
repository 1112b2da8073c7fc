// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import "sort"

// Strategy is a policy object that drives a System toward solved form
// by choosing which mutator to invoke next (§4.3, §9's "small method
// table ... avoid deep class hierarchies"). Implementations touch only
// the System's public mutator surface.
type Strategy interface {
	Solve(s *System) error
}

// LinearAbsorption applies linear absorption to echelon form (§4.2.3)
// to every BDD, then joins BDDs pairwise, smallest first by default,
// until the SoC is a single BDD or Inconsistency is reported. It never
// drops a variable, so it only terminates for systems small enough
// that absorption alone reaches a basis — ciphers with a modest
// variable count, per §4.3.
type LinearAbsorption struct{}

func (LinearAbsorption) Solve(s *System) error {
	return runAbsorptionAndJoins(s)
}

func runAbsorptionAndJoins(s *System) error {
	for _, id := range s.BDDIDs() {
		if _, ok := s.bdds[id]; !ok {
			continue // removed by an earlier join in this same pass
		}
		if err := s.AbsorbToEchelon(id); err != nil {
			return err
		}
	}
	return s.joinAll()
}

// joinAll repeatedly joins the two smallest remaining BDDs (by the
// configured JoinOrder) until at most one remains.
func (s *System) joinAll() error {
	for s.BDDCount() > 1 {
		a, b, ok := s.pickJoinPair()
		if !ok {
			break
		}
		if _, err := s.Join(a, b); err != nil {
			return err
		}
	}
	return nil
}

// pickJoinPair selects the two BDDs to join next, ranked smallest
// first by node count (SmallestFirst) or by level count
// (LowestWidthFirst). Ties are broken by insertion order: the first
// BDD encountered with a strictly smaller score wins, so the result is
// deterministic regardless of map iteration order.
func (s *System) pickJoinPair() (a, b int, ok bool) {
	ids := s.BDDIDs()
	if len(ids) < 2 {
		return 0, 0, false
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return s.joinScore(ids[i]) < s.joinScore(ids[j])
	})
	return ids[0], ids[1], true
}

func (s *System) joinScore(id int) int {
	bd := s.bdds[id]
	if s.cfg.joinOrder == LowestWidthFirst {
		return bd.depth()
	}
	return bd.nodeCount()
}

// DropStrategy interleaves LinearAbsorption with drops of a carefully
// chosen variable whenever absorption alone saturates (§4.3): each
// round runs absorb-to-echelon on every BDD and joins them, and drops
// one variable whenever that round leaves the System unsolved,
// including a round cut short by a BudgetExceededError from the
// memory ceiling. The chosen variable is never one the caller
// protected (§7's ProtectedDropError).
type DropStrategy struct{}

func (DropStrategy) Solve(s *System) error {
	for {
		if err := runAbsorptionAndJoins(s); err != nil {
			if _, ok := err.(*BudgetExceededError); !ok {
				return err
			}
		}
		if solved(s) {
			return nil
		}

		x, ok := s.pickDropVariable()
		if !ok {
			// Nothing left that can be legally dropped: every
			// remaining variable is protected. Absorption has
			// already saturated, so there is nothing further this
			// strategy can do.
			return nil
		}
		if err := s.Drop(x); err != nil {
			return err
		}
	}
}

// solved reports whether every BDD of the System has reached the
// shape §4.2.7 calls a solution enumerator: a single level whose lhs
// is a single variable (the "always true" diagram has already been
// removed by the mutators themselves).
func solved(s *System) bool {
	for _, id := range s.BDDIDs() {
		b := s.bdds[id]
		if b.depth() != 1 {
			return false
		}
		if b.levels[0].lhs.Len() != 1 {
			return false
		}
	}
	return true
}

// pickDropVariable selects the next variable to drop under the
// configured DropHeuristic, skipping protected variables. Candidates
// are scanned in ascending variable-id order and a new candidate
// replaces the current best only on a strict improvement, so the
// first-encountered variable wins every tie — the documented
// resolution of §9's open tie-break question.
func (s *System) pickDropVariable() (x int, ok bool) {
	vars := make([]int, 0, len(s.varIndex))
	for v := range s.varIndex {
		if s.protected[v] {
			continue
		}
		vars = append(vars, v)
	}
	sort.Ints(vars)

	best := -1
	bestScore := 0
	for _, v := range vars {
		score := s.dropScore(v)
		if best == -1 || s.dropBetter(score, bestScore) {
			best = v
			bestScore = score
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// dropScore measures v under the configured heuristic: the number of
// levels (across every BDD) that mention v for FewestLevels, or the
// total node count of the BDDs that mention it for LargestCollapse.
func (s *System) dropScore(v int) int {
	switch s.cfg.dropHeuristic {
	case LargestCollapse:
		total := 0
		for id := range s.varIndex[v] {
			total += s.bdds[id].nodeCount()
		}
		return total
	default: // FewestLevels
		count := 0
		for id := range s.varIndex[v] {
			b := s.bdds[id]
			for i := 0; i < b.depth(); i++ {
				if b.levels[i].lhs.Has(v) {
					count++
				}
			}
		}
		return count
	}
}

// dropBetter reports whether candidate strictly improves on current
// under the configured heuristic: fewer levels is better for
// FewestLevels, more nodes freed is better for LargestCollapse.
func (s *System) dropBetter(candidate, current int) bool {
	if s.cfg.dropHeuristic == LargestCollapse {
		return candidate > current
	}
	return candidate < current
}
