// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// System is a System-of-Compressed-BDDs (SoC): an ordered collection of
// BDDs sharing a global variable universe, whose joint solution set is
// the intersection of the BDDs' own solution sets (§3). It maintains
// two system-wide indices — a variable-to-bdd index (which BDDs
// mention a variable; it does not record the levels, which are found
// by scanning that BDD) and, per BDD, the ordered list of level
// lhs'es — and is the sole entry point through which BDDs are
// mutated; other files of the package read a bdd's levels but never
// change them.
//
// Mirrors the teacher's single-owner-of-node-tables design (there, one
// buddy-style kernel; here, one System owning every BDD), generalized
// from a single shared node table to one arena per BDD as §5 requires.
type System struct {
	cfg *config

	bdds   map[int]*bdd
	order  []int // insertion order of bdd ids, for deterministic iteration
	nextID int

	// varIndex maps a variable id to the set of bdd ids whose levels
	// mention it, satisfying I4 ("the variable index agrees with the
	// level lhs'es").
	varIndex map[int]map[int]bool

	protected map[int]bool

	// bank accumulates the linear equations fixed or absorbed across
	// the whole System, keeping each addition reduced against what is
	// already held, grounded on crush::soc::system::LinBank. It is the
	// System's record of solved-for variables once their owning BDDs
	// have shrunk away.
	bank linBank

	stats         Stats
	lastBudgetErr *BudgetExceededError
}

// Stats collects the operation counters §6.3 calls for.
type Stats struct {
	Operations    int
	PeakNodes     int
	FinalBDDCount int
}

// NewSystem constructs an empty SoC.
func NewSystem(opts ...Option) *System {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &System{
		cfg:       cfg,
		bdds:      make(map[int]*bdd),
		varIndex:  make(map[int]map[int]bool),
		protected: make(map[int]bool),
	}
}

func (s *System) logger() *zerolog.Logger { return &s.cfg.logger }

// Protect marks x as a variable the caller requires in the final
// enumeration: DropStrategy must never select it (§4.3, §7's
// ProtectedDropError).
func (s *System) Protect(x int) {
	s.protected[x] = true
}

// IsProtected reports whether x has been marked with Protect.
func (s *System) IsProtected(x int) bool {
	return s.protected[x]
}

// BDDCount returns the number of BDDs currently in the SoC.
func (s *System) BDDCount() int {
	return len(s.order)
}

// BDDIDs returns the ids of the SoC's BDDs in insertion order.
func (s *System) BDDIDs() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// NodeCount sums the node count of every BDD currently in the SoC, the
// primary memory-budget signal (§9).
func (s *System) NodeCount() int {
	total := 0
	for _, id := range s.order {
		total += s.bdds[id].nodeCount()
	}
	return total
}

// AppendBDD validates spec against the reducedness and ordering
// invariants (I1) and inserts it into the SoC under a fresh id,
// indexing its variables (I4) and checking its lhs'es are pairwise
// distinct (I2) before admitting it, matching §6.1's
// append_bdd(levels) model-supplier contract.
func (s *System) AppendBDD(spec BDDSpec) (int, error) {
	b, err := buildBDD(spec)
	if err != nil {
		return 0, err
	}
	if err := b.checkLHSDistinct(); err != nil {
		return 0, err
	}

	s.nextID++
	id := s.nextID
	b.id = id

	s.bdds[id] = b
	s.order = append(s.order, id)
	s.indexBDD(id)
	budgetErr := s.touchPeak()
	s.logger().Debug().Int("bdd", id).Int("levels", b.depth()).Msg("appended bdd")
	if budgetErr != nil {
		return id, budgetErr
	}
	return id, nil
}

func (s *System) indexBDD(id int) {
	b := s.bdds[id]
	for i := 0; i < b.depth(); i++ {
		for _, v := range b.levels[i].lhs.Vars() {
			s.addVarRef(v, id)
		}
	}
}

func (s *System) addVarRef(v, bddID int) {
	set, ok := s.varIndex[v]
	if !ok {
		set = make(map[int]bool)
		s.varIndex[v] = set
	}
	set[bddID] = true
}

// reindexBDD drops id from every variable's reference set and rebuilds
// it from scratch, used after a mutator has changed which variables id
// mentions (swap leaves lhs'es where they are, but absorb, join, drop
// and fix all change the set of surviving levels).
func (s *System) reindexBDD(id int) {
	for v, set := range s.varIndex {
		delete(set, id)
		if len(set) == 0 {
			delete(s.varIndex, v)
		}
	}
	if b, ok := s.bdds[id]; ok {
		for i := 0; i < b.depth(); i++ {
			for _, v := range b.levels[i].lhs.Vars() {
				s.addVarRef(v, id)
			}
		}
	}
}

// touchPeak records the System's current node count against its peak
// and reports BudgetExceededError once the configured ceiling (§5's
// "memory-budget callback") is crossed, so that callers — strategies in
// particular — can switch to a drop instead of continuing absorption.
func (s *System) touchPeak() error {
	n := s.NodeCount()
	if n > s.stats.PeakNodes {
		s.stats.PeakNodes = n
	}
	if s.cfg.memoryCeiling > 0 && n > s.cfg.memoryCeiling {
		err := &BudgetExceededError{Ceiling: s.cfg.memoryCeiling, Reached: n}
		s.lastBudgetErr = err
		return err
	}
	return nil
}

// LastBudgetError returns the most recent BudgetExceededError observed,
// or nil if the ceiling has never been crossed.
func (s *System) LastBudgetError() *BudgetExceededError {
	return s.lastBudgetErr
}

// ValueOf reports the value the lin bank has pinned down for x, if any:
// the bank must hold an equation (or combination of equations) that
// reduces x to a plain constant, with no remaining dependency on a
// free variable. It does not inspect any BDD still carrying x; callers
// that need a variable's value while it is still live in a BDD must
// absorb or fix it first.
func (s *System) ValueOf(x int) (value bool, ok bool) {
	return s.bank.solveFor(x)
}

func (s *System) getBDD(id int) (*bdd, error) {
	b, ok := s.bdds[id]
	if !ok {
		return nil, malformed("system: no such bdd %d", id)
	}
	return b, nil
}

// removeIfTrivial drops id from the SoC when its BDD has collapsed to
// the always-true diagram (root equals sink, §3's Lifecycle), since
// intersecting with "always true" is the identity. It reports whether
// the BDD was removed.
func (s *System) removeIfTrivial(id int) bool {
	b, ok := s.bdds[id]
	if !ok || !b.isEmptyDiagram() {
		return false
	}
	s.removeBDD(id)
	return true
}

func (s *System) removeBDD(id int) {
	delete(s.bdds, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for v, set := range s.varIndex {
		delete(set, id)
		if len(set) == 0 {
			delete(s.varIndex, v)
		}
	}
}

// Swap exchanges adjacent levels i and i+1 of bdd id (§4.2.1).
func (s *System) Swap(id, i int) error {
	b, err := s.getBDD(id)
	if err != nil {
		return err
	}
	s.stats.Operations++
	if err := b.swap(i); err != nil {
		return err
	}
	s.reindexBDD(id)
	if err := s.touchPeak(); err != nil {
		return err
	}
	return s.afterMutate(id)
}

// Absorb removes level i of bdd id along edge, provided it is
// structurally forced (§4.2.2).
func (s *System) Absorb(id, i int, edge bool) error {
	b, err := s.getBDD(id)
	if err != nil {
		return err
	}
	s.stats.Operations++
	if err := b.absorb(i, edge); err != nil {
		return err
	}
	s.reindexBDD(id)
	if err := s.touchPeak(); err != nil {
		return err
	}
	return s.afterMutate(id)
}

// AbsorbToEchelon drives bdd id's levels to a linearly independent
// family, interleaving swaps and absorptions (§4.2.3). Each absorbed
// equation is recorded in the bank so solution enumeration can still
// report a value for variables that no longer appear in any BDD.
func (s *System) AbsorbToEchelon(id int) error {
	b, err := s.getBDD(id)
	if err != nil {
		return err
	}
	s.stats.Operations++
	absorbed, err := b.absorbToEchelon()
	if err != nil {
		return err
	}
	for _, eq := range absorbed {
		if _, err := s.bank.push(eq); err != nil {
			return err
		}
	}
	s.reindexBDD(id)
	if err := s.touchPeak(); err != nil {
		return err
	}
	return s.afterMutate(id)
}

// Join replaces bdd1 and bdd2 by a single BDD whose solution set is
// their intersection (§4.2.4), reusing bdd1's id for the result.
func (s *System) Join(bdd1, bdd2 int) (int, error) {
	b1, err := s.getBDD(bdd1)
	if err != nil {
		return 0, err
	}
	b2, err := s.getBDD(bdd2)
	if err != nil {
		return 0, err
	}
	s.stats.Operations++
	result, err := joinBDDs(bdd1, b1, b2)
	if err != nil {
		return 0, err
	}
	s.removeBDD(bdd2)
	s.bdds[bdd1] = result
	s.reindexBDD(bdd1)
	if err := s.touchPeak(); err != nil {
		return 0, err
	}
	if err := s.afterMutate(bdd1); err != nil {
		return 0, err
	}
	return bdd1, nil
}

// Drop eliminates variable x from the SoC entirely (§4.2.5), rejecting
// the request with ProtectedDropError when x has been marked with
// Protect. Every BDD mentioning x is updated; BDDs that collapse to
// the always-true diagram as a result are removed.
func (s *System) Drop(x int) error {
	if s.protected[x] {
		return &ProtectedDropError{Variable: x}
	}
	ids := make([]int, 0, len(s.varIndex[x]))
	for id := range s.varIndex[x] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b, err := s.getBDD(id)
		if err != nil {
			continue
		}
		s.stats.Operations++
		if err := b.drop(x); err != nil {
			return err
		}
		s.reindexBDD(id)
		if err := s.afterMutate(id); err != nil {
			return err
		}
	}
	delete(s.varIndex, x)
	return s.touchPeak()
}

// Fix asserts x = val across every BDD of the SoC (§4.2.6).
func (s *System) Fix(x int, val bool) error {
	ids := make([]int, 0, len(s.varIndex[x]))
	for id := range s.varIndex[x] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		b, err := s.getBDD(id)
		if err != nil {
			continue
		}
		s.stats.Operations++
		if err := b.fix(x, val); err != nil {
			return err
		}
		s.reindexBDD(id)
		if err := s.afterMutate(id); err != nil {
			return err
		}
	}
	if _, err := s.bank.push(newLinEqFromVar(x, val)); err != nil {
		return err
	}
	return s.touchPeak()
}

// afterMutate removes id from the SoC when the mutator just run
// reduced it to the always-true diagram, and records the resulting
// BDD count in stats.
func (s *System) afterMutate(id int) error {
	s.removeIfTrivial(id)
	s.stats.FinalBDDCount = len(s.order)
	return nil
}

// Stats returns a snapshot of the System's operation counters.
func (s *System) Stats() Stats {
	st := s.stats
	st.FinalBDDCount = len(s.order)
	return st
}

func (s *System) String() string {
	return fmt.Sprintf("system(%d bdds, %d nodes)", len(s.order), s.NodeCount())
}
