// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import "github.com/rs/zerolog"

// DropHeuristic selects which variable DropStrategy prefers when
// absorption saturates and a drop is required to make progress.
type DropHeuristic int

const (
	// FewestLevels drops the unprotected variable that appears in the
	// fewest (bdd, level) pairs, the default heuristic from the source
	// this engine was distilled from.
	FewestLevels DropHeuristic = iota
	// LargestCollapse drops the unprotected variable whose owning BDDs
	// hold the most nodes in total, on the theory that collapsing it
	// frees the most node memory.
	LargestCollapse
)

var dropHeuristicNames = [...]string{"fewest-levels", "largest-collapse"}

func (h DropHeuristic) String() string {
	if h < 0 || int(h) >= len(dropHeuristicNames) {
		return "unknown"
	}
	return dropHeuristicNames[h]
}

// JoinOrder selects the order in which LinearAbsorption and DropStrategy
// pick pairs of BDDs to join.
type JoinOrder int

const (
	// SmallestFirst joins the two BDDs with the fewest total nodes
	// first, the default ordering from §4.3.
	SmallestFirst JoinOrder = iota
	// LowestWidthFirst joins the two BDDs with the fewest levels first.
	LowestWidthFirst
)

var joinOrderNames = [...]string{"smallest-first", "lowest-width-first"}

func (o JoinOrder) String() string {
	if o < 0 || int(o) >= len(joinOrderNames) {
		return "unknown"
	}
	return joinOrderNames[o]
}

// config collects the tunable parameters of a System and of the
// strategies that drive it, in the shape of the teacher's functional-
// options configs struct, generalized from node-table sizing to the
// solver-level knobs this engine needs.
type config struct {
	initialVars    int
	nodesize       int
	memoryCeiling  int // node count; 0 means unlimited
	solutionCap    int
	dropHeuristic  DropHeuristic
	joinOrder      JoinOrder
	logger         zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		nodesize:      64,
		solutionCap:   1 << 16,
		dropHeuristic: FewestLevels,
		joinOrder:     SmallestFirst,
		logger:        zerolog.Nop(),
	}
}

// Option configures a System at construction time.
type Option func(*config)

// WithInitialVars records a preferred initial variable-universe size
// of at least n. The value is stored in the configuration but no part
// of the System reads it: LC bitsets and the variable index grow on
// demand regardless.
func WithInitialVars(n int) Option {
	return func(c *config) {
		if n > c.initialVars {
			c.initialVars = n
		}
	}
}

// WithNodesize records a preferred initial per-BDD node-arena size,
// mirroring the teacher's Nodesize option. The value is stored in the
// configuration but no part of the System reads it; arenas grow one
// id at a time.
func WithNodesize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.nodesize = size
		}
	}
}

// WithMemoryBudget installs a node-count ceiling (§5's "memory-budget
// callback"). Any mutator after which the System's node count exceeds
// the ceiling returns BudgetExceededError; the mutation itself has
// already been applied. DropStrategy reacts to that error by stopping
// the current absorb-and-join round and dropping a variable.
func WithMemoryBudget(maxNodes int) Option {
	return func(c *config) {
		c.memoryCeiling = maxNodes
	}
}

// WithSolutionCap bounds how many solutions System.Solutions will
// materialize eagerly through helpers like CollectSolutions; the lazy
// enumerator itself is unbounded. Exceeding the cap is logged, never
// silently truncated.
func WithSolutionCap(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.solutionCap = n
		}
	}
}

// WithDropHeuristic selects DropStrategy's variable-choice heuristic.
func WithDropHeuristic(h DropHeuristic) Option {
	return func(c *config) { c.dropHeuristic = h }
}

// WithJoinOrder selects the order strategies join BDD pairs in.
func WithJoinOrder(o JoinOrder) Option {
	return func(c *config) { c.joinOrder = o }
}

// WithLogger installs a zerolog.Logger that the System and its
// strategies report progress and invariant diagnostics through. The
// default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}
