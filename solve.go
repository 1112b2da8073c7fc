// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

// ResultKind classifies the outcome of Solve, matching §6.3's four-way
// contract.
type ResultKind int

const (
	// Unsolved is the zero value and never appears in a Result Solve
	// returns; it exists only so a caller that forgets to check err
	// sees an obviously-wrong Kind rather than a plausible one.
	Unsolved ResultKind = iota
	// UniqueSolution reports that the System reduced to exactly one
	// full variable assignment.
	UniqueSolution
	// Enumerable reports that more than one assignment survives;
	// Solutions enumerates them lazily rather than materializing the
	// whole set.
	Enumerable
	// Inconsistent reports that the strategy proved the System has no
	// solution.
	Inconsistent
	// BudgetExceeded reports that the configured memory ceiling was
	// reached before the strategy could finish.
	BudgetExceeded
)

func (k ResultKind) String() string {
	switch k {
	case UniqueSolution:
		return "unique-solution"
	case Enumerable:
		return "enumerable"
	case Inconsistent:
		return "inconsistent"
	case BudgetExceeded:
		return "budget-exceeded"
	default:
		return "unsolved"
	}
}

// Result is what Solve returns: the outcome kind, the single
// assignment when Kind is UniqueSolution, a way to enumerate every
// assignment when Kind is Enumerable, and the operation counters
// §6.3 asks for regardless of outcome.
type Result struct {
	Kind      ResultKind
	Solution  Assignment
	Solutions func(yield func(Assignment) bool) error
	Stats     Stats
	Budget    *BudgetExceededError
	Inconsist *InconsistencyError
}

// Solve drives sys to a solved or proven-unsolvable state under
// strategy, then classifies the outcome per §6.3. A panic raised by
// panicInvariant (an InvariantViolationError, meaning a mutator itself
// violated a structural invariant rather than the input being at
// fault) is recovered here, logged, and returned as an error instead
// of a Result, since §7 calls this "a bug in the engine", not an
// outcome a caller can act on. Any strategy error other than
// InconsistencyError and BudgetExceededError is likewise returned as
// an error.
func Solve(sys *System, strategy Strategy) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*InvariantViolationError); ok {
				sys.logger().Error().
					Int("bdd", iv.BDDID).
					Int("level", iv.Level).
					Str("operation", iv.Operation).
					Str("reason", iv.Reason).
					Msg("invariant violation; terminating solve")
				err = iv
				return
			}
			panic(r)
		}
	}()

	runErr := strategy.Solve(sys)
	res.Stats = sys.Stats()

	switch e := runErr.(type) {
	case nil:
		// fall through to classification below
	case *InconsistencyError:
		res.Kind = Inconsistent
		res.Inconsist = e
		return res, nil
	case *BudgetExceededError:
		res.Kind = BudgetExceeded
		res.Budget = e
		return res, nil
	default:
		return res, runErr
	}

	switch sys.BDDCount() {
	case 0:
		if len(sys.bankFreeVars()) == 0 {
			res.Kind = UniqueSolution
			res.Solution = sys.uniqueFromBank()
			return res, nil
		}
	case 1:
		b := sys.bdds[sys.order[0]]
		if n, cerr := sys.CountSolutions(); cerr == nil && b.depth() == 1 && b.levels[0].lhs.Len() == 1 && n.IsInt64() && n.Int64() == 1 {
			res.Kind = UniqueSolution
			sol, err := sys.uniquePath(b)
			if err != nil {
				return res, err
			}
			res.Solution = sol
			return res, nil
		}
	}

	res.Kind = Enumerable
	res.Solutions = sys.Solutions
	return res, nil
}

// bankFreeVars reports which variables mentioned in the lin bank are
// still unpinned once the bank's equations are solved together: a
// system can reach zero remaining BDDs while the bank itself is still
// rank-deficient (e.g. a single absorbed equation over two variables),
// in which case more than one assignment remains and the caller must
// not be told the solution is unique.
func (s *System) bankFreeVars() []int {
	pivots := s.solveCombined(nil)
	free := make([]int, 0)
	for v, p := range pivots {
		if p == nil {
			free = append(free, v)
		}
	}
	return free
}

// uniqueFromBank reports the single solution implied entirely by the
// lin bank, used when every BDD has collapsed to the always-true
// diagram and only fixed/absorbed variables remain to report.
func (s *System) uniqueFromBank() Assignment {
	var out Assignment
	s.enumerate(nil, func(sol Assignment) bool {
		out = sol
		return false
	})
	return out
}

// uniquePath collects the lone root-to-sink path of b, which Solve
// only calls once CountSolutions has confirmed there is exactly one
// solution, and merges it with the lin bank to produce a full
// assignment.
func (s *System) uniquePath(b *bdd) (Assignment, error) {
	var out Assignment
	err := s.enumerate(b, func(sol Assignment) bool {
		out = sol
		return false
	})
	return out, err
}
