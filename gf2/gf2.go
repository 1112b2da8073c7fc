// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package gf2 implements the dense linear algebra over GF(2) that the
// rest of the engine builds on: linear combinations of variable
// identifiers (xor, reduction against a basis, substitution) and the
// small amount of matrix machinery needed to read off a final solution
// once a system has been reduced to a basis of equations.
package gf2

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// LC is a linear combination of variables over GF(2): the set of
// variable identifiers being XOR-ed together. It is represented as a
// dense bitset indexed by variable id, so the empty LC (the constant 0)
// is the zero-length or all-clear bitset.
type LC struct {
	bits *bitset.BitSet
}

// NewLC builds the canonical (sorted, deduplicated) linear combination
// containing vars. Duplicate ids cancel under XOR, matching the
// toggle-set construction used when a level's lhs is first assembled.
func NewLC(vars ...int) LC {
	lc := LC{bits: &bitset.BitSet{}}
	for _, v := range vars {
		lc.Toggle(v)
	}
	return lc
}

// Toggle flips the membership of v in the combination: set if absent,
// clear if present. This is how a level's lhs is built up incrementally
// without a pre-pass to drop duplicates.
func (a *LC) Toggle(v int) {
	if a.bits == nil {
		a.bits = &bitset.BitSet{}
	}
	if a.bits.Test(uint(v)) {
		a.bits.Clear(uint(v))
	} else {
		a.bits.Set(uint(v))
	}
}

// Has reports whether v is a member of the combination.
func (a LC) Has(v int) bool {
	if a.bits == nil {
		return false
	}
	return a.bits.Test(uint(v))
}

// IsZero reports whether the combination is the empty set, the additive
// identity.
func (a LC) IsZero() bool {
	return a.bits == nil || a.bits.None()
}

// Len returns the number of variables in the combination.
func (a LC) Len() int {
	if a.bits == nil {
		return 0
	}
	return int(a.bits.Count())
}

// Clone returns an independent copy of a.
func (a LC) Clone() LC {
	if a.bits == nil {
		return LC{}
	}
	return LC{bits: a.bits.Clone()}
}

// Xor returns the symmetric difference of a and b, the additive group
// operation over GF(2).
func Xor(a, b LC) LC {
	switch {
	case a.bits == nil && b.bits == nil:
		return LC{}
	case a.bits == nil:
		return LC{bits: b.bits.Clone()}
	case b.bits == nil:
		return LC{bits: a.bits.Clone()}
	default:
		return LC{bits: a.bits.Clone().SymmetricDifference(b.bits)}
	}
}

// Xor returns a XOR b. Method form of the package function, kept for
// call sites that already hold a receiver.
func (a LC) Xor(b LC) LC {
	return Xor(a, b)
}

// Equal reports whether a and b contain exactly the same variables.
func (a LC) Equal(b LC) bool {
	switch {
	case a.IsZero() && b.IsZero():
		return true
	case a.bits == nil || b.bits == nil:
		return false
	default:
		return a.bits.Equal(b.bits)
	}
}

// Vars returns the member variables in ascending order, matching the
// engine-wide "variables by ascending id" iteration contract.
func (a LC) Vars() []int {
	if a.bits == nil {
		return nil
	}
	res := make([]int, 0, a.bits.Count())
	for i, ok := a.bits.NextSet(0); ok; i, ok = a.bits.NextSet(i + 1) {
		res = append(res, int(i))
	}
	return res
}

// MinVar returns the smallest member variable id, used as the pivot
// convention for extend_basis (see package doc and DESIGN.md: the
// smallest-id pivot is mandated explicitly by the specification text,
// not inferred).
func (a LC) MinVar() (int, bool) {
	if a.bits == nil {
		return 0, false
	}
	i, ok := a.bits.NextSet(0)
	return int(i), ok
}

// MaxVar returns the largest member variable id, used as the pivot
// convention for the final linear-system solve (SolveLinearSystem),
// which follows the pivot-on-largest-bit convention of the source this
// engine was ported from, since the specification is silent on that
// routine's pivot policy.
func (a LC) MaxVar() (int, bool) {
	if a.bits == nil {
		return 0, false
	}
	var last uint
	found := false
	for i, ok := a.bits.NextSet(0); ok; i, ok = a.bits.NextSet(i + 1) {
		last, found = i, true
	}
	return int(last), found
}

// String renders a as "v1+v2+...+vk", matching the lhs grammar of the
// exchange format, with the empty combination rendering as "".
func (a LC) String() string {
	vars := a.Vars()
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, "+")
}

// Reduce XORs rows of basis into v to eliminate every variable that is
// the pivot (smallest member) of some row of basis, and returns the
// residual. basis is assumed to already be in echelon form with
// distinct pivots; Reduce never fails, it only ever reports a (possibly
// zero) residual.
func Reduce(basis []LC, v LC) LC {
	res := v.Clone()
	for _, row := range basis {
		p, ok := row.MinVar()
		if ok && res.Has(p) {
			res = res.Xor(row)
		}
	}
	return res
}

// ExtendBasis reduces v against basis and, if the residual is non-zero,
// appends it to basis. It returns the (possibly extended) basis, whether
// v was linearly independent of basis, and — when independent — the
// pivot chosen for the new row: the smallest variable id in the
// residual, per the specification's explicit pivot convention for this
// routine. The basis routines never fail; extend_basis only ever reports
// a dependence flag.
func ExtendBasis(basis []LC, v LC) (newBasis []LC, added bool, pivot int) {
	res := Reduce(basis, v)
	if res.IsZero() {
		return basis, false, -1
	}
	p, _ := res.MinVar()
	return append(basis, res), true, p
}

// Substitute replaces x, if present in v, by repl: v with x removed,
// XOR-ed with repl. If x is absent, v is returned unchanged (a clone).
func (v LC) Substitute(x int, repl LC) LC {
	if !v.Has(x) {
		return v.Clone()
	}
	w := v.Clone()
	w.bits.Clear(uint(x))
	return w.Xor(repl)
}

// Matrix is a fixed-width collection of GF(2) row vectors. It backs the
// final solve of the accumulated linear-equation bank once a system has
// been reduced to a basis of independent equations; it is not exposed as
// a general-purpose reusable matrix library, only as the narrow
// machinery this engine needs (rank and a reduced row-echelon solve).
type Matrix struct {
	Rows  []LC
	Width int
}

// NewMatrix builds a Matrix over the given rows with the stated
// variable-universe width.
func NewMatrix(width int, rows ...LC) Matrix {
	return Matrix{Rows: rows, Width: width}
}

// Rank returns the GF(2) rank of m, computed by a destructive Gaussian
// elimination over a scratch copy of the rows, pivoting on the largest
// surviving set bit per row — the same convention used by
// SolveLinearSystem, for consistency within this package.
func (m Matrix) Rank() int {
	rows := make([]LC, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = r.Clone()
	}
	rank := 0
	used := make(map[int]bool)
	for _, row := range rows {
		cur := row
		for {
			p, ok := cur.MaxVar()
			if !ok {
				break
			}
			if _, taken := used[p]; !taken {
				used[p] = true
				rank++
				break
			}
			cur = cur.Xor(pivotRowFor(rows, p))
		}
	}
	return rank
}

func pivotRowFor(rows []LC, pivot int) LC {
	for _, r := range rows {
		if p, ok := r.MaxVar(); ok && p == pivot {
			return r
		}
	}
	return LC{}
}

// Pivot is the formula SolveLinearSystem reports for one pivot
// variable once its defining row has been driven to contain no other
// pivot's variable: its value is RHS XORed with whichever of the
// listed free variables are eventually chosen true. A pivot whose row
// reduces to no other bits at all has an empty Deps and is a plain
// constant.
type Pivot struct {
	RHS  bool
	Deps []int
}

// SolveLinearSystem reduces basis (an independent family of equations,
// not necessarily already in echelon form) to reduced row-echelon form
// alongside the corresponding right-hand-side bits, then reports the
// formula for every pivot variable in terms of whichever free
// variables its row still mentions; non-pivot variables are reported
// as don't-care (nil), to be chosen freely by the caller. Ported from
// the reduction used by the source this engine was distilled from,
// which pivots on the largest set bit of each row — the specification
// is silent on this routine's pivot convention, so that source
// governs. The forward elimination alone only guarantees each row's
// own pivot is unique to it; a second, descending back-substitution
// pass over the established pivots is needed so that a row's
// remaining bits are genuinely free variables rather than some other
// row's still-unresolved pivot — without it, a pivot that shares its
// row with a free variable would be reported as a fixed constant
// instead of the formula it actually is.
//
// basis and rhs must have the same length; basis[i] = rhs[i] is the i-th
// equation. The result has length width, one entry per variable id.
func SolveLinearSystem(basis []LC, rhs []bool, width int) []*Pivot {
	rows := make([]LC, len(basis))
	vals := make([]bool, len(rhs))
	copy(rows, basis)
	copy(vals, rhs)
	for i := range rows {
		rows[i] = rows[i].Clone()
	}

	pivotRow := make(map[int]int) // pivot var -> row index already reduced to that pivot
	for i := range rows {
		for {
			p, ok := rows[i].MaxVar()
			if !ok {
				break
			}
			j, taken := pivotRow[p]
			if !taken {
				pivotRow[p] = i
				break
			}
			rows[i] = rows[i].Xor(rows[j])
			vals[i] = vals[i] != vals[j]
		}
	}

	pivots := make([]int, 0, len(pivotRow))
	for p := range pivotRow {
		pivots = append(pivots, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pivots)))
	for _, p := range pivots {
		defRow := pivotRow[p]
		for i := range rows {
			if i == defRow || !rows[i].Has(p) {
				continue
			}
			rows[i] = rows[i].Xor(rows[defRow])
			vals[i] = vals[i] != vals[defRow]
		}
	}

	result := make([]*Pivot, width)
	for p, i := range pivotRow {
		deps := make([]int, 0)
		for _, v := range rows[i].Vars() {
			if v != p {
				deps = append(deps, v)
			}
		}
		result[p] = &Pivot{RHS: vals[i], Deps: deps}
	}
	return result
}

// SortedVars is a convenience used by callers that need a deterministic
// slice of variable ids out of a map-backed set (e.g. a protected-variable
// set), matching the engine-wide ascending-id iteration contract.
func SortedVars(vars map[int]bool) []int {
	res := make([]int, 0, len(vars))
	for v := range vars {
		res = append(res, v)
	}
	sort.Ints(res)
	return res
}
