// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/crhslab/crhs/gf2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forcedVar builds the one-level BDD that forces variable x to val: a
// single node at the sole real level whose consistent edge reaches the
// sink (assigned the real id 2, since 0 is reserved for "no edge") and
// whose other edge is dead. This is the shape that needs the corrected
// sink convention in bdd_build.go to be representable at all.
func forcedVar(bddID, x int, val bool) BDDSpec {
	n := NodeSpec{ID: 1}
	if val {
		n.One = 2
	} else {
		n.Zero = 2
	}
	return BDDSpec{
		ID: bddID,
		Levels: []LevelSpec{
			{LHS: []int{x}, Nodes: []NodeSpec{n}},
			{Nodes: []NodeSpec{{ID: 2}}},
		},
	}
}

// xorConstraint builds the one-level BDD enforcing the XOR of vars to
// be 0: the low edge (lhs evaluates to 0) reaches the sink, the high
// edge is dead.
func xorConstraint(bddID int, vars ...int) BDDSpec {
	return BDDSpec{
		ID: bddID,
		Levels: []LevelSpec{
			{LHS: vars, Nodes: []NodeSpec{{ID: 1, Zero: 2}}},
			{Nodes: []NodeSpec{{ID: 2}}},
		},
	}
}

func TestForcedVarSingleLevelRepresentable(t *testing.T) {
	b, err := buildBDD(forcedVar(1, 1, false))
	require.NoError(t, err)
	assert.Equal(t, 1, b.depth())
	assert.NoError(t, b.checkReducedAndOrdered())
}

func TestInconsistentPairOfForcedVars(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(forcedVar(1, 1, false))
	require.NoError(t, err)
	_, err = sys.AppendBDD(forcedVar(2, 1, true))
	require.NoError(t, err)

	_, err = sys.Join(1, 2)
	require.Error(t, err)
	var inconsist *InconsistencyError
	require.ErrorAs(t, err, &inconsist)
}

func TestSingleXORConstraintIsEnumerableWithTwoSolutions(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 0, 1))
	require.NoError(t, err)

	res, err := Solve(sys, LinearAbsorption{})
	require.NoError(t, err)
	assert.Equal(t, Enumerable, res.Kind)

	count, err := sys.CountSolutions()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Int64())

	var sols []Assignment
	require.NoError(t, res.Solutions(func(a Assignment) bool {
		sols = append(sols, a)
		return true
	}))
	assert.Len(t, sols, 2)
	for _, a := range sols {
		assert.Equal(t, a[0], a[1])
	}
}

func TestSwapIsInvolution(t *testing.T) {
	sys := NewSystem()
	spec := BDDSpec{
		ID: 1,
		Levels: []LevelSpec{
			{LHS: []int{1}, Nodes: []NodeSpec{{ID: 1, Zero: 2, One: 3}}},
			{LHS: []int{2}, Nodes: []NodeSpec{
				{ID: 2, Zero: 4},
				{ID: 3, One: 4},
			}},
			{Nodes: []NodeSpec{{ID: 4}}},
		},
	}
	id, err := sys.AppendBDD(spec)
	require.NoError(t, err)

	// toSpec() is not compared directly here: swap always reallocates
	// level i+1's nodes (swap.go's canonicalization table), and the
	// sink's public id in toSpec() tracks the arena's high-water mark
	// (bdd_build.go's toSpec, sinkSpecID), so even a perfectly correct
	// double swap relabels nodes and shifts the sink's displayed id.
	// What must survive is the solution set, which is exactly what E3
	// ("swap is an involution that preserves path semantics") claims.
	before, err := sys.CollectSolutions()
	require.NoError(t, err)
	require.NoError(t, sys.Swap(id, 0))
	require.NoError(t, sys.Swap(id, 0))
	after, err := sys.CollectSolutions()
	require.NoError(t, err)

	if diff := cmp.Diff(sortedAssignments(before), sortedAssignments(after)); diff != "" {
		t.Errorf("swapping twice did not preserve the bdd's solution set (-before +after):\n%s", diff)
	}
}

// assignmentKey renders a into a deterministic string: fmt sorts map
// keys when formatting, so two equal Assignments always render equal
// regardless of enumeration order.
func assignmentKey(a Assignment) string {
	return fmt.Sprint(a)
}

func sortedAssignments(as []Assignment) []Assignment {
	out := append([]Assignment(nil), as...)
	sort.Slice(out, func(i, j int) bool {
		return assignmentKey(out[i]) < assignmentKey(out[j])
	})
	return out
}

func TestDependenceDetectsLinearCombination(t *testing.T) {
	b := &bdd{id: 1, levels: []*level{
		{lhs: gf2.NewLC(1, 2)},
		{lhs: gf2.NewLC(2, 3)},
		{lhs: gf2.NewLC(1, 3)}, // = level0.lhs xor level1.lhs
		{lhs: gf2.LC{}},        // terminal
	}}
	assert.True(t, b.dependence(2))
}

func TestDependenceRejectsIndependentLHS(t *testing.T) {
	b := &bdd{id: 1, levels: []*level{
		{lhs: gf2.NewLC(1, 2)},
		{lhs: gf2.NewLC(2, 3)},
		{lhs: gf2.NewLC(1, 4)}, // not in the span of {1,2} and {2,3}
		{lhs: gf2.LC{}},
	}}
	assert.False(t, b.dependence(2))
}

func TestProtectedVariableRefusesDrop(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 1, 2))
	require.NoError(t, err)
	sys.Protect(1)

	err = sys.Drop(1)
	var protErr *ProtectedDropError
	require.Error(t, err)
	require.ErrorAs(t, err, &protErr)
	assert.Equal(t, 1, protErr.Variable)
}

// buildXorSystemWithVar2Dropped returns a fresh System whose only
// constraint was x1 + x2 = 0, with variable 2 already dropped.
func buildXorSystemWithVar2Dropped(t *testing.T) *System {
	t.Helper()
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 1, 2))
	require.NoError(t, err)
	require.NoError(t, sys.Drop(2))
	return sys
}

func TestDropProjectsAwayVariable(t *testing.T) {
	sys := buildXorSystemWithVar2Dropped(t)
	assert.False(t, sys.IsProtected(2))

	// Variable 2 must be gone from the system entirely, not merely
	// unprotected: no bdd indexes it any more, and it is not pinned to
	// a value in the lin bank either.
	_, indexed := sys.varIndex[2]
	assert.False(t, indexed, "dropped variable must not be indexed by any bdd")
	_, pinned := sys.ValueOf(2)
	assert.False(t, pinned, "dropping a variable projects it away; it must not end up pinned to a value")

	// x1 + x2 = 0 was the only constraint relating the two, so
	// projecting x2 away must leave x1 itself unconstrained too: not
	// pinned right after the drop, and consistent with either value.
	_, pinned = sys.ValueOf(1)
	assert.False(t, pinned, "variable 1 was only ever related to variable 2 by the dropped constraint and must remain free")

	res, err := Solve(sys, LinearAbsorption{})
	require.NoError(t, err)
	assert.NotEqual(t, Inconsistent, res.Kind)

	for _, val := range []bool{true, false} {
		trial := buildXorSystemWithVar2Dropped(t)
		require.NoError(t, trial.Fix(1, val), "variable 1 should still be enumerable to %t after variable 2 is dropped", val)
		_, err := Solve(trial, LinearAbsorption{})
		require.NoError(t, err)
	}
}

func TestFixAbsentVariableIsNoop(t *testing.T) {
	sys := NewSystem()
	id, err := sys.AppendBDD(xorConstraint(1, 1, 2))
	require.NoError(t, err)
	before := sys.bdds[id].toSpec()

	require.NoError(t, sys.Fix(99, true))

	after := sys.bdds[id].toSpec()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("fixing an absent variable changed the bdd (-before +after):\n%s", diff)
	}
}

func TestFixForcesValueIntoLinBank(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 0, 1))
	require.NoError(t, err)

	require.NoError(t, sys.Fix(0, true))

	res, err := Solve(sys, LinearAbsorption{})
	require.NoError(t, err)
	require.Equal(t, UniqueSolution, res.Kind)
	assert.Equal(t, true, res.Solution[0])
	assert.Equal(t, true, res.Solution[1])
}

func TestEmptySystemIsUniqueTrivialSolution(t *testing.T) {
	sys := NewSystem()
	res, err := Solve(sys, LinearAbsorption{})
	require.NoError(t, err)
	assert.Equal(t, UniqueSolution, res.Kind)
	assert.Empty(t, res.Solution)
}

func TestCheckLHSDistinctRejectsDuplicateLevelLHS(t *testing.T) {
	spec := BDDSpec{
		ID: 1,
		Levels: []LevelSpec{
			{LHS: []int{1}, Nodes: []NodeSpec{{ID: 1, Zero: 2, One: 3}}},
			{LHS: []int{1}, Nodes: []NodeSpec{
				{ID: 2, Zero: 4},
				{ID: 3, One: 4},
			}},
			{Nodes: []NodeSpec{{ID: 4}}},
		},
	}
	b, err := buildBDD(spec)
	require.NoError(t, err)

	err = b.checkLHSDistinct()
	require.Error(t, err)
	var malformedErr *MalformedInputError
	require.ErrorAs(t, err, &malformedErr)
}

func TestVarIndexAgreesWithLevels(t *testing.T) {
	sys := NewSystem()
	id, err := sys.AppendBDD(xorConstraint(1, 1, 2))
	require.NoError(t, err)

	for _, v := range []int{1, 2} {
		assert.True(t, sys.varIndex[v][id], "variable %d should index bdd %d", v, id)
	}
}

// TestExchangeRoundTrip covers §6.2's External Interface (ParseSystem,
// WriteSystem) and property E5: serializing a System and parsing it
// back must reproduce every bdd bit-exactly, and must preserve the
// solution set. ParseSystem builds each bdd fresh via buildBDD, which
// numbers nodes in declaration order; the bdds here were built the
// same way and never mutated, so the serialized ids are already in
// that order and the round-tripped toSpec() is expected to match
// byte-for-byte, not merely up to relabeling.
func TestExchangeRoundTrip(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 0, 1))
	require.NoError(t, err)
	_, err = sys.AppendBDD(forcedVar(2, 2, true))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSystem(&buf, sys, 3))

	roundTripped, err := ParseSystem(&buf)
	require.NoError(t, err)
	require.Equal(t, sys.BDDCount(), roundTripped.BDDCount())

	for _, id := range sys.BDDIDs() {
		before := sys.bdds[id].toSpec()
		after := roundTripped.bdds[id].toSpec()
		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("bdd %d not bit-exactly preserved across write/parse round-trip (-before +after):\n%s", id, diff)
		}
	}

	wantCount, err := sys.CountSolutions()
	require.NoError(t, err)
	gotCount, err := roundTripped.CountSolutions()
	require.NoError(t, err)
	assert.Equal(t, wantCount.Int64(), gotCount.Int64())
}

func TestWriteDOTDoesNotError(t *testing.T) {
	sys := NewSystem()
	_, err := sys.AppendBDD(xorConstraint(1, 1, 2))
	require.NoError(t, err)

	var buf stringWriter
	require.NoError(t, sys.WriteDOT(&buf))
	assert.Contains(t, buf.s, "digraph G {")
	assert.Contains(t, buf.s, "cluster_1")
}

type stringWriter struct{ s string }

func (w *stringWriter) Write(p []byte) (int, error) {
	w.s += string(p)
	return len(p), nil
}
