// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package gf2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXorIsGroupOp(t *testing.T) {
	a := NewLC(1, 2, 3)
	b := NewLC(2, 3, 4)
	c := a.Xor(b)
	assert.Equal(t, []int{1, 4}, c.Vars())
	assert.True(t, c.Xor(c).IsZero())
}

func TestNewLCCancelsDuplicates(t *testing.T) {
	a := NewLC(1, 2, 1)
	assert.Equal(t, []int{2}, a.Vars())
}

func TestIsZero(t *testing.T) {
	assert.True(t, NewLC().IsZero())
	assert.False(t, NewLC(0).IsZero())
}

func TestReduceEliminatesPivots(t *testing.T) {
	basis := []LC{NewLC(1, 2), NewLC(3, 4)}
	v := NewLC(1, 2, 3, 4, 5)
	res := Reduce(basis, v)
	assert.Equal(t, []int{5}, res.Vars())
}

func TestExtendBasisPivotsOnSmallestID(t *testing.T) {
	var basis []LC
	basis, added, pivot := ExtendBasis(basis, NewLC(2, 5))
	assert.True(t, added)
	assert.Equal(t, 2, pivot)

	basis, added, pivot = ExtendBasis(basis, NewLC(2, 5))
	assert.False(t, added)
	assert.Equal(t, -1, pivot)
	assert.Len(t, basis, 1)
}

func TestSubstitute(t *testing.T) {
	v := NewLC(1, 2, 3)
	repl := NewLC(4, 5)
	out := v.Substitute(2, repl)
	assert.Equal(t, []int{1, 3, 4, 5}, out.Vars())

	unchanged := v.Substitute(9, repl)
	assert.True(t, unchanged.Equal(v))
}

func TestSolveLinearSystem(t *testing.T) {
	basis := []LC{NewLC(0, 1), NewLC(1)}
	rhs := []bool{true, false}
	got := SolveLinearSystem(basis, rhs, 2)
	if assert.NotNil(t, got[1]) {
		assert.False(t, got[1].RHS)
		assert.Empty(t, got[1].Deps)
	}
	if assert.NotNil(t, got[0]) {
		assert.True(t, got[0].RHS)
		assert.Empty(t, got[0].Deps)
	}
}

func TestSolveLinearSystemReportsDependencyOnFreeVariable(t *testing.T) {
	// x0 + x1 = false; x1 (the larger id) is the pivot and x0 is never
	// pinned by any other equation, so x0 is free and x1's value is an
	// affine formula over x0, not a plain constant.
	basis := []LC{NewLC(0, 1)}
	rhs := []bool{false}
	got := SolveLinearSystem(basis, rhs, 2)

	assert.Nil(t, got[0])
	if assert.NotNil(t, got[1]) {
		assert.False(t, got[1].RHS)
		assert.Equal(t, []int{0}, got[1].Deps)
	}
}

func TestMatrixRank(t *testing.T) {
	m := NewMatrix(4, NewLC(0, 1), NewLC(1, 2), NewLC(0, 2))
	assert.Equal(t, 2, m.Rank())
}
