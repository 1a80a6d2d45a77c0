package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolvePicksHighestScoreUnderExactCover(t *testing.T) {
	m := NewModel()
	a := m.AddBinary(5)
	b := m.AddBinary(3)
	m.AddConstraint(Sum([]int{a, b}), Equal, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 5, res.Objective, 1e-9)
	assert.Equal(t, 1.0, res.Values[a])
	assert.Equal(t, 0.0, res.Values[b])
}

func TestSolveEmptyExactCoverIsInfeasible(t *testing.T) {
	m := NewModel()
	m.AddBinary(1)
	m.AddConstraint(nil, Equal, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.False(t, res.Feasible)
}

func TestSolveConflictingBoundsAreInfeasible(t *testing.T) {
	m := NewModel()
	a := m.AddBinary(1)
	m.AddConstraint(Sum([]int{a}), LessEq, 0)
	m.AddConstraint(Sum([]int{a}), GreaterEq, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.False(t, res.Feasible)
}

func TestSolveCapacityCeilingKeepsBestTwo(t *testing.T) {
	m := NewModel()
	a := m.AddBinary(30)
	b := m.AddBinary(20)
	c := m.AddBinary(10)
	m.AddConstraint(Sum([]int{a, b, c}), LessEq, 2)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 50, res.Objective, 1e-9)
	assert.Equal(t, 1.0, res.Values[a])
	assert.Equal(t, 1.0, res.Values[b])
	assert.Equal(t, 0.0, res.Values[c])
}

func TestSolveExactCoverWithUniqueness(t *testing.T) {
	// Two demand units, two workers. Worker 0 scores higher on both units but
	// may only take one of them.
	m := NewModel()
	u0w0 := m.AddBinary(10)
	u0w1 := m.AddBinary(4)
	u1w0 := m.AddBinary(9)
	u1w1 := m.AddBinary(5)
	m.AddConstraint(Sum([]int{u0w0, u0w1}), Equal, 1)
	m.AddConstraint(Sum([]int{u1w0, u1w1}), Equal, 1)
	m.AddConstraint(Sum([]int{u0w0, u1w0}), LessEq, 1)
	m.AddConstraint(Sum([]int{u0w1, u1w1}), LessEq, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 15, res.Objective, 1e-9)
	assert.Equal(t, 1.0, res.Values[u0w0])
	assert.Equal(t, 1.0, res.Values[u1w1])
}

func TestSolveLinkedPenaltyVariableIsForced(t *testing.T) {
	// p >= m + a - 1 written as m + a - p <= 1. Both halves are worth taking,
	// so the penalty must flip to 1 and cost its score.
	m := NewModel()
	mv := m.AddBinary(10)
	av := m.AddBinary(10)
	p := m.AddBinary(-4)
	m.AddConstraint([]Term{{Var: mv, Coef: 1}, {Var: av, Coef: 1}, {Var: p, Coef: -1}}, LessEq, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 16, res.Objective, 1e-9)
	assert.Equal(t, 1.0, res.Values[p])
}

func TestSolvePenaltyVariableStaysZeroWhenUnforced(t *testing.T) {
	m := NewModel()
	mv := m.AddBinary(10)
	av := m.AddBinary(-2)
	p := m.AddBinary(-4)
	m.AddConstraint([]Term{{Var: mv, Coef: 1}, {Var: av, Coef: 1}, {Var: p, Coef: -1}}, LessEq, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, 10, res.Objective, 1e-9)
	assert.Equal(t, 0.0, res.Values[av])
	assert.Equal(t, 0.0, res.Values[p])
}

func TestSolveDayLinkForcesAnAssignment(t *testing.T) {
	// w <= x1 + x2 and w >= 1: at least one assignment variable must be on
	// even though both carry negative scores.
	m := NewModel()
	x1 := m.AddBinary(-1)
	x2 := m.AddBinary(-3)
	w := m.AddBinary(0)
	m.AddConstraint([]Term{{Var: w, Coef: 1}, {Var: x1, Coef: -1}, {Var: x2, Coef: -1}}, LessEq, 0)
	m.AddConstraint(Sum([]int{w}), GreaterEq, 1)

	res, err := Solve(m, Options{})
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.InDelta(t, -1, res.Objective, 1e-9)
	assert.Equal(t, 1.0, res.Values[x1])
	assert.Equal(t, 0.0, res.Values[x2])
	assert.Equal(t, 1.0, res.Values[w])
}

func TestSolveNodeLimitWithoutIncumbent(t *testing.T) {
	m := NewModel()
	a := m.AddBinary(1)
	b := m.AddBinary(1)
	m.AddConstraint(Sum([]int{a, b}), Equal, 1)

	res, err := Solve(m, Options{MaxNodes: 1})
	require.ErrorIs(t, err, ErrNodeLimit)
	assert.False(t, res.Feasible)
}

func TestSolveIsDeterministicOnTies(t *testing.T) {
	m := NewModel()
	a := m.AddBinary(5)
	b := m.AddBinary(5)
	m.AddConstraint(Sum([]int{a, b}), Equal, 1)

	first, err := Solve(m, Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Solve(m, Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Values, again.Values)
	}
}
