package solver

import (
	"errors"
	"sort"
)

const eps = 1e-6

// ErrNodeLimit is returned when the node budget runs out before any feasible
// assignment has been found. If an incumbent exists when the budget runs out,
// Solve returns it without error; it may then be suboptimal.
var ErrNodeLimit = errors.New("solver: node limit reached without a feasible solution")

type Options struct {
	// MaxNodes bounds the search tree. Zero means the default budget.
	MaxNodes int
}

const defaultMaxNodes = 4 << 20

// Result is the solver contract: a feasibility flag, the objective value and
// a 0/1 value per declared variable. Callers round at 0.5.
type Result struct {
	Feasible  bool
	Objective float64
	Values    []float64
}

type varEntry struct {
	con  int
	coef float64
}

type search struct {
	m       *Model
	varCons [][]varEntry

	// Per-constraint running bounds: fixedSum is the contribution of fixed
	// variables, minRest/maxRest the least/greatest contribution still
	// reachable from unfixed ones.
	fixedSum []float64
	minRest  []float64
	maxRest  []float64

	order   []int
	posRest []float64 // posRest[d] = sum of positive scores of order[d:]
	values  []int8

	bestValues []int8
	bestScore  float64
	found      bool

	nodes    int
	maxNodes int
	limited  bool
}

// Solve runs an exact depth-first branch-and-bound over the binary variables.
// Infeasibility is reported through the result, not as an error.
func Solve(m *Model, opts Options) (*Result, error) {
	n := m.NumVariables()

	s := &search{
		m:        m,
		varCons:  make([][]varEntry, n),
		fixedSum: make([]float64, len(m.constraints)),
		minRest:  make([]float64, len(m.constraints)),
		maxRest:  make([]float64, len(m.constraints)),
		values:   make([]int8, n),
		maxNodes: opts.MaxNodes,
	}
	if s.maxNodes <= 0 {
		s.maxNodes = defaultMaxNodes
	}

	for ci, c := range m.constraints {
		for _, t := range c.terms {
			s.varCons[t.Var] = append(s.varCons[t.Var], varEntry{con: ci, coef: t.Coef})
			if t.Coef > 0 {
				s.maxRest[ci] += t.Coef
			} else {
				s.minRest[ci] += t.Coef
			}
		}
	}

	// Constraints that are impossible even before branching (e.g. an exact
	// cover over an empty candidate set) make the whole model infeasible.
	for ci := range m.constraints {
		if !s.consistent(ci) {
			return &Result{Feasible: false}, nil
		}
	}

	// Branch on high-score variables first; stable order keeps the search
	// (and therefore tie-breaking) deterministic.
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		return m.scores[s.order[i]] > m.scores[s.order[j]]
	})

	s.posRest = make([]float64, n+1)
	for d := n - 1; d >= 0; d-- {
		s.posRest[d] = s.posRest[d+1]
		if sc := m.scores[s.order[d]]; sc > 0 {
			s.posRest[d] += sc
		}
	}

	s.dfs(0, 0)

	if !s.found {
		if s.limited {
			return &Result{Feasible: false}, ErrNodeLimit
		}
		return &Result{Feasible: false}, nil
	}

	values := make([]float64, n)
	for i, v := range s.bestValues {
		values[i] = float64(v)
	}
	return &Result{Feasible: true, Objective: s.bestScore, Values: values}, nil
}

func (s *search) dfs(depth int, score float64) {
	if s.limited {
		return
	}
	s.nodes++
	if s.nodes > s.maxNodes {
		s.limited = true
		return
	}

	if s.found && score+s.posRest[depth] <= s.bestScore+eps {
		return
	}

	if depth == len(s.order) {
		if !s.found || score > s.bestScore+eps {
			s.found = true
			s.bestScore = score
			s.bestValues = append(s.bestValues[:0], s.values...)
		}
		return
	}

	v := s.order[depth]

	first := int8(0)
	if s.m.scores[v] > 0 {
		first = 1
	}

	for _, val := range [2]int8{first, 1 - first} {
		s.fix(v, val)
		if s.feasibleAfter(v) {
			s.values[v] = val
			s.dfs(depth+1, score+s.m.scores[v]*float64(val))
		}
		s.unfix(v, val)
		if s.limited {
			return
		}
	}
}

func (s *search) fix(v int, val int8) {
	for _, e := range s.varCons[v] {
		s.fixedSum[e.con] += e.coef * float64(val)
		if e.coef > 0 {
			s.maxRest[e.con] -= e.coef
		} else {
			s.minRest[e.con] -= e.coef
		}
	}
}

func (s *search) unfix(v int, val int8) {
	for _, e := range s.varCons[v] {
		s.fixedSum[e.con] -= e.coef * float64(val)
		if e.coef > 0 {
			s.maxRest[e.con] += e.coef
		} else {
			s.minRest[e.con] += e.coef
		}
	}
}

// feasibleAfter checks only the constraints touched by the last fixed
// variable; all others kept their bounds.
func (s *search) feasibleAfter(v int) bool {
	for _, e := range s.varCons[v] {
		if !s.consistent(e.con) {
			return false
		}
	}
	return true
}

func (s *search) consistent(ci int) bool {
	lo := s.fixedSum[ci] + s.minRest[ci]
	hi := s.fixedSum[ci] + s.maxRest[ci]
	c := &s.m.constraints[ci]

	switch c.sense {
	case LessEq:
		return lo <= c.rhs+eps
	case GreaterEq:
		return hi >= c.rhs-eps
	default: // Equal
		return lo <= c.rhs+eps && hi >= c.rhs-eps
	}
}
