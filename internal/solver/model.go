package solver

// Sense of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Term is one coefficient of a linear expression.
type Term struct {
	Var  int
	Coef float64
}

type constraint struct {
	terms []Term
	sense Sense
	rhs   float64
}

// Model is a binary linear program: every variable takes value 0 or 1, the
// objective is maximized.
type Model struct {
	scores      []float64
	constraints []constraint
}

func NewModel() *Model {
	return &Model{}
}

// AddBinary declares a binary variable with the given objective coefficient
// and returns its index.
func (m *Model) AddBinary(score float64) int {
	m.scores = append(m.scores, score)
	return len(m.scores) - 1
}

func (m *Model) NumVariables() int {
	return len(m.scores)
}

func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

func (m *Model) AddConstraint(terms []Term, sense Sense, rhs float64) {
	m.constraints = append(m.constraints, constraint{terms: terms, sense: sense, rhs: rhs})
}

// Sum builds unit-coefficient terms over the given variables.
func Sum(vars []int) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	return terms
}
