package models

// ProblemKind is the closed set of problem shapes the strategies dispatch on.
type ProblemKind int

const (
	KindArithmetic ProblemKind = iota
	KindEquation
	KindDerivative
	KindIntegral
	KindGeometry
	KindWordProblem
)

var problemKindNames = map[ProblemKind]string{
	KindArithmetic:  "arithmetic",
	KindEquation:    "equation",
	KindDerivative:  "derivative",
	KindIntegral:    "integral",
	KindGeometry:    "geometry",
	KindWordProblem: "word_problem",
}

// String returns the kind label used in traces.
func (k ProblemKind) String() string {
	if name, ok := problemKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsCalculus reports whether the kind is a derivative or an integral.
func (k ProblemKind) IsCalculus() bool {
	return k == KindDerivative || k == KindIntegral
}

// Problem is one record of the problem feed.
type Problem struct {
	ID              string          `json:"id"`
	Text            string          `json:"problem"`
	ExpectedAnswer  string          `json:"answer"`
	ComplexityLevel ComplexityLevel `json:"complexity_level"`
}

// Bounds are the limits of a definite integral.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}
