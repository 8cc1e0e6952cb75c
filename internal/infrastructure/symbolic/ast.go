package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Node is a parsed expression.
type Node interface {
	// Eval computes the node under the variable bindings.
	Eval(env map[string]float64) (float64, error)

	String() string

	precedence() int
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Num is a numeric literal.
type Num struct{ V float64 }

// Const is a named constant (pi or e).
type Const struct {
	Name string
	V    float64
}

// Var is a free variable.
type Var struct{ Name string }

// Binary is an infix operation; Op is one of + - * / ^.
type Binary struct {
	Op   byte
	L, R Node
}

// Neg is unary minus.
type Neg struct{ X Node }

// Call applies a named elementary function.
type Call struct {
	Fn  string
	Arg Node
}

func (n Num) Eval(map[string]float64) (float64, error) { return n.V, nil }

// String keeps large constants in plain digits so that the lexer, which has
// no exponent syntax, reads them back.
func (n Num) String() string {
	if math.Abs(n.V) >= 1e15 {
		return strconv.FormatFloat(n.V, 'f', -1, 64)
	}
	return models.FormatNumber(n.V)
}

func (n Num) precedence() int {
	if n.V < 0 {
		return precUnary
	}
	return precAtom
}

func (c Const) Eval(map[string]float64) (float64, error) { return c.V, nil }
func (c Const) String() string                           { return c.Name }
func (c Const) precedence() int                          { return precAtom }

func (v Var) Eval(env map[string]float64) (float64, error) {
	val, ok := env[v.Name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedVariable, v.Name)
	}
	return val, nil
}
func (v Var) String() string  { return v.Name }
func (v Var) precedence() int { return precAtom }

func (b Binary) Eval(env map[string]float64) (float64, error) {
	l, err := b.L.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval(env)
	if err != nil {
		return 0, err
	}

	var out float64
	switch b.Op {
	case '+':
		out = l + r
	case '-':
		out = l - r
	case '*':
		out = l * r
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrDomain)
		}
		out = l / r
	case '^':
		out = math.Pow(l, r)
	default:
		return 0, fmt.Errorf("%w: operator %q", ErrUnsupported, b.Op)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: %s is undefined", ErrDomain, b.String())
	}
	return out, nil
}

func (b Binary) precedence() int {
	switch b.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	default:
		return precPower
	}
}

func (b Binary) String() string {
	p := b.precedence()
	left := b.L.String()
	right := b.R.String()

	if b.Op == '^' {
		// Power is right-associative: parenthesize any non-atomic base.
		if b.L.precedence() <= precPower {
			left = "(" + left + ")"
		}
		if b.R.precedence() < precPower {
			right = "(" + right + ")"
		}
		return left + "^" + right
	}

	if b.L.precedence() < p {
		left = "(" + left + ")"
	}
	rp := b.R.precedence()
	if rp < p || (rp == p && (b.Op == '-' || b.Op == '/')) || (rp == precUnary && p >= precSum) {
		right = "(" + right + ")"
	}
	switch b.Op {
	case '+', '-':
		return left + " " + string(b.Op) + " " + right
	default:
		return left + string(b.Op) + right
	}
}

func (n Neg) Eval(env map[string]float64) (float64, error) {
	v, err := n.X.Eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n Neg) String() string {
	if n.X.precedence() < precProduct {
		return "-(" + n.X.String() + ")"
	}
	return "-" + n.X.String()
}

func (n Neg) precedence() int { return precUnary }

var functions = map[string]func(float64) (float64, error){
	"sin": func(x float64) (float64, error) { return math.Sin(x), nil },
	"cos": func(x float64) (float64, error) { return math.Cos(x), nil },
	"tan": func(x float64) (float64, error) {
		if math.Abs(math.Cos(x)) < 1e-15 {
			return 0, fmt.Errorf("%w: tan undefined at %g", ErrDomain, x)
		}
		return math.Tan(x), nil
	},
	"exp": func(x float64) (float64, error) { return math.Exp(x), nil },
	"ln":  logarithm,
	"log": logarithm,
	"sqrt": func(x float64) (float64, error) {
		if x < 0 {
			return 0, fmt.Errorf("%w: sqrt of negative number %g", ErrDomain, x)
		}
		return math.Sqrt(x), nil
	},
	"abs": func(x float64) (float64, error) { return math.Abs(x), nil },
}

func logarithm(x float64) (float64, error) {
	if x <= 0 {
		return 0, fmt.Errorf("%w: log of non-positive number %g", ErrDomain, x)
	}
	return math.Log(x), nil
}

func (c Call) Eval(env map[string]float64) (float64, error) {
	fn, ok := functions[c.Fn]
	if !ok {
		return 0, fmt.Errorf("%w: function %s", ErrUnsupported, c.Fn)
	}
	x, err := c.Arg.Eval(env)
	if err != nil {
		return 0, err
	}
	out, err := fn(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: %s is undefined", ErrDomain, c.String())
	}
	return out, nil
}

func (c Call) String() string  { return c.Fn + "(" + c.Arg.String() + ")" }
func (c Call) precedence() int { return precAtom }

// Variables returns the sorted set of free variables in n.
func Variables(n Node) []string {
	seen := map[string]struct{}{}
	collectVars(n, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectVars(n Node, seen map[string]struct{}) {
	switch t := n.(type) {
	case Var:
		seen[t.Name] = struct{}{}
	case Binary:
		collectVars(t.L, seen)
		collectVars(t.R, seen)
	case Neg:
		collectVars(t.X, seen)
	case Call:
		collectVars(t.Arg, seen)
	}
}

// dependsOn reports whether n contains the variable v.
func dependsOn(n Node, v string) bool {
	switch t := n.(type) {
	case Var:
		return t.Name == v
	case Binary:
		return dependsOn(t.L, v) || dependsOn(t.R, v)
	case Neg:
		return dependsOn(t.X, v)
	case Call:
		return dependsOn(t.Arg, v)
	default:
		return false
	}
}
