package symbolic

import (
	"fmt"
	"math"

	"github.com/mshogin/fastslow/internal/domain/models"
)

const maxPolyDegree = 12

// polynomial holds coefficients in ascending degree order.
type polynomial []float64

func (p polynomial) degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if math.Abs(p[i]) > 1e-12 {
			return i
		}
	}
	return 0
}

func (p polynomial) isZero() bool {
	return p.degree() == 0 && math.Abs(p.at(0)) <= 1e-12
}

func (p polynomial) at(i int) float64 {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func (p polynomial) plus(q polynomial, sign float64) polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(polynomial, n)
	for i := range out {
		out[i] = p.at(i) + sign*q.at(i)
	}
	return out
}

func (p polynomial) times(q polynomial) polynomial {
	out := make(polynomial, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out
}

func (p polynomial) scale(k float64) polynomial {
	out := make(polynomial, len(p))
	for i, a := range p {
		out[i] = a * k
	}
	return out
}

// toNode renders the polynomial in descending degree order.
func (p polynomial) toNode(v string) Node {
	var out Node = num(0)
	for i := p.degree(); i >= 0; i-- {
		c := p.at(i)
		if math.Abs(c) <= 1e-12 {
			continue
		}
		var term Node
		switch i {
		case 0:
			term = num(c)
		case 1:
			term = mul(num(c), Var{Name: v})
		default:
			term = mul(num(c), pow(Var{Name: v}, num(float64(i))))
		}
		out = add(out, term)
	}
	return out
}

// polynomialOf extracts the coefficients of n as a polynomial in v. Any
// other variable, or a non-polynomial construct involving v, fails.
func polynomialOf(n Node, v string) (polynomial, error) {
	switch t := n.(type) {
	case Num:
		return polynomial{t.V}, nil

	case Const:
		return polynomial{t.V}, nil

	case Var:
		if t.Name == v {
			return polynomial{0, 1}, nil
		}
		return nil, fmt.Errorf("%w: unexpected variable %s", ErrUnsupported, t.Name)

	case Neg:
		p, err := polynomialOf(t.X, v)
		if err != nil {
			return nil, err
		}
		return p.scale(-1), nil

	case Call:
		if dependsOn(t, v) {
			return nil, fmt.Errorf("%w: %s is not polynomial in %s", ErrUnsupported, t, v)
		}
		c, err := t.Eval(nil)
		if err != nil {
			return nil, err
		}
		return polynomial{c}, nil

	case Binary:
		l, err := polynomialOf(t.L, v)
		if err != nil {
			return nil, err
		}
		if t.Op == '^' {
			return polynomialPower(l, t.R, v)
		}
		r, err := polynomialOf(t.R, v)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case '+':
			return l.plus(r, 1), nil
		case '-':
			return l.plus(r, -1), nil
		case '*':
			out := l.times(r)
			if out.degree() > maxPolyDegree {
				return nil, fmt.Errorf("%w: degree above %d", ErrUnsupported, maxPolyDegree)
			}
			return out, nil
		case '/':
			if r.degree() != 0 {
				return nil, fmt.Errorf("%w: %s is a rational function", ErrUnsupported, t)
			}
			if r.at(0) == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrDomain)
			}
			return l.scale(1 / r.at(0)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not polynomial", ErrUnsupported, n)
}

func polynomialPower(base polynomial, exponent Node, v string) (polynomial, error) {
	if dependsOn(exponent, v) {
		return nil, fmt.Errorf("%w: variable exponent", ErrUnsupported)
	}
	e, err := exponent.Eval(nil)
	if err != nil {
		return nil, err
	}
	if base.degree() == 0 {
		return polynomial{math.Pow(base.at(0), e)}, nil
	}
	if e < 0 || e != math.Trunc(e) || int(e)*base.degree() > maxPolyDegree {
		return nil, fmt.Errorf("%w: exponent %s", ErrUnsupported, models.FormatNumber(e))
	}
	out := polynomial{1}
	for i := 0; i < int(e); i++ {
		out = out.times(base)
	}
	return out, nil
}
