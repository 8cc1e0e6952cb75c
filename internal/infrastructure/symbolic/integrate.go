package symbolic

import (
	"fmt"
	"math"
)

// Antiderivative returns an antiderivative of n with respect to v (without
// the constant of integration). Supported: polynomials, constant multiples,
// sums, 1/u, and sin, cos, exp, sqrt, powers of a linear argument.
func Antiderivative(n Node, v string) (Node, error) {
	if !dependsOn(n, v) {
		return mul(n, Var{Name: v}), nil
	}
	if p, err := polynomialOf(n, v); err == nil {
		return integratePolynomial(p, v), nil
	}

	switch t := n.(type) {
	case Neg:
		inner, err := Antiderivative(t.X, v)
		if err != nil {
			return nil, err
		}
		return neg(inner), nil

	case Binary:
		return antiderivativeBinary(t, v)

	case Call:
		return antiderivativeCall(t, v)
	}
	return nil, fmt.Errorf("%w: cannot integrate %s", ErrUnsupported, n)
}

func integratePolynomial(p polynomial, v string) Node {
	out := make(polynomial, len(p)+1)
	for i, c := range p {
		out[i+1] = c / float64(i+1)
	}
	return out.toNode(v)
}

func antiderivativeBinary(b Binary, v string) (Node, error) {
	switch b.Op {
	case '+', '-':
		l, err := Antiderivative(b.L, v)
		if err != nil {
			return nil, err
		}
		r, err := Antiderivative(b.R, v)
		if err != nil {
			return nil, err
		}
		if b.Op == '+' {
			return add(l, r), nil
		}
		return sub(l, r), nil

	case '*':
		if !dependsOn(b.L, v) {
			inner, err := Antiderivative(b.R, v)
			if err != nil {
				return nil, err
			}
			return mul(b.L, inner), nil
		}
		if !dependsOn(b.R, v) {
			inner, err := Antiderivative(b.L, v)
			if err != nil {
				return nil, err
			}
			return mul(b.R, inner), nil
		}

	case '/':
		if !dependsOn(b.R, v) {
			inner, err := Antiderivative(b.L, v)
			if err != nil {
				return nil, err
			}
			return div(inner, b.R), nil
		}
		if !dependsOn(b.L, v) {
			// c/(a*x+b) -> c*ln(a*x+b)/a
			if a, ok := linearSlope(b.R, v); ok {
				return div(mul(b.L, call("ln", b.R)), num(a)), nil
			}
		}

	case '^':
		if dependsOn(b.R, v) {
			break
		}
		a, ok := linearSlope(b.L, v)
		if !ok {
			break
		}
		e, err := b.R.Eval(nil)
		if err != nil {
			return nil, err
		}
		if e == -1 {
			return div(call("ln", b.L), num(a)), nil
		}
		return div(pow(b.L, num(e+1)), num(a*(e+1))), nil
	}
	return nil, fmt.Errorf("%w: cannot integrate %s", ErrUnsupported, b)
}

func antiderivativeCall(c Call, v string) (Node, error) {
	a, ok := linearSlope(c.Arg, v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot integrate %s", ErrUnsupported, c)
	}
	u := c.Arg
	switch c.Fn {
	case "sin":
		return div(neg(call("cos", u)), num(a)), nil
	case "cos":
		return div(call("sin", u), num(a)), nil
	case "exp":
		return div(c, num(a)), nil
	case "sqrt":
		return div(mul(num(2), pow(u, num(1.5))), num(3*a)), nil
	}
	return nil, fmt.Errorf("%w: cannot integrate %s", ErrUnsupported, c)
}

// linearSlope reports the slope a when n is a*v + b with a != 0.
func linearSlope(n Node, v string) (float64, bool) {
	p, err := polynomialOf(n, v)
	if err != nil || p.degree() != 1 {
		return 0, false
	}
	a := p.at(1)
	if math.Abs(a) < 1e-12 {
		return 0, false
	}
	return a, true
}
