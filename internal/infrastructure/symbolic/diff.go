package symbolic

import "fmt"

// Derivative returns d(n)/d(v).
func Derivative(n Node, v string) (Node, error) {
	switch t := n.(type) {
	case Num, Const:
		return num(0), nil

	case Var:
		if t.Name == v {
			return num(1), nil
		}
		return num(0), nil

	case Neg:
		d, err := Derivative(t.X, v)
		if err != nil {
			return nil, err
		}
		return neg(d), nil

	case Binary:
		return derivativeBinary(t, v)

	case Call:
		return derivativeCall(t, v)
	}
	return nil, fmt.Errorf("%w: cannot differentiate %s", ErrUnsupported, n)
}

func derivativeBinary(b Binary, v string) (Node, error) {
	dl, err := Derivative(b.L, v)
	if err != nil {
		return nil, err
	}
	dr, err := Derivative(b.R, v)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case '+':
		return add(dl, dr), nil
	case '-':
		return sub(dl, dr), nil
	case '*':
		return add(mul(dl, b.R), mul(b.L, dr)), nil
	case '/':
		if !dependsOn(b.R, v) {
			return div(dl, b.R), nil
		}
		return div(sub(mul(dl, b.R), mul(b.L, dr)), pow(b.R, num(2))), nil
	case '^':
		switch {
		case !dependsOn(b.R, v):
			// Power rule: n*u^(n-1)*u'
			return mul(mul(b.R, pow(b.L, sub(b.R, num(1)))), dl), nil
		case !dependsOn(b.L, v):
			// a^u -> a^u*ln(a)*u'
			return mul(mul(b, call("ln", b.L)), dr), nil
		default:
			// u^w -> u^w*(w'*ln(u) + w*u'/u)
			return mul(b, add(mul(dr, call("ln", b.L)), div(mul(b.R, dl), b.L))), nil
		}
	}
	return nil, fmt.Errorf("%w: operator %q", ErrUnsupported, b.Op)
}

func derivativeCall(c Call, v string) (Node, error) {
	du, err := Derivative(c.Arg, v)
	if err != nil {
		return nil, err
	}
	if isNum(du, 0) {
		return num(0), nil
	}

	u := c.Arg
	var outer Node
	switch c.Fn {
	case "sin":
		outer = call("cos", u)
	case "cos":
		outer = neg(call("sin", u))
	case "tan":
		outer = div(num(1), pow(call("cos", u), num(2)))
	case "exp":
		outer = c
	case "ln", "log":
		return div(du, u), nil
	case "sqrt":
		return div(du, mul(num(2), c)), nil
	default:
		return nil, fmt.Errorf("%w: cannot differentiate %s", ErrUnsupported, c.Fn)
	}
	return mul(outer, du), nil
}
