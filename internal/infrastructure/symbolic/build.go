package symbolic

// Constructors that fold constants and drop identities, so derivatives and
// antiderivatives print compactly.

func num(v float64) Node { return Num{V: v} }

func isNum(n Node, v float64) bool {
	c, ok := n.(Num)
	return ok && c.V == v
}

func add(a, b Node) Node {
	if x, ok := a.(Num); ok {
		if y, ok := b.(Num); ok {
			return num(x.V + y.V)
		}
	}
	switch {
	case isNum(a, 0):
		return b
	case isNum(b, 0):
		return a
	}
	if y, ok := b.(Num); ok && y.V < 0 {
		return Binary{Op: '-', L: a, R: num(-y.V)}
	}
	if y, ok := b.(Neg); ok {
		return Binary{Op: '-', L: a, R: y.X}
	}
	return Binary{Op: '+', L: a, R: b}
}

func sub(a, b Node) Node {
	if x, ok := a.(Num); ok {
		if y, ok := b.(Num); ok {
			return num(x.V - y.V)
		}
	}
	switch {
	case isNum(b, 0):
		return a
	case isNum(a, 0):
		return neg(b)
	}
	if y, ok := b.(Neg); ok {
		return add(a, y.X)
	}
	return Binary{Op: '-', L: a, R: b}
}

func mul(a, b Node) Node {
	if x, ok := a.(Num); ok {
		if y, ok := b.(Num); ok {
			return num(x.V * y.V)
		}
	}
	switch {
	case isNum(a, 0), isNum(b, 0):
		return num(0)
	case isNum(a, 1):
		return b
	case isNum(b, 1):
		return a
	case isNum(a, -1):
		return neg(b)
	case isNum(b, -1):
		return neg(a)
	}
	// Keep numeric coefficients on the left.
	if _, ok := b.(Num); ok {
		a, b = b, a
	}
	if x, ok := a.(Num); ok {
		if y, ok := b.(Binary); ok && y.Op == '*' {
			if c, ok := y.L.(Num); ok {
				return mul(num(x.V*c.V), y.R)
			}
		}
		if x.V < 0 {
			return neg(mul(num(-x.V), b))
		}
	}
	if x, ok := a.(Neg); ok {
		return neg(mul(x.X, b))
	}
	if y, ok := b.(Neg); ok {
		return neg(mul(a, y.X))
	}
	return Binary{Op: '*', L: a, R: b}
}

func div(a, b Node) Node {
	if x, ok := a.(Num); ok {
		if y, ok := b.(Num); ok && y.V != 0 {
			return num(x.V / y.V)
		}
	}
	switch {
	case isNum(a, 0):
		return num(0)
	case isNum(b, 1):
		return a
	}
	return Binary{Op: '/', L: a, R: b}
}

func pow(a, b Node) Node {
	switch {
	case isNum(b, 0):
		return num(1)
	case isNum(b, 1):
		return a
	}
	return Binary{Op: '^', L: a, R: b}
}

func neg(a Node) Node {
	switch x := a.(type) {
	case Num:
		return num(-x.V)
	case Neg:
		return x.X
	}
	return Neg{X: a}
}

func call(fn string, arg Node) Node {
	return Call{Fn: fn, Arg: arg}
}
