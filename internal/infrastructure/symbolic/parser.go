package symbolic

import (
	"fmt"
	"math"
	"strings"
)

// Parse reads an expression. Implicit multiplication is supported
// ("2x", "3(x+1)", "xy" is x*y) and a function name may be applied without
// parentheses ("sin x").
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: splitIdentifiers(tokens)}
	n, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %s at position %d", ErrSyntax, p.peek(), p.peek().pos)
	}
	return n, nil
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// reservedNames are identifiers that are not split into single letters.
var reservedNames = []string{"sqrt", "sin", "cos", "tan", "exp", "log", "abs", "ln", "pi"}

// splitIdentifiers breaks identifier runs into function names and single
// letter variables, so "xsin" lexes as x sin and "ab" as a b.
func splitIdentifiers(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for _, t := range tokens {
		if t.kind != tokIdent {
			out = append(out, t)
			continue
		}
		text := strings.ToLower(t.text)
		pos := t.pos
		for text != "" {
			name := text[:1]
			for _, r := range reservedNames {
				if strings.HasPrefix(text, r) {
					name = r
					break
				}
			}
			out = append(out, token{kind: tokIdent, text: name, pos: pos})
			text = text[len(name):]
			pos += len(name)
		}
	}
	return out
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseSum() (Node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokPlus, tokMinus:
			op := byte('+')
			if p.next().kind == tokMinus {
				op = '-'
			}
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseProduct() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch k := p.peek().kind; {
		case k == tokStar || k == tokSlash:
			op := byte('*')
			if p.next().kind == tokSlash {
				op = '/'
			}
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, L: left, R: right}
		case k == tokNumber || k == tokIdent || k == tokLParen:
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '*', L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	switch p.peek().kind {
	case tokMinus:
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg{X: x}, nil
	case tokPlus:
		p.next()
		return p.parseUnary()
	default:
		return p.parsePower()
	}
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokCaret {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Binary{Op: '^', L: base, R: exp}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return Num{V: t.num}, nil

	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis for position %d", ErrSyntax, t.pos)
		}
		return inner, nil

	case tokIdent:
		if v, ok := constants[t.text]; ok {
			return Const{Name: t.text, V: v}, nil
		}
		if _, ok := functions[t.text]; ok {
			if p.peek().kind == tokEOF {
				return nil, fmt.Errorf("%w: function %s needs an argument", ErrSyntax, t.text)
			}
			// sin(x)^2 squares the call; sin x^2 squares the argument.
			parseArg := p.parsePower
			if p.peek().kind == tokLParen {
				parseArg = p.parsePrimary
			}
			arg, err := parseArg()
			if err != nil {
				return nil, err
			}
			return Call{Fn: t.text, Arg: arg}, nil
		}
		return Var{Name: t.text}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected %s at position %d", ErrSyntax, t, t.pos)
	}
}
