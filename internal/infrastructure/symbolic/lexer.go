package symbolic

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex splits an expression into tokens. "**" is folded into "^" and the
// typographic operators × ÷ π are accepted.
func lex(input string) ([]token, error) {
	runes := []rune(input)
	var tokens []token

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || (runes[i] == '.' && !seenDot)) {
				if runes[i] == '.' {
					seenDot = true
				}
				i++
			}
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q at position %d", ErrSyntax, text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: v, pos: start})

		case r < unicode.MaxASCII && unicode.IsLetter(r):
			start := i
			for i < len(runes) && runes[i] < unicode.MaxASCII && unicode.IsLetter(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '²' || r == '³':
			exp := "2"
			if r == '³' {
				exp = "3"
			}
			tokens = append(tokens,
				token{kind: tokCaret, text: "^", pos: i},
				token{kind: tokNumber, text: exp, num: float64(exp[0] - '0'), pos: i})
			i++

		case r == 'π':
			tokens = append(tokens, token{kind: tokIdent, text: "pi", pos: i})
			i++

		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, token{kind: tokCaret, text: "**", pos: i})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokStar, text: "*", pos: i})
			i++

		default:
			kind, ok := punctuation[r]
			if !ok {
				return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, r, i)
			}
			tokens = append(tokens, token{kind: kind, text: string(r), pos: i})
			i++
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

var punctuation = map[rune]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'−': tokMinus,
	'×': tokStar,
	'·': tokStar,
	'/': tokSlash,
	'÷': tokSlash,
	'^': tokCaret,
	'(': tokLParen,
	')': tokRParen,
	'[': tokLParen,
	']': tokRParen,
}
