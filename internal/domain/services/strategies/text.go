package strategies

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// wordOperators rewrites spoken operators into symbols. Order matters:
// "divided by" must be rewritten before the single words.
var wordOperators = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\bdivided\s+by\b`), "/"},
	{regexp.MustCompile(`\bmultiplied\s+by\b`), "*"},
	{regexp.MustCompile(`\bplus\b`), "+"},
	{regexp.MustCompile(`\bminus\b`), "-"},
	{regexp.MustCompile(`\btimes\b`), "*"},
	{regexp.MustCompile(`\s*\bsquared\b`), "^2"},
	{regexp.MustCompile(`\s*\bcubed\b`), "^3"},
	{regexp.MustCompile(`[×·]`), "*"},
	{regexp.MustCompile(`÷`), "/"},
	{regexp.MustCompile(`−`), "-"},
}

// normalize lower-cases the text, drops question marks and commas, and
// rewrites word operators into symbols.
func normalize(text string) string {
	out := strings.ToLower(text)
	out = strings.NewReplacer("?", "", ",", "").Replace(out)
	for _, w := range wordOperators {
		out = w.pattern.ReplaceAllString(out, w.repl)
	}
	return strings.Join(strings.Fields(out), " ")
}

var (
	derivativeKeywords = regexp.MustCompile(`derivative|differentiate`)
	integralKeywords   = regexp.MustCompile(`integral|integrate|antiderivative`)
	equationKeywords   = regexp.MustCompile(`solve|find|what is|calculate`)
	assignmentPattern  = regexp.MustCompile(`[a-z]\s*=|=\s*-?\s*[a-z]`)
	variablePattern    = regexp.MustCompile(`\d+[a-z]\b|\b[a-z]\d+|\b[a-z]\s*[+\-*/^]`)
	operatorBetween    = regexp.MustCompile(`[\d)]\s*[+\-*/^]\s*[\d(.]`)
)

// classifyFast picks one of the four kinds handled by the fast dispatch.
// Calculus keywords win over equation cues so that "find the derivative
// of 3x" is not treated as an equation; everything else is arithmetic.
func classifyFast(text string) models.ProblemKind {
	switch {
	case derivativeKeywords.MatchString(text):
		return models.KindDerivative
	case integralKeywords.MatchString(text):
		return models.KindIntegral
	case strings.Contains(text, "=") && (assignmentPattern.MatchString(text) || variablePattern.MatchString(text)):
		return models.KindEquation
	case equationKeywords.MatchString(text) && variablePattern.MatchString(text) && !operatorOnly(text):
		return models.KindEquation
	default:
		return models.KindArithmetic
	}
}

// operatorOnly reports whether the math portion of text has no variable,
// so "what is 2+2" stays arithmetic.
func operatorOnly(text string) bool {
	expr, ok := extractArithmetic(text)
	return ok && !strings.ContainsAny(expr, "abcdefghijklmnopqrstuvwxyz")
}

var (
	leadingExpression = regexp.MustCompile(`(?:calculate|what is|find|evaluate|compute)\s+([0-9+\-*/^\s().]+)`)
	expressionRun     = regexp.MustCompile(`[0-9+\-*/^\s().]+`)
	hasDigit          = regexp.MustCompile(`\d`)
)

// extractArithmetic finds the numeric expression in normalized text. An
// instruction verb followed by an expression wins; otherwise the longest
// run of expression characters that holds an operator between operands.
// Runs glued to a letter, like the "1" of "1e309", are not expressions.
func extractArithmetic(text string) (string, bool) {
	if m := leadingExpression.FindStringSubmatchIndex(text); m != nil && standalone(text, m[2], m[3]) {
		expr := trimExpression(text[m[2]:m[3]])
		if hasDigit.MatchString(expr) {
			return expr, true
		}
	}

	best := ""
	for _, loc := range expressionRun.FindAllStringIndex(text, -1) {
		if !standalone(text, loc[0], loc[1]) {
			continue
		}
		run := trimExpression(text[loc[0]:loc[1]])
		if operatorBetween.MatchString(run) && len(run) > len(best) {
			best = run
		}
	}
	return best, best != ""
}

// standalone reports whether text[start:end], ignoring surrounding spaces,
// has no letter directly before or after it.
func standalone(text string, start, end int) bool {
	run := text[start:end]
	start += len(run) - len(strings.TrimLeftFunc(run, unicode.IsSpace))
	end -= len(run) - len(strings.TrimRightFunc(run, unicode.IsSpace))
	if start >= end {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(text[:start])
	after, _ := utf8.DecodeRuneInString(text[end:])
	return !unicode.IsLetter(before) && !unicode.IsLetter(after)
}

// trimExpression removes surrounding spaces, a sentence-final period and
// dangling operators.
func trimExpression(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ". +-*/^")
	s = strings.TrimLeft(s, " +*/^")
	return strings.TrimSpace(balanceParens(s))
}

// balanceParens drops unmatched trailing ")" and leading "(" picked up by
// the character-class scan.
func balanceParens(s string) string {
	for strings.Count(s, ")") > strings.Count(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ")"))
	}
	for strings.Count(s, "(") > strings.Count(s, ")") && strings.HasPrefix(s, "(") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "("))
	}
	return s
}

var (
	letterRun = regexp.MustCompile(`[a-z]{2,}`)
	forHint   = regexp.MustCompile(`\bfor\s+([a-z])\b`)
)

// mathNames are letter runs that belong to an expression.
var mathNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "exp": true, "ln": true,
	"log": true, "sqrt": true, "abs": true, "pi": true,
}

// wordy reports whether a token is prose rather than part of an
// expression: it holds a run of two or more letters that is not a
// function or constant name.
func wordy(token string) bool {
	for _, run := range letterRun.FindAllString(token, -1) {
		if stripMathNames(run) != "" {
			return true
		}
	}
	return false
}

// stripMathNames removes embedded function names ("xsin" becomes "x") so
// juxtaposed products still count as math.
func stripMathNames(run string) string {
	for name := range mathNames {
		run = strings.ReplaceAll(run, name, "")
	}
	if len(run) <= 1 {
		return ""
	}
	return run
}

// extractEquation returns the equation around the "=" sign: the tokens on
// both sides up to the nearest prose word. The variable comes from a
// "for x" hint when present.
func extractEquation(text string) (equation, variable string, ok bool) {
	tokens := strings.Fields(text)
	at := -1
	for i, t := range tokens {
		if strings.Contains(t, "=") {
			at = i
			break
		}
	}
	if at < 0 {
		return "", "", false
	}

	start := at
	for start > 0 && !wordy(tokens[start-1]) {
		start--
	}
	end := at + 1
	for end < len(tokens) && !wordy(tokens[end]) {
		end++
	}

	equation = strings.TrimSpace(strings.TrimRight(strings.Join(tokens[start:end], " "), "."))
	sides := strings.Split(equation, "=")
	if len(sides) != 2 || strings.TrimSpace(sides[0]) == "" || strings.TrimSpace(sides[1]) == "" {
		return "", "", false
	}
	if m := forHint.FindStringSubmatch(text); m != nil {
		variable = m[1]
	}
	return equation, variable, true
}

var (
	functionLead   = regexp.MustCompile(`(?:derivative\s+of|differentiate|integral\s+of|antiderivative\s+of|integrate)\s+(.+)`)
	functionPrefix = regexp.MustCompile(`[a-z]\s*\(\s*[a-z]\s*\)\s*=\s*`)
	respectTo      = regexp.MustCompile(`\s*with\s+respect\s+to\s+[a-z]\b`)
	differential   = regexp.MustCompile(`\s+d[a-z]\b`)
	boundsPattern  = regexp.MustCompile(`\bfrom\s+(\S+)\s+to\s+(\S+)`)
)

// extractFunction returns the function text that follows a calculus
// keyword, and the raw integration limits when a "from a to b" clause is
// present.
func extractFunction(text string) (function string, limits []string, ok bool) {
	m := functionLead.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	rest := m[1]
	if b := boundsPattern.FindStringSubmatch(rest); b != nil {
		limits = []string{strings.TrimRight(b[1], "."), strings.TrimRight(b[2], ".")}
		rest = boundsPattern.ReplaceAllString(rest, " ")
	}
	rest = functionPrefix.ReplaceAllString(rest, "")
	rest = respectTo.ReplaceAllString(rest, "")
	rest = differential.ReplaceAllString(rest, "")

	tokens := strings.Fields(rest)
	i := 0
	for i < len(tokens) && wordy(tokens[i]) {
		i++
	}
	j := i
	for j < len(tokens) && !wordy(tokens[j]) {
		j++
	}
	function = trimExpression(strings.Join(tokens[i:j], " "))
	return function, limits, function != ""
}

// hintPattern matches the context Combined appends for the slow phase.
var hintPattern = regexp.MustCompile(`(?s)\n\nInitial analysis suggests the answer might be (.*) but this needs verification\.\s*$`)

// withHint appends the fast answer to the problem for the slow phase.
func withHint(problem, answer string) string {
	return problem + "\n\nInitial analysis suggests the answer might be " + answer + " but this needs verification."
}

// splitHint separates the problem from a fast-strategy hint.
func splitHint(text string) (problem, hint string) {
	loc := hintPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], text[loc[2]:loc[3]]
}
