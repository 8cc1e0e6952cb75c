package complexity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// Reference values that map raw counts onto [0,1].
const (
	referenceLength    = 200.0
	referenceClauses   = 5.0
	referenceVariables = 4.0
	referenceKeywords  = 3.0

	defaultDomain = "arithmetic"
)

// FeatureExtractor derives the six normalized complexity features of a
// problem text.
//
// Design Principles:
// - Rule-based and deterministic: same text, same features
// - Patterns compiled once at construction; safe for concurrent use
// - Weight tables are injected, the keyword families are fixed
type FeatureExtractor struct {
	domainWeights    map[string]float64
	operationWeights map[string]float64
	operations       []*operationPattern
}

// operationPattern detects one family of math operations.
type operationPattern struct {
	name    string
	pattern *regexp.Regexp
}

// domainFamily is a keyword family identifying a math domain. Families are
// checked in declaration order, which also breaks ties.
type domainFamily struct {
	name     string
	keywords []string
}

var clauseMarkers = []string{",", " and ", " or ", " but ", " because ", " if ", " then ", " when ", " while "}

var instructionVerbs = map[string]struct{}{
	"solve": {}, "find": {}, "calculate": {}, "determine": {},
	"evaluate": {}, "simplify": {}, "factor": {}, "expand": {},
}

var domainFamilies = []domainFamily{
	{"arithmetic", []string{"add", "subtract", "multiply", "divide", "plus", "minus", "times"}},
	{"algebra", []string{"equation", "solve", "variable", "expression", "polynomial", "factor", "simplify"}},
	{"geometry", []string{"angle", "triangle", "circle", "square", "rectangle", "polygon", "area", "volume", "perimeter"}},
	{"calculus", []string{"derivative", "integral", "limit", "differentiate", "integrate", "rate of change"}},
	{"statistics", []string{"probability", "mean", "median", "mode", "standard deviation", "variance", "distribution"}},
	{"number_theory", []string{"prime", "divisor", "factor", "remainder", "modulo", "congruence"}},
	{"combinatorics", []string{"combination", "permutation", "factorial", "choose", "arrangement"}},
}

var operationSources = []struct {
	name   string
	source string
}{
	{"addition", `[+]|\bplus\b|\badd\b|\bsum\b|\btotal\b`},
	{"subtraction", `[-]|\bminus\b|\bsubtract\b|\bdifference\b`},
	{"multiplication", `[*×]|\btimes\b|\bmultiply\b|\bproduct\b`},
	{"division", `[/÷]|\bdivide\b|\bquotient\b|\bratio\b`},
	{"exponentiation", `[\^]|\bpower\b|\bsquared\b|\bcubed\b|\bexponent\b`},
	{"root", `\broot\b|\bsquare root\b|\bcube root\b|\bsqrt\b`},
	{"logarithm", `\blog\b|\bln\b|\blogarithm\b`},
	{"trigonometric", `\bsin\b|\bcos\b|\btan\b|\bsine\b|\bcosine\b|\btangent\b`},
	{"derivative", `\bderivative\b|\bdifferentiate\b|\bd/dx\b`},
	{"integral", `\bintegral\b|\bintegrate\b|∫`},
	{"limit", `\blimit\b|\blim\b`},
	{"summation", `\bsummation\b|\bsum of\b|∑`},
	{"product", `\bproduct of\b|∏`},
}

// NewFeatureExtractor creates an extractor using the configured domain and
// operation weight tables.
func NewFeatureExtractor(cfg models.ComplexityConfig) *FeatureExtractor {
	e := &FeatureExtractor{
		domainWeights:    cfg.DomainWeights,
		operationWeights: cfg.OperationWeights,
		operations:       make([]*operationPattern, 0, len(operationSources)),
	}
	for _, op := range operationSources {
		e.operations = append(e.operations, &operationPattern{
			name:    op.name,
			pattern: regexp.MustCompile(op.source),
		})
	}
	return e
}

// Extract computes the features of text. The text is lower-cased but not
// trimmed.
func (e *FeatureExtractor) Extract(text string) models.ComplexityFeatures {
	normalized := strings.ToLower(text)
	tokens := strings.Fields(normalized)

	return models.ComplexityFeatures{
		Length:            e.length(normalized),
		SentenceStructure: e.sentenceStructure(normalized),
		Variables:         e.variables(normalized),
		Keywords:          e.keywords(tokens),
		Domain:            e.domain(normalized),
		Operations:        e.operationsFeature(normalized),
	}
}

func (e *FeatureExtractor) length(text string) float64 {
	return capped(float64(utf8.RuneCountInString(text)) / referenceLength)
}

func (e *FeatureExtractor) sentenceStructure(text string) float64 {
	clauses := 1
	for _, marker := range clauseMarkers {
		clauses += strings.Count(text, marker)
	}
	return capped(float64(clauses) / referenceClauses)
}

// variables counts distinct ASCII letters that end a word: a letter not
// followed by another letter, a digit or an underscore.
func (e *FeatureExtractor) variables(text string) float64 {
	runes := []rune(text)
	seen := make(map[rune]struct{})
	for i, r := range runes {
		if !isASCIILetter(r) {
			continue
		}
		if i+1 < len(runes) && isWordRune(runes[i+1]) {
			continue
		}
		seen[r] = struct{}{}
	}
	return capped(float64(len(seen)) / referenceVariables)
}

func (e *FeatureExtractor) keywords(tokens []string) float64 {
	count := 0
	for _, tok := range tokens {
		if _, ok := instructionVerbs[tok]; ok {
			count++
		}
	}
	return capped(float64(count) / referenceKeywords)
}

// domain returns the weight of the family with the most distinct keyword
// hits. Keywords match as substrings.
func (e *FeatureExtractor) domain(text string) float64 {
	best, bestHits := defaultDomain, 0
	for _, family := range domainFamilies {
		hits := 0
		for _, kw := range family.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = family.name, hits
		}
	}
	return capped(e.domainWeights[best])
}

// operationsFeature is the match-weighted mean complexity of the detected
// operations, or the addition weight when none is detected.
func (e *FeatureExtractor) operationsFeature(text string) float64 {
	total, matches := 0.0, 0
	for _, op := range e.operations {
		n := len(op.pattern.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		total += float64(n) * e.operationWeights[op.name]
		matches += n
	}
	if matches == 0 {
		return capped(e.operationWeights["addition"])
	}
	return capped(total / float64(matches))
}

// Detected returns the names of the operation families present in text.
func (e *FeatureExtractor) Detected(text string) []string {
	normalized := strings.ToLower(text)
	var names []string
	for _, op := range e.operations {
		if op.pattern.MatchString(normalized) {
			names = append(names, op.name)
		}
	}
	return names
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func capped(v float64) float64 {
	return models.Clamp01(v)
}
