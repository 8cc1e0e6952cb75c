package strategies

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mshogin/fastslow/internal/domain/models"
)

// analysis is the output of the analyze phase. Only the fields of the
// classified kind are populated.
type analysis struct {
	kind     models.ProblemKind
	original string
	text     string

	equation  string
	variable  string
	variables []string

	function string
	limits   []string

	shapes     []string
	properties []string

	entities      []string
	relationships []string
	question      string
}

var (
	equationCue    = regexp.MustCompile(`solve|equation|=`)
	unknownXCue    = regexp.MustCompile(`find.*\bx\b`)
	geometryCue    = regexp.MustCompile(`triangle|circle|square|rectangle|angle|area|volume|perimeter|circumference|sphere|cylinder|cone|cube`)
	shapeKeywords  = []string{"triangle", "circle", "square", "rectangle", "polygon", "cube", "sphere", "cylinder", "cone"}
	propertyWords  = []string{"area", "perimeter", "circumference", "volume", "angle", "length", "radius", "diameter", "height", "width"}
	entityCounted  = regexp.MustCompile(`\b(\d+)\s+(apple|orange|fruit|car|train|person|people|student|book|dollar|coin)\w*\b`)
	entityNamed    = regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:has|owns|buys|sells)`)
	relationshipRe = []*regexp.Regexp{
		regexp.MustCompile(`\b(\w+)\s+(?:has|owns|buys|sells)\s+(\d+)`),
		regexp.MustCompile(`\b(\w+)\s+(?:gives|lends|borrows)\s+(\d+)\s+to\s+(\w+)`),
		regexp.MustCompile(`\b(\w+)\s+(?:is|are)\s+(\d+)\s+(?:times|percent|%)\s+(?:more|less|greater|smaller)\s+than\s+(\w+)`),
	}
	questionRe = []*regexp.Regexp{
		regexp.MustCompile(`(?:what is|find|calculate|determine|how many|how much)[^?]*\?`),
		regexp.MustCompile(`(?:what is|find|calculate|determine|how many|how much)[^?]*$`),
	}
)

// classifySlow picks the kind for the slow phases. Calculus keywords come
// first and the earliest one decides between derivative and integral;
// explicit equation cues come before geometry words.
func classifySlow(text string) models.ProblemKind {
	d := derivativeKeywords.FindStringIndex(text)
	i := integralKeywords.FindStringIndex(text)
	switch {
	case d != nil && (i == nil || d[0] < i[0]):
		return models.KindDerivative
	case i != nil:
		return models.KindIntegral
	case equationCue.MatchString(text):
		return models.KindEquation
	case geometryCue.MatchString(text):
		return models.KindGeometry
	case unknownXCue.MatchString(text):
		return models.KindEquation
	default:
		return models.KindWordProblem
	}
}

func (s *Slow) analyze(original string) *analysis {
	text := normalize(original)
	a := &analysis{kind: classifySlow(text), original: original, text: text}

	switch a.kind {
	case models.KindEquation:
		if eq, v, ok := extractEquation(text); ok {
			a.equation, a.variable = eq, v
		} else if expr, ok := extractArithmetic(text); ok {
			a.equation = expr
		}
		if a.equation != "" {
			if vars, err := s.solver.FreeVariables(a.equation); err == nil {
				a.variables = vars
			}
		}
		if a.variable == "" && len(a.variables) > 0 {
			a.variable = preferredVariable(a.variables)
		}

	case models.KindDerivative, models.KindIntegral:
		a.function, a.limits, _ = extractFunction(text)
		if a.kind == models.KindDerivative {
			a.limits = nil
		}
		if vars, err := s.solver.FreeVariables(a.function); err == nil {
			a.variable = preferredVariable(vars)
		}

	case models.KindGeometry:
		a.shapes = keywordsIn(text, shapeKeywords)
		a.properties = keywordsIn(text, propertyWords)

	case models.KindWordProblem:
		for _, m := range entityCounted.FindAllStringSubmatch(original, -1) {
			a.entities = append(a.entities, m[1]+" "+m[2])
		}
		for _, m := range entityNamed.FindAllStringSubmatch(original, -1) {
			a.entities = append(a.entities, m[1])
		}
		for _, re := range relationshipRe {
			for _, m := range re.FindAllStringSubmatch(original, -1) {
				a.relationships = append(a.relationships, strings.Join(m[1:], " "))
			}
		}
		a.question = "Could not extract question"
		lower := strings.ToLower(original)
		for _, re := range questionRe {
			if q := re.FindString(lower); q != "" {
				a.question = q
				break
			}
		}
	}
	return a
}

func keywordsIn(text string, words []string) []string {
	var out []string
	for _, w := range words {
		if strings.Contains(text, w) {
			out = append(out, w)
		}
	}
	return out
}

// components renders the extracted components for the trace.
func (a *analysis) components() string {
	switch a.kind {
	case models.KindEquation:
		return fmt.Sprintf("equation: %s; variables: %s", orNone(a.equation), orNone(strings.Join(a.variables, ", ")))
	case models.KindDerivative, models.KindIntegral:
		out := fmt.Sprintf("function: %s; operation: %s", orNone(a.function), a.kind)
		if len(a.limits) == 2 {
			out += fmt.Sprintf("; limits: %s to %s", a.limits[0], a.limits[1])
		}
		return out
	case models.KindGeometry:
		return fmt.Sprintf("shapes: %s; properties: %s", orNone(strings.Join(a.shapes, ", ")), orNone(strings.Join(a.properties, ", ")))
	default:
		return fmt.Sprintf("entities: %s; relationships: %s; question: %s",
			orNone(strings.Join(a.entities, ", ")), orNone(strings.Join(a.relationships, ", ")), a.question)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// plan is the output of the planning phase.
type plan struct {
	approach string
	steps    []string
}

func planEquation(a *analysis) plan {
	if strings.Contains(a.equation, "=") && a.variable != "" {
		v := a.variable
		return plan{
			approach: fmt.Sprintf("Solve the equation for %s", v),
			steps: []string{
				fmt.Sprintf("Isolate terms with %s on one side of the equation", v),
				"Simplify both sides of the equation",
				fmt.Sprintf("Solve for %s", v),
				"Verify the solution by substituting back into the original equation",
			},
		}
	}
	return plan{
		approach: "Evaluate the expression",
		steps: []string{
			"Simplify the expression using order of operations",
			"Calculate the final value",
		},
	}
}

func planCalculus(a *analysis) plan {
	if a.kind == models.KindDerivative {
		return plan{
			approach: "Find the derivative of the function",
			steps: []string{
				"Apply the power rule, product rule, chain rule, or other derivative rules as needed",
				"Simplify the resulting expression",
				"Verify the derivative by checking specific points or using alternative methods",
			},
		}
	}
	if len(a.limits) == 2 {
		return plan{
			approach: "Calculate the definite integral",
			steps: []string{
				"Find the antiderivative of the function",
				fmt.Sprintf("Evaluate the antiderivative at the upper limit (%s)", a.limits[1]),
				fmt.Sprintf("Evaluate the antiderivative at the lower limit (%s)", a.limits[0]),
				"Subtract the lower evaluation from the upper evaluation",
				"Verify the result using alternative methods if possible",
			},
		}
	}
	return plan{
		approach: "Find the indefinite integral",
		steps: []string{
			"Apply integration rules (power rule, substitution, etc.)",
			"Include the constant of integration",
			"Verify the result by differentiating the answer",
		},
	}
}

func planGeometry(a *analysis) plan {
	p := plan{approach: "Apply geometric formulas and principles"}
	if key, f, ok := lookupFormula(a.shapes, a.properties); ok {
		p.steps = []string{
			fmt.Sprintf("Identify the %s of the %s", f.describeParams(), key.shape),
			fmt.Sprintf("Apply the formula: %s", f.statement),
			fmt.Sprintf("Calculate the %s", key.property),
			"Verify the result",
		}
		return p
	}
	p.steps = []string{
		"Identify the relevant geometric formulas",
		"Apply the formulas to the given information",
		"Solve for the unknown quantity",
		"Verify the solution",
	}
	return p
}

func planWordProblem(*analysis) plan {
	return plan{
		approach: "Translate word problem into mathematical equations",
		steps: []string{
			"Identify the unknown quantity",
			"Assign variables to represent unknown quantities",
			"Translate the problem conditions into equations",
			"Solve the resulting equations",
			"Interpret the solution in the context of the original problem",
			"Verify that the solution makes sense",
		},
	}
}
