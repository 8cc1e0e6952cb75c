package strategies

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// param is one input of a geometry formula with the illustrative value
// used when the problem does not state it.
type param struct {
	name        string
	placeholder float64
}

type formula struct {
	statement string
	params    []param
	compute   func(v map[string]float64) float64
}

type geometryKey struct {
	shape    string
	property string
}

func circleArea(v map[string]float64) float64 { return math.Pi * v["radius"] * v["radius"] }
func circumference(v map[string]float64) float64 {
	return 2 * math.Pi * v["radius"]
}

var radius3 = []param{{"radius", 3}}

var formulas = map[geometryKey]formula{
	{"triangle", "area"}: {
		statement: "Area = (1/2) × base × height",
		params:    []param{{"base", 5}, {"height", 4}},
		compute:   func(v map[string]float64) float64 { return 0.5 * v["base"] * v["height"] },
	},
	{"triangle", "perimeter"}: {
		statement: "Perimeter = a + b + c",
		params:    []param{{"a", 3}, {"b", 4}, {"c", 5}},
		compute:   func(v map[string]float64) float64 { return v["a"] + v["b"] + v["c"] },
	},
	{"circle", "area"}:          {statement: "Area = π × radius²", params: radius3, compute: circleArea},
	{"circle", "perimeter"}:     {statement: "Circumference = 2π × radius", params: radius3, compute: circumference},
	{"circle", "circumference"}: {statement: "Circumference = 2π × radius", params: radius3, compute: circumference},
	{"rectangle", "area"}: {
		statement: "Area = length × width",
		params:    []param{{"length", 6}, {"width", 4}},
		compute:   func(v map[string]float64) float64 { return v["length"] * v["width"] },
	},
	{"rectangle", "perimeter"}: {
		statement: "Perimeter = 2 × (length + width)",
		params:    []param{{"length", 6}, {"width", 4}},
		compute:   func(v map[string]float64) float64 { return 2 * (v["length"] + v["width"]) },
	},
	{"square", "area"}: {
		statement: "Area = side²",
		params:    []param{{"side", 4}},
		compute:   func(v map[string]float64) float64 { return v["side"] * v["side"] },
	},
	{"square", "perimeter"}: {
		statement: "Perimeter = 4 × side",
		params:    []param{{"side", 4}},
		compute:   func(v map[string]float64) float64 { return 4 * v["side"] },
	},
	{"cube", "volume"}: {
		statement: "Volume = side³",
		params:    []param{{"side", 3}},
		compute:   func(v map[string]float64) float64 { return math.Pow(v["side"], 3) },
	},
	{"sphere", "volume"}: {
		statement: "Volume = (4/3)π × radius³",
		params:    radius3,
		compute:   func(v map[string]float64) float64 { return 4.0 / 3.0 * math.Pi * math.Pow(v["radius"], 3) },
	},
	{"sphere", "area"}: {
		statement: "Surface area = 4π × radius²",
		params:    radius3,
		compute:   func(v map[string]float64) float64 { return 4 * math.Pi * v["radius"] * v["radius"] },
	},
	{"cylinder", "volume"}: {
		statement: "Volume = π × radius² × height",
		params:    []param{{"radius", 3}, {"height", 5}},
		compute:   func(v map[string]float64) float64 { return math.Pi * v["radius"] * v["radius"] * v["height"] },
	},
	{"cone", "volume"}: {
		statement: "Volume = (1/3)π × radius² × height",
		params:    []param{{"radius", 3}, {"height", 4}},
		compute:   func(v map[string]float64) float64 { return math.Pi * v["radius"] * v["radius"] * v["height"] / 3 },
	},
}

// lookupFormula finds the formula for the first listed shape and the first
// of its properties that has one.
func lookupFormula(shapes, properties []string) (geometryKey, formula, bool) {
	if len(shapes) == 0 {
		return geometryKey{}, formula{}, false
	}
	for _, p := range properties {
		key := geometryKey{shape: shapes[0], property: p}
		if f, ok := formulas[key]; ok {
			return key, f, true
		}
	}
	return geometryKey{}, formula{}, false
}

func (f formula) describeParams() string {
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.name
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

const number = `(\d+(?:\.\d+)?)`

var (
	measurementRe = map[string]*regexp.Regexp{}
	sidesRe       = regexp.MustCompile(`\bsides?\s+(?:of\s+|are\s+)?` + number + `\s+(?:and\s+)?` + number + `\s+(?:and\s+)?` + number)
)

func init() {
	for _, name := range []string{"base", "height", "radius", "diameter", "side", "length", "width"} {
		measurementRe[name] = regexp.MustCompile(`\b` + name + `\s+(?:of\s+|is\s+|=\s*)?` + number)
	}
}

// measurement reads a named measurement from normalized text. A radius
// may be given as a diameter.
func measurement(text, name string) (float64, bool) {
	if re, ok := measurementRe[name]; ok {
		if m := re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			return v, err == nil
		}
	}
	if name == "radius" {
		if d, ok := measurement(text, "diameter"); ok {
			return d / 2, true
		}
	}
	return 0, false
}

// resolve binds every parameter to a stated measurement or its
// placeholder, and describes the binding for the trace.
func (f formula) resolve(text string) (map[string]float64, string) {
	values := make(map[string]float64, len(f.params))
	var sides []string
	if m := sidesRe.FindStringSubmatch(text); m != nil {
		sides = m[1:]
	}

	parts := make([]string, len(f.params))
	for i, p := range f.params {
		v, ok := measurement(text, p.name)
		if idx := strings.Index("abc", p.name); len(p.name) == 1 && idx >= 0 && sides != nil {
			v, _ = strconv.ParseFloat(sides[idx], 64)
			ok = true
		}
		source := "given"
		if !ok {
			v, source = p.placeholder, "placeholder"
		}
		values[p.name] = v
		parts[i] = fmt.Sprintf("%s = %s (%s)", p.name, strconv.FormatFloat(v, 'f', -1, 64), source)
	}
	return values, strings.Join(parts, ", ")
}
