package models

import (
	"fmt"
	"math"
)

// Feature names a single complexity feature.
type Feature string

const (
	FeatureLength            Feature = "length"
	FeatureSentenceStructure Feature = "sentence_structure"
	FeatureVariables         Feature = "variables"
	FeatureKeywords          Feature = "keywords"
	FeatureDomain            Feature = "domain"
	FeatureOperations        Feature = "operations"
)

// AllFeatures lists the features in their canonical order.
var AllFeatures = []Feature{
	FeatureLength,
	FeatureSentenceStructure,
	FeatureVariables,
	FeatureKeywords,
	FeatureDomain,
	FeatureOperations,
}

// ComplexityFeatures holds the six normalized text features of a problem.
// Every field is in [0,1].
type ComplexityFeatures struct {
	Length            float64 `json:"length"`
	SentenceStructure float64 `json:"sentence_structure"`
	Variables         float64 `json:"variables"`
	Keywords          float64 `json:"keywords"`
	Domain            float64 `json:"domain"`
	Operations        float64 `json:"operations"`
}

// Get returns the value of the named feature.
func (f ComplexityFeatures) Get(name Feature) float64 {
	switch name {
	case FeatureLength:
		return f.Length
	case FeatureSentenceStructure:
		return f.SentenceStructure
	case FeatureVariables:
		return f.Variables
	case FeatureKeywords:
		return f.Keywords
	case FeatureDomain:
		return f.Domain
	case FeatureOperations:
		return f.Operations
	default:
		return 0
	}
}

// ComplexityLevel is the three-way classification of a complexity score.
type ComplexityLevel string

const (
	ComplexitySimple  ComplexityLevel = "Simple"
	ComplexityMedium  ComplexityLevel = "Medium"
	ComplexityComplex ComplexityLevel = "Complex"
)

// ParseComplexityLevel parses a level label as used by the problem feed.
func ParseComplexityLevel(s string) (ComplexityLevel, error) {
	switch ComplexityLevel(s) {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return ComplexityLevel(s), nil
	default:
		return "", fmt.Errorf("unknown complexity level %q", s)
	}
}

// ComplexityAnalysis is the result of analyzing one problem text.
// It is created once per solve call and never mutated.
type ComplexityAnalysis struct {
	Problem       string              `json:"problem"`
	Score         float64             `json:"complexity_score"`
	Level         ComplexityLevel     `json:"complexity_level"`
	Features      ComplexityFeatures  `json:"features"`
	Contributions map[Feature]float64 `json:"feature_contributions"`
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
