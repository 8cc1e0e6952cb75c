package complexity

import (
	"github.com/mshogin/fastslow/internal/domain/models"
)

// Analyzer combines the extracted features into a complexity score and a
// three-way level.
type Analyzer struct {
	extractor       *FeatureExtractor
	weights         map[models.Feature]float64
	simpleThreshold float64
	mediumThreshold float64
	strategyMapping map[models.ComplexityLevel]models.Strategy
}

// NewAnalyzer creates an analyzer from the injected configuration.
func NewAnalyzer(cfg models.PipelineConfig) *Analyzer {
	return &Analyzer{
		extractor:       NewFeatureExtractor(cfg.Complexity),
		weights:         cfg.Complexity.FeatureWeights,
		simpleThreshold: cfg.Complexity.SimpleThreshold,
		mediumThreshold: cfg.Complexity.MediumThreshold,
		strategyMapping: cfg.Switching.StrategyMapping,
	}
}

// Analyze scores text. It never fails.
func (a *Analyzer) Analyze(text string) models.ComplexityAnalysis {
	features := a.extractor.Extract(text)

	sum := 0.0
	contributions := make(map[models.Feature]float64, len(models.AllFeatures))
	for _, f := range models.AllFeatures {
		weighted := features.Get(f) * a.weights[f]
		sum += weighted
		contributions[f] = models.Round2(weighted)
	}
	score := models.Round2(models.Clamp01(sum))

	return models.ComplexityAnalysis{
		Problem:       text,
		Score:         score,
		Level:         a.Classify(score),
		Features:      features,
		Contributions: contributions,
	}
}

// Classify maps a score to a level: score <= simple threshold is Simple,
// score <= medium threshold is Medium, anything above is Complex.
func (a *Analyzer) Classify(score float64) models.ComplexityLevel {
	switch {
	case score <= a.simpleThreshold:
		return models.ComplexitySimple
	case score <= a.mediumThreshold:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

// RecommendedStrategy looks level up in the strategy mapping. Unknown
// levels fall back to FAST_THEN_SLOW.
func (a *Analyzer) RecommendedStrategy(level models.ComplexityLevel) models.Strategy {
	if s, ok := a.strategyMapping[level]; ok {
		return s
	}
	return models.StrategyFastThenSlow
}

// Extractor exposes the feature extractor for operation detection.
func (a *Analyzer) Extractor() *FeatureExtractor {
	return a.extractor
}
