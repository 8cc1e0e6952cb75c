package complexity_test

import (
	"testing"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/domain/services/complexity"
	"github.com/stretchr/testify/assert"
)

const volumeOfRevolution = "Find the volume of the solid of revolution obtained by rotating the region " +
	"bounded by y = sqrt(x), y = 0 and x = 4 about the x-axis, then calculate the integral of pi " +
	"times y squared from 0 to 4 and determine the derivative of the volume."

func newAnalyzer() *complexity.Analyzer {
	return complexity.NewAnalyzer(models.DefaultPipelineConfig())
}

// TestAnalyzer_LevelsAndStrategies tests one problem per complexity level end to end.
func TestAnalyzer_LevelsAndStrategies(t *testing.T) {
	analyzer := newAnalyzer()

	tests := []struct {
		name     string
		text     string
		score    float64
		level    models.ComplexityLevel
		strategy models.Strategy
	}{
		{"simple arithmetic", "What is 25 × 4?", 0.21, models.ComplexitySimple, models.StrategyFast},
		{"quadratic equation", "Solve the equation 2x² + 5x - 3 = 0 for x.", 0.39, models.ComplexityMedium, models.StrategyFastThenSlow},
		{"volume of revolution", volumeOfRevolution, 0.79, models.ComplexityComplex, models.StrategySlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := analyzer.Analyze(tt.text)
			assert.Equal(t, tt.text, analysis.Problem)
			assert.InDelta(t, tt.score, analysis.Score, 1e-9)
			assert.Equal(t, tt.level, analysis.Level)
			assert.Equal(t, tt.strategy, analyzer.RecommendedStrategy(analysis.Level))
		})
	}
}

// TestAnalyzer_Contributions tests the rounded weighted contributions.
func TestAnalyzer_Contributions(t *testing.T) {
	analysis := newAnalyzer().Analyze("What is 25 × 4?")

	assert.Len(t, analysis.Contributions, len(models.AllFeatures))
	assert.Equal(t, 0.01, analysis.Contributions[models.FeatureLength])
	assert.Equal(t, 0.02, analysis.Contributions[models.FeatureSentenceStructure])
	assert.Equal(t, 0.1, analysis.Contributions[models.FeatureVariables])
	assert.Equal(t, 0.0, analysis.Contributions[models.FeatureKeywords])
	assert.Equal(t, 0.03, analysis.Contributions[models.FeatureDomain])
	assert.Equal(t, 0.05, analysis.Contributions[models.FeatureOperations])
}

// TestAnalyzer_ScoreBounds tests that the score stays in [0,1] for
// degenerate inputs.
func TestAnalyzer_ScoreBounds(t *testing.T) {
	analyzer := newAnalyzer()

	for _, text := range []string{"", " ", "?", "∫∫∫∫∫∫", volumeOfRevolution + volumeOfRevolution} {
		analysis := analyzer.Analyze(text)
		assert.GreaterOrEqual(t, analysis.Score, 0.0)
		assert.LessOrEqual(t, analysis.Score, 1.0)
	}
}

// TestAnalyzer_ClassifyMonotonic tests that the level is a monotonic step
// function of the score with inclusive upper bounds.
func TestAnalyzer_ClassifyMonotonic(t *testing.T) {
	analyzer := newAnalyzer()
	rank := map[models.ComplexityLevel]int{
		models.ComplexitySimple:  0,
		models.ComplexityMedium:  1,
		models.ComplexityComplex: 2,
	}

	prev := -1
	for i := 0; i <= 100; i++ {
		score := float64(i) / 100
		r := rank[analyzer.Classify(score)]
		assert.GreaterOrEqual(t, r, prev, "score %.2f", score)
		prev = r
	}

	assert.Equal(t, models.ComplexitySimple, analyzer.Classify(0.3))
	assert.Equal(t, models.ComplexityMedium, analyzer.Classify(0.31))
	assert.Equal(t, models.ComplexityMedium, analyzer.Classify(0.6))
	assert.Equal(t, models.ComplexityComplex, analyzer.Classify(0.61))
}

// TestAnalyzer_CustomThresholds tests that injected thresholds are honored.
func TestAnalyzer_CustomThresholds(t *testing.T) {
	cfg := models.DefaultPipelineConfig()
	cfg.Complexity.SimpleThreshold = 0.1
	cfg.Complexity.MediumThreshold = 0.2
	analyzer := complexity.NewAnalyzer(cfg)

	assert.Equal(t, models.ComplexityComplex, analyzer.Analyze("What is 25 × 4?").Level)
}

func TestAnalyzer_RecommendedStrategyDefault(t *testing.T) {
	analyzer := newAnalyzer()
	assert.Equal(t, models.StrategyFastThenSlow, analyzer.RecommendedStrategy("Unknown"))
}
