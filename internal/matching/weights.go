package matching

import (
	"errors"
	"math"
)

// Weights assigns each compatibility factor its share of the final score.
type Weights struct {
	Version            string
	Mood               float64
	Activity           float64
	VibeScore          float64
	Proximity          float64
	InteractionHistory float64
	ContentSimilarity  float64
}

// WeightsV1 is the canonical six-factor weighting.
var WeightsV1 = Weights{
	Version:            "v1",
	Mood:               0.25,
	Activity:           0.20,
	VibeScore:          0.15,
	Proximity:          0.20,
	InteractionHistory: 0.10,
	ContentSimilarity:  0.10,
}

var ErrInvalidWeights = errors.New("weights must be non-negative and sum to 1")

// Validate checks that the weights form a convex combination.
func (w Weights) Validate() error {
	parts := []float64{w.Mood, w.Activity, w.VibeScore, w.Proximity, w.InteractionHistory, w.ContentSimilarity}
	var sum float64
	for _, p := range parts {
		if p < 0 {
			return ErrInvalidWeights
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		return ErrInvalidWeights
	}
	return nil
}

// Aggregate combines the factors and clamps the result into [0, 1].
func (w Weights) Aggregate(f CompatibilityFactors) float64 {
	score := f.Mood*w.Mood +
		f.Activity*w.Activity +
		f.VibeScore*w.VibeScore +
		f.Proximity*w.Proximity +
		f.InteractionHistory*w.InteractionHistory +
		f.ContentSimilarity*w.ContentSimilarity

	return clamp01(score)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
