package matching

import (
	"context"
	"errors"
)

// Engine scores a single (user, candidate) pair.
type Engine interface {
	Score(ctx context.Context, user, candidate *Subject) (*MatchCandidate, error)
}

type engine struct {
	interactions *InteractionScorer
	weights      Weights
}

const maxReasonKeywords = 10

var errMissingProfile = errors.New("subject has no profile")

// NewEngine builds an engine that reads interaction history from source.
func NewEngine(source InteractionSource, weights Weights) Engine {
	return &engine{
		interactions: NewInteractionScorer(source),
		weights:      weights,
	}
}

func (e *engine) Score(ctx context.Context, user, candidate *Subject) (*MatchCandidate, error) {
	if user == nil || user.Profile == nil || candidate == nil || candidate.Profile == nil {
		return nil, errMissingProfile
	}

	userMoods, candMoods := user.Moods(), candidate.Moods()
	activity, categories := activityOverlap(user.Activities(), candidate.Activities())
	content, keywords := contentOverlap(user.Text(), candidate.Text())

	interaction, err := e.interactions.Score(ctx, user.Profile.UserID, candidate.Profile.UserID)
	if err != nil {
		return nil, err
	}

	factors := CompatibilityFactors{
		Mood:               MoodScore(userMoods, candMoods),
		Activity:           activity,
		VibeScore:          VibeScoreSimilarity(user.Profile.VibeScore, candidate.Profile.VibeScore),
		Proximity:          ProximityScore(user.Profile.proximity(), candidate.Profile.proximity()),
		InteractionHistory: interaction,
		ContentSimilarity:  content,
	}

	if len(keywords) > maxReasonKeywords {
		keywords = keywords[:maxReasonKeywords]
	}

	reasons := MatchingReasons{
		WeightsVersion:   e.weights.Version,
		SimilarMood:      factors.Mood >= 0.7,
		SharedActivities: factors.Activity >= 0.5 && len(categories) > 0,
		Nearby:           factors.Proximity >= 0.8,
		SimilarVibe:      factors.VibeScore >= 0.8,
		SharedInterests:  factors.ContentSimilarity >= 0.2,
		PriorInteraction: factors.InteractionHistory > neutralScore,
		CommonMoods:      commonMoods(userMoods, candMoods),
		CommonActivities: categories,
		CommonKeywords:   keywords,
	}
	if a, b := user.Profile.Location(), candidate.Profile.Location(); a != nil && b != nil {
		d := DistanceKm(*a, *b)
		reasons.DistanceKm = &d
	}

	return &MatchCandidate{
		UserID:  candidate.Profile.UserID,
		Profile: candidate.Profile,
		Factors: factors,
		Score:   e.weights.Aggregate(factors),
		Reasons: reasons,
	}, nil
}
