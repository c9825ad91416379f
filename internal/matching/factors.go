package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// VibeScoreSimilarity is 1 - |a-b| / max(a, b, 100). It is left unclamped;
// the aggregator bounds the final score.
func VibeScoreSimilarity(a, b int) float64 {
	denom := math.Max(math.Max(float64(a), float64(b)), 100)
	return 1 - math.Abs(float64(a-b))/denom
}

// ProximitySignal is whatever location data a profile exposes.
type ProximitySignal struct {
	Location *GeoPoint
	City     *string
}

// ProximityScore prefers exact coordinates, then an exact city match.
func ProximityScore(a, b ProximitySignal) float64 {
	if a.Location != nil && b.Location != nil {
		return ProximityForDistance(DistanceKm(*a.Location, *b.Location))
	}
	if a.City != nil && b.City != nil && *a.City != "" && *a.City == *b.City {
		return 0.7
	}
	return 0.3
}

// ProximityForDistance maps a distance onto the fixed step function.
func ProximityForDistance(km float64) float64 {
	switch {
	case km <= 1:
		return 1.0
	case km <= 5:
		return 0.9
	case km <= 10:
		return 0.8
	case km <= 20:
		return 0.6
	case km <= 50:
		return 0.3
	default:
		return 0.1
	}
}

// InteractionSource answers the two history questions the interaction factor needs.
type InteractionSource interface {
	FindExistingMatch(ctx context.Context, userA, userB int64) (*Match, error)
	HasLikedAnyPostBy(ctx context.Context, likerID, authorID int64) (bool, error)
}

// InteractionScorer rates prior engagement between two users.
type InteractionScorer struct {
	source InteractionSource
}

// NewInteractionScorer creates a scorer backed by source.
func NewInteractionScorer(source InteractionSource) *InteractionScorer {
	return &InteractionScorer{source: source}
}

// Score returns 0.2 for an engaged match, 0.4 for an idle match,
// 0.8 when userID liked something by otherID and 0.5 otherwise.
func (s *InteractionScorer) Score(ctx context.Context, userID, otherID int64) (float64, error) {
	match, err := s.source.FindExistingMatch(ctx, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("find existing match: %w", err)
	}
	if match != nil {
		if match.ChatStarted {
			return 0.2, nil
		}
		return 0.4, nil
	}

	liked, err := s.source.HasLikedAnyPostBy(ctx, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("has liked: %w", err)
	}
	if liked {
		return 0.8, nil
	}
	return neutralScore, nil
}

const minTokenLength = 4

// ContentSimilarity is the Jaccard overlap of the significant tokens in two texts.
func ContentSimilarity(a, b string) float64 {
	score, _ := contentOverlap(a, b)
	return score
}

// ContentText joins post contents and the bio into a single text.
func ContentText(posts []*Post, bio *string) string {
	s := Subject{Posts: posts}
	if bio != nil {
		s.Profile = &Profile{Bio: bio}
	}
	return s.Text()
}

func contentOverlap(a, b string) (float64, []string) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return neutralScore, nil
	}

	tokensA := tokenFrequencies(a)
	tokensB := tokenFrequencies(b)

	var common []string
	union := len(tokensA)
	for tok := range tokensB {
		if _, ok := tokensA[tok]; ok {
			common = append(common, tok)
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, nil
	}

	sort.Strings(common)
	return float64(len(common)) / float64(union), common
}

func tokenFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(tok) < minTokenLength {
			continue
		}
		freq[tok]++
	}
	return freq
}
