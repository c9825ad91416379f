package matching

import "strings"

// Mood is one of the fixed vibe tags a post can carry.
type Mood string

const (
	MoodHappy       Mood = "happy"
	MoodExcited     Mood = "excited"
	MoodCalm        Mood = "calm"
	MoodAdventurous Mood = "adventurous"
	MoodCreative    Mood = "creative"
	MoodSocial      Mood = "social"
	MoodThoughtful  Mood = "thoughtful"
	MoodEnergetic   Mood = "energetic"
)

// AllMoods lists the vocabulary in display order.
var AllMoods = []Mood{
	MoodHappy, MoodExcited, MoodCalm, MoodAdventurous,
	MoodCreative, MoodSocial, MoodThoughtful, MoodEnergetic,
}

const neutralScore = 0.5

type moodPair struct{ a, b Mood }

// Lower triangle only; lookups try both orders.
var moodAffinities = map[moodPair]float64{
	{MoodHappy, MoodExcited}:     0.9,
	{MoodHappy, MoodCalm}:        0.6,
	{MoodHappy, MoodAdventurous}: 0.8,
	{MoodHappy, MoodCreative}:    0.7,
	{MoodHappy, MoodSocial}:      0.9,
	{MoodHappy, MoodThoughtful}:  0.5,
	{MoodHappy, MoodEnergetic}:   0.8,

	{MoodExcited, MoodCalm}:        0.4,
	{MoodExcited, MoodAdventurous}: 0.9,
	{MoodExcited, MoodCreative}:    0.8,
	{MoodExcited, MoodSocial}:      0.9,
	{MoodExcited, MoodThoughtful}:  0.4,
	{MoodExcited, MoodEnergetic}:   1.0,

	{MoodCalm, MoodAdventurous}: 0.5,
	{MoodCalm, MoodCreative}:    0.7,
	{MoodCalm, MoodSocial}:      0.5,
	{MoodCalm, MoodThoughtful}:  0.9,
	{MoodCalm, MoodEnergetic}:   0.3,

	{MoodAdventurous, MoodCreative}:   0.8,
	{MoodAdventurous, MoodSocial}:     0.8,
	{MoodAdventurous, MoodThoughtful}: 0.6,
	{MoodAdventurous, MoodEnergetic}:  0.9,

	{MoodCreative, MoodSocial}:     0.7,
	{MoodCreative, MoodThoughtful}: 0.8,
	{MoodCreative, MoodEnergetic}:  0.7,

	{MoodSocial, MoodThoughtful}: 0.6,
	{MoodSocial, MoodEnergetic}:  0.8,

	{MoodThoughtful, MoodEnergetic}: 0.4,
}

// ParseMood normalizes s and reports whether it is a known mood.
func ParseMood(s string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Valid reports whether m belongs to the vocabulary.
func (m Mood) Valid() bool {
	for _, known := range AllMoods {
		if m == known {
			return true
		}
	}
	return false
}

// MoodAffinity looks up the symmetric affinity of two moods.
// Identical moods score 1.0 and pairs missing from the table 0.5.
func MoodAffinity(a, b Mood) float64 {
	if a == b {
		return 1.0
	}
	if v, ok := moodAffinities[moodPair{a, b}]; ok {
		return v
	}
	if v, ok := moodAffinities[moodPair{b, a}]; ok {
		return v
	}
	return neutralScore
}

// MoodScore averages the affinity over every (a, b) pair of the two histories.
func MoodScore(a, b []Mood) float64 {
	if len(a) == 0 || len(b) == 0 {
		return neutralScore
	}

	var total float64
	for _, m1 := range a {
		for _, m2 := range b {
			total += MoodAffinity(m1, m2)
		}
	}
	return total / float64(len(a)*len(b))
}

// commonMoods returns the moods present in both histories, in vocabulary order.
func commonMoods(a, b []Mood) []Mood {
	seen := make(map[Mood]bool, len(a))
	for _, m := range a {
		seen[m] = true
	}
	inB := make(map[Mood]bool, len(b))
	for _, m := range b {
		inB[m] = true
	}

	var common []Mood
	for _, m := range AllMoods {
		if seen[m] && inB[m] {
			common = append(common, m)
		}
	}
	return common
}
