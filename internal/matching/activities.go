package matching

import "strings"

// Category is a coarse activity bucket.
type Category string

const (
	CategorySocial        Category = "social"
	CategoryCreative      Category = "creative"
	CategoryActive        Category = "active"
	CategoryIntellectual  Category = "intellectual"
	CategoryEntertainment Category = "entertainment"
)

var allCategories = []Category{
	CategorySocial, CategoryCreative, CategoryActive, CategoryIntellectual, CategoryEntertainment,
}

var categoryActivities = map[Category][]string{
	CategorySocial:        {"party", "coffee", "dinner", "drinks", "meetup", "concert", "festival", "hangout", "brunch"},
	CategoryCreative:      {"art", "music", "writing", "photography", "painting", "design", "crafts", "concert", "cooking"},
	CategoryActive:        {"hiking", "running", "gym", "yoga", "cycling", "swimming", "sports", "dancing", "climbing", "festival"},
	CategoryIntellectual:  {"reading", "learning", "podcast", "museum", "chess", "coding", "writing", "debate"},
	CategoryEntertainment: {"movies", "gaming", "netflix", "concert", "festival", "comedy", "party", "music"},
}

// activityIndex inverts categoryActivities: activity -> categories.
var activityIndex = func() map[string][]Category {
	idx := make(map[string][]Category)
	for _, c := range allCategories {
		for _, a := range categoryActivities[c] {
			idx[a] = append(idx[a], c)
		}
	}
	return idx
}()

// ActivityCategories returns the set of categories touched by the given tags.
// Unknown tags contribute nothing.
func ActivityCategories(activities []string) map[Category]struct{} {
	set := make(map[Category]struct{})
	for _, a := range activities {
		for _, c := range activityIndex[strings.ToLower(strings.TrimSpace(a))] {
			set[c] = struct{}{}
		}
	}
	return set
}

// ActivityScore is 2·|A∩B| / |A∪B| over the category sets, or 0.5 when
// either side has no categories. The result may exceed 1.
func ActivityScore(a, b []string) float64 {
	score, _ := activityOverlap(a, b)
	return score
}

func activityOverlap(a, b []string) (float64, []Category) {
	setA := ActivityCategories(a)
	setB := ActivityCategories(b)
	if len(setA) == 0 || len(setB) == 0 {
		return neutralScore, nil
	}

	var common []Category
	union := len(setB)
	for _, c := range allCategories {
		_, inA := setA[c]
		_, inB := setB[c]
		switch {
		case inA && inB:
			common = append(common, c)
		case inA:
			union++
		}
	}

	return 2 * float64(len(common)) / float64(union), common
}
