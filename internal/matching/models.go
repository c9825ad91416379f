package matching

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// GeoPoint is a coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Profile holds the public attributes the scorer reads.
type Profile struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	VibeScore   int       `json:"vibe_score" db:"vibe_score"`
	Latitude    *float64  `json:"latitude,omitempty" db:"location_lat"`
	Longitude   *float64  `json:"longitude,omitempty" db:"location_lng"`
	City        *string   `json:"city,omitempty" db:"city"`
	Bio         *string   `json:"bio,omitempty" db:"bio"`
	LastActive  time.Time `json:"last_active" db:"last_active"`
}

// Location returns nil unless both coordinates are known.
func (p *Profile) Location() *GeoPoint {
	if p == nil || p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &GeoPoint{Lat: *p.Latitude, Lng: *p.Longitude}
}

func (p *Profile) proximity() ProximitySignal {
	return ProximitySignal{Location: p.Location(), City: p.City}
}

// Post is a vibe echo: an ephemeral mood/activity declaration.
type Post struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Mood      Mood       `json:"mood" db:"mood"`
	Activity  *string    `json:"activity,omitempty" db:"activity"`
	Content   string     `json:"content" db:"content"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Subject is one side of a scoring pair: a profile and its most recent active posts.
type Subject struct {
	Profile *Profile
	Posts   []*Post
}

// Moods returns post moods, most recent first.
func (s *Subject) Moods() []Mood {
	moods := make([]Mood, 0, len(s.Posts))
	for _, p := range s.Posts {
		if p.Mood != "" {
			moods = append(moods, p.Mood)
		}
	}
	return moods
}

// Activities returns the non-empty activity tags of the posts.
func (s *Subject) Activities() []string {
	activities := make([]string, 0, len(s.Posts))
	for _, p := range s.Posts {
		if p.Activity != nil && strings.TrimSpace(*p.Activity) != "" {
			activities = append(activities, *p.Activity)
		}
	}
	return activities
}

// Text is the post contents followed by the bio.
func (s *Subject) Text() string {
	parts := make([]string, 0, len(s.Posts)+1)
	for _, p := range s.Posts {
		parts = append(parts, p.Content)
	}
	if s.Profile != nil && s.Profile.Bio != nil {
		parts = append(parts, *s.Profile.Bio)
	}
	return strings.Join(parts, " ")
}

// CompatibilityFactors are the six normalized sub-scores of a pair.
type CompatibilityFactors struct {
	Mood               float64 `json:"mood"`
	Activity           float64 `json:"activity"`
	VibeScore          float64 `json:"vibe_score"`
	Proximity          float64 `json:"proximity"`
	InteractionHistory float64 `json:"interaction_history"`
	ContentSimilarity  float64 `json:"content_similarity"`
}

// MatchingReasons is the explainability snapshot stored with a match.
type MatchingReasons struct {
	WeightsVersion   string     `json:"weights_version"`
	SimilarMood      bool       `json:"similar_mood"`
	SharedActivities bool       `json:"shared_activities"`
	Nearby           bool       `json:"nearby"`
	SimilarVibe      bool       `json:"similar_vibe"`
	SharedInterests  bool       `json:"shared_interests"`
	PriorInteraction bool       `json:"prior_interaction"`
	CommonMoods      []Mood     `json:"common_moods,omitempty"`
	CommonActivities []Category `json:"common_activities,omitempty"`
	CommonKeywords   []string   `json:"common_keywords,omitempty"`
	DistanceKm       *float64   `json:"distance_km,omitempty"`
}

// Scan implements sql.Scanner for the JSONB column
func (r *MatchingReasons) Scan(value interface{}) error {
	if value == nil {
		*r = MatchingReasons{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("matching_reasons: unsupported column type")
	}

	return json.Unmarshal(raw, r)
}

// Value implements driver.Valuer
func (r MatchingReasons) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// MatchCandidate is a transient scoring result, persisted only once accepted.
type MatchCandidate struct {
	UserID  int64                `json:"user_id"`
	Profile *Profile             `json:"profile"`
	Factors CompatibilityFactors `json:"factors"`
	Score   float64              `json:"compatibility_score"`
	Reasons MatchingReasons      `json:"matching_reasons"`
}

// Match is a persisted symmetric pairing; UserA < UserB always.
type Match struct {
	ID                 int64           `json:"id" db:"id"`
	UserA              int64           `json:"user_a" db:"user_a"`
	UserB              int64           `json:"user_b" db:"user_b"`
	CompatibilityScore float64         `json:"compatibility_score" db:"compatibility_score"`
	MatchingReasons    MatchingReasons `json:"matching_reasons" db:"matching_reasons"`
	ChatStarted        bool            `json:"chat_started" db:"chat_started"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// HasUser reports whether userID is one of the two parties.
func (m *Match) HasUser(userID int64) bool {
	return m.UserA == userID || m.UserB == userID
}

// OtherUser returns the counterpart of userID.
func (m *Match) OtherUser(userID int64) (int64, bool) {
	switch userID {
	case m.UserA:
		return m.UserB, true
	case m.UserB:
		return m.UserA, true
	}
	return 0, false
}

// CanonicalPair orders two user ids so the smaller comes first.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
