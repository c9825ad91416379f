package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository is the data store the matching core reads and writes.
type Repository interface {
	InteractionSource

	// Profiles and posts
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	GetRecentPosts(ctx context.Context, userID int64, limit int, activeOnly bool) ([]*Post, error)
	ListCandidates(ctx context.Context, excludeUserID int64, filters *CandidateFilters) ([]*Profile, error)
	ListActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)

	// Likes
	HasLiked(ctx context.Context, userID, postID int64) (bool, error)

	// Matches
	MatchedUserIDs(ctx context.Context, userID int64) ([]int64, error)
	UpsertMatch(ctx context.Context, userA, userB int64, score float64, reasons MatchingReasons) (*Match, bool, error)
	GetMatch(ctx context.Context, id int64) (*Match, error)
	GetUserMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error)
	SetChatStarted(ctx context.Context, matchID int64) error
	DeactivateMatch(ctx context.Context, matchID int64) error
}

// CandidateFilters narrows the candidate pool. Zero values mean "no constraint".
type CandidateFilters struct {
	Limit         int
	ActiveWithin  time.Duration
	City          string
	Origin        *GeoPoint
	MaxDistanceKm float64
	ExcludeIDs    []int64
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `user_id, display_name, vibe_score, location_lat, location_lng, city, bio, last_active`

const matchColumns = `id, user_a, user_b, compatibility_score, matching_reasons,
	chat_started, is_active, created_at, updated_at`

// Profile Methods

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) GetRecentPosts(ctx context.Context, userID int64, limit int, activeOnly bool) ([]*Post, error) {
	query := `
		SELECT id, user_id, mood, activity, content, is_active, expires_at, created_at
		FROM vibe_echoes
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE AND (expires_at IS NULL OR expires_at > NOW())`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	posts := []*Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID, limit); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postgresRepository) ListCandidates(ctx context.Context, excludeUserID int64, filters *CandidateFilters) ([]*Profile, error) {
	if filters == nil {
		filters = &CandidateFilters{}
	}

	conditions := []string{"user_id <> $1"}
	args := []interface{}{excludeUserID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filters.ExcludeIDs) > 0 {
		conditions = append(conditions, "NOT (user_id = ANY("+arg(pq.Array(filters.ExcludeIDs))+"))")
	}
	if filters.ActiveWithin > 0 {
		conditions = append(conditions, "last_active >= "+arg(time.Now().Add(-filters.ActiveWithin)))
	}
	if filters.City != "" {
		conditions = append(conditions, "city = "+arg(filters.City))
	}
	if filters.Origin != nil && filters.MaxDistanceKm > 0 {
		lat, lng := arg(filters.Origin.Lat), arg(filters.Origin.Lng)
		conditions = append(conditions,
			"location_lat IS NOT NULL AND location_lng IS NOT NULL",
			fmt.Sprintf(`%f * 2 * ASIN(SQRT(
				POWER(SIN(RADIANS(location_lat - %s) / 2), 2) +
				COS(RADIANS(%s)) * COS(RADIANS(location_lat)) *
				POWER(SIN(RADIANS(location_lng - %s) / 2), 2)
			)) <= %s`, earthRadiusKm, lat, lat, lng, arg(filters.MaxDistanceKm)),
		)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY last_active DESC, user_id`
	if filters.Limit > 0 {
		query += " LIMIT " + arg(filters.Limit)
	}

	profiles := []*Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *postgresRepository) ListActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	query := `
		SELECT user_id FROM profiles
		WHERE last_active >= $1
		ORDER BY last_active DESC
		LIMIT $2`

	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, query, since, limit)
	return ids, err
}

// Interaction Methods

func (r *postgresRepository) FindExistingMatch(ctx context.Context, userA, userB int64) (*Match, error) {
	userA, userB = CanonicalPair(userA, userB)

	var m Match
	query := `SELECT ` + matchColumns + ` FROM vibe_matches WHERE user_a = $1 AND user_b = $2`

	err := r.db.GetContext(ctx, &m, query, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) HasLiked(ctx context.Context, userID, postID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM vibe_echo_likes WHERE user_id = $1 AND echo_id = $2)`

	err := r.db.GetContext(ctx, &exists, query, userID, postID)
	return exists, err
}

func (r *postgresRepository) HasLikedAnyPostBy(ctx context.Context, likerID, authorID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM vibe_echo_likes l
			JOIN vibe_echoes e ON e.id = l.echo_id
			WHERE l.user_id = $1 AND e.user_id = $2
		)`

	err := r.db.GetContext(ctx, &exists, query, likerID, authorID)
	return exists, err
}

// Match Methods

func (r *postgresRepository) MatchedUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
		FROM vibe_matches
		WHERE user_a = $1 OR user_b = $1`

	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, query, userID)
	return ids, err
}

// UpsertMatch inserts the pair once. The boolean is false when the pair
// already existed, in which case the stored row is returned unchanged.
func (r *postgresRepository) UpsertMatch(ctx context.Context, userA, userB int64, score float64, reasons MatchingReasons) (*Match, bool, error) {
	userA, userB = CanonicalPair(userA, userB)

	var m Match
	query := `
		INSERT INTO vibe_matches (user_a, user_b, compatibility_score, matching_reasons)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT vibe_matches_pair_key DO NOTHING
		RETURNING ` + matchColumns

	err := r.db.GetContext(ctx, &m, query, userA, userB, score, reasons)
	if err == nil {
		return &m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.FindExistingMatch(ctx, userA, userB)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Row vanished between the conflict and the read.
		return nil, false, ErrMatchNotFound
	}
	return existing, false, nil
}

func (r *postgresRepository) GetMatch(ctx context.Context, id int64) (*Match, error) {
	var m Match
	query := `SELECT ` + matchColumns + ` FROM vibe_matches WHERE id = $1`

	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) GetUserMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error) {
	query := `SELECT ` + matchColumns + ` FROM vibe_matches WHERE (user_a = $1 OR user_b = $1)`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	matches := []*Match{}
	if err := r.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresRepository) SetChatStarted(ctx context.Context, matchID int64) error {
	query := `
		UPDATE vibe_matches
		SET chat_started = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	return r.execOne(ctx, query, matchID)
}

func (r *postgresRepository) DeactivateMatch(ctx context.Context, matchID int64) error {
	query := `
		UPDATE vibe_matches
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	return r.execOne(ctx, query, matchID)
}

func (r *postgresRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMatchNotFound
	}
	return nil
}
