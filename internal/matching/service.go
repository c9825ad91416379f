// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrUnauthorized    = errors.New("unauthorized to perform this action")
	ErrSelfMatch       = errors.New("cannot match with yourself")
	ErrPersistFailed   = errors.New("failed to persist matches")
)

const maxBatchUsers = 5000

type Service interface {
	// Scoring runs
	AutoMatch(ctx context.Context, userID int64) (*AutoMatchResult, error)
	ExploreNearby(ctx context.Context, userID int64, params ExploreParams) (*ExploreResult, error)
	GetCompatibility(ctx context.Context, userID, otherID int64) (*MatchCandidate, error)

	// Matches
	GetMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error)
	MarkChatStarted(ctx context.Context, matchID, userID int64) (*Match, error)
	Unmatch(ctx context.Context, matchID, userID int64) error

	// Scheduled Jobs
	RunAutoMatchBatch(ctx context.Context) (*BatchResult, error)
}

// ExploreParams are the caller-tunable parts of an exploratory search.
// A nil MinScore falls back to the configured explore threshold.
type ExploreParams struct {
	Limit         int
	MinScore      *float64
	City          string
	MaxDistanceKm float64
}

func (p ExploreParams) cacheKey() string {
	minScore := "default"
	if p.MinScore != nil {
		minScore = fmt.Sprintf("%.4f", *p.MinScore)
	}
	return fmt.Sprintf("l=%d|s=%s|c=%s|d=%g", p.Limit, minScore, p.City, p.MaxDistanceKm)
}

type AutoMatchResult struct {
	RunID      string             `json:"run_id"`
	Candidates []*MatchCandidate  `json:"candidates"`
	Created    []*Match           `json:"created"`
	Existing   []*Match           `json:"existing,omitempty"`
	Skipped    []SkippedCandidate `json:"skipped,omitempty"`
	Failed     []PersistFailure   `json:"-"`
}

type ExploreResult struct {
	Candidates []*MatchCandidate  `json:"candidates"`
	Skipped    []SkippedCandidate `json:"skipped,omitempty"`
	Cached     bool               `json:"cached"`
}

type BatchResult struct {
	BatchID string `json:"batch_id"`
	Users   int    `json:"users"`
	Matched int    `json:"matched"`
	Failed  int    `json:"failed"`
}

type service struct {
	repo      Repository
	finder    *Finder
	persister *Persister
	cache     ResultCache
	cfg       config.MatchingConfig
	log       *logger.Logger
}

func NewService(repo Repository, finder *Finder, persister *Persister, cache ResultCache, cfg config.MatchingConfig, log *logger.Logger) Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &service{
		repo:      repo,
		finder:    finder,
		persister: persister,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

func (s *service) AutoMatch(ctx context.Context, userID int64) (*AutoMatchResult, error) {
	found, err := s.finder.FindMatches(ctx, userID, s.finder.AutoMatchOptions())
	if err != nil {
		return nil, err
	}

	result := &AutoMatchResult{
		RunID:      found.RunID,
		Candidates: found.Candidates,
		Skipped:    found.Skipped,
	}

	// The ranked candidates are returned even when persisting fails so the
	// caller can retry the write without rescoring.
	persisted, err := s.persister.Persist(ctx, found.User, found.Candidates)
	if persisted != nil {
		result.Created = persisted.Created
		result.Existing = persisted.Existing
		result.Failed = persisted.Failed
	}
	return result, err
}

func (s *service) ExploreNearby(ctx context.Context, userID int64, params ExploreParams) (*ExploreResult, error) {
	key := params.cacheKey()
	if cached, ok := s.cache.Get(ctx, userID, key); ok {
		return &ExploreResult{Candidates: cached, Cached: true}, nil
	}

	opts := s.finder.ExploreOptions()
	if params.Limit > 0 {
		opts.Limit = params.Limit
	}
	if params.MinScore != nil {
		opts.MinScore = *params.MinScore
	}
	opts.Filters.City = params.City
	opts.Filters.MaxDistanceKm = params.MaxDistanceKm

	found, err := s.finder.FindMatches(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	// Partial runs are not cached so skipped candidates get another chance.
	if len(found.Skipped) == 0 {
		s.cache.Set(ctx, userID, key, found.Candidates)
	}

	return &ExploreResult{Candidates: found.Candidates, Skipped: found.Skipped}, nil
}

func (s *service) GetCompatibility(ctx context.Context, userID, otherID int64) (*MatchCandidate, error) {
	if userID == otherID {
		return nil, ErrSelfMatch
	}
	return s.finder.Score(ctx, userID, otherID)
}

func (s *service) GetMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error) {
	return s.repo.GetUserMatches(ctx, userID, activeOnly)
}

func (s *service) MarkChatStarted(ctx context.Context, matchID, userID int64) (*Match, error) {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if match.ChatStarted {
		return match, nil
	}

	if err := s.repo.SetChatStarted(ctx, matchID); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, match.UserA, match.UserB)

	match.ChatStarted = true
	return match, nil
}

func (s *service) Unmatch(ctx context.Context, matchID, userID int64) error {
	match, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if !match.IsActive {
		return nil
	}

	if err := s.repo.DeactivateMatch(ctx, matchID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, match.UserA, match.UserB)
	return nil
}

func (s *service) participantMatch(ctx context.Context, matchID, userID int64) (*Match, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	// Verify user is part of the match
	if !match.HasUser(userID) {
		return nil, ErrUnauthorized
	}
	return match, nil
}

// RunAutoMatchBatch auto-matches every recently active user in turn.
// One user's failure is logged and the batch moves on.
func (s *service) RunAutoMatchBatch(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString()}
	log := s.log.With("batch_id", result.BatchID)

	since := time.Now().Add(-s.cfg.ActiveWindow)
	userIDs, err := s.repo.ListActiveUserIDs(ctx, since, maxBatchUsers)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Users++
		res, err := s.AutoMatch(ctx, userID)
		if err != nil {
			result.Failed++
			log.Warn("auto-match failed", "user_id", userID, "error", err)
			continue
		}
		result.Matched += len(res.Created)
	}

	log.Info("auto-match batch finished",
		"users", result.Users,
		"matched", result.Matched,
		"failed", result.Failed,
	)
	return result, nil
}
