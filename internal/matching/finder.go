package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

const (
	ModeAuto    = "auto"
	ModeExplore = "explore"
)

// FindOptions controls a single ranking run.
type FindOptions struct {
	Mode     string
	Limit    int
	MinScore float64
	Filters  CandidateFilters
}

// SkippedCandidate records a candidate whose scoring failed.
type SkippedCandidate struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// FindResult is the ranked outcome of a run plus whatever had to be skipped.
type FindResult struct {
	RunID      string             `json:"run_id"`
	User       *Profile           `json:"-"`
	Candidates []*MatchCandidate  `json:"candidates"`
	Evaluated  int                `json:"evaluated"`
	Skipped    []SkippedCandidate `json:"skipped,omitempty"`
}

// Finder fetches a candidate pool, scores it concurrently and ranks the result.
type Finder struct {
	repo   Repository
	engine Engine
	cfg    config.MatchingConfig
	log    *logger.Logger
}

func NewFinder(repo Repository, engine Engine, cfg config.MatchingConfig, log *logger.Logger) *Finder {
	return &Finder{repo: repo, engine: engine, cfg: cfg, log: log}
}

// AutoMatchOptions uses the acceptance threshold over recently active users.
func (f *Finder) AutoMatchOptions() FindOptions {
	return FindOptions{
		Mode:     ModeAuto,
		Limit:    f.cfg.DefaultLimit,
		MinScore: f.cfg.AutoMatchThreshold,
		Filters:  CandidateFilters{ActiveWithin: f.cfg.ActiveWindow},
	}
}

// ExploreOptions uses the looser exploratory threshold.
func (f *Finder) ExploreOptions() FindOptions {
	return FindOptions{
		Mode:     ModeExplore,
		Limit:    f.cfg.DefaultLimit,
		MinScore: f.cfg.ExploreThreshold,
	}
}

// FindMatches ranks candidates for userID. Candidates that fail to score are
// reported in Skipped and never abort the run.
func (f *Finder) FindMatches(ctx context.Context, userID int64, opts FindOptions) (*FindResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := f.log.With("run_id", runID, "user_id", userID, "mode", opts.Mode)

	if opts.Limit <= 0 {
		opts.Limit = f.cfg.DefaultLimit
	}

	user, err := f.loadSubject(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched, err := f.repo.MatchedUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("matched users: %w", err)
	}
	exclude := make(map[int64]struct{}, len(matched)+1)
	exclude[userID] = struct{}{}
	for _, id := range matched {
		exclude[id] = struct{}{}
	}

	filters := opts.Filters
	filters.ExcludeIDs = matched
	if filters.Limit <= 0 {
		filters.Limit = f.cfg.CandidatePool
	}
	if filters.MaxDistanceKm > 0 && filters.Origin == nil {
		filters.Origin = user.Profile.Location()
	}

	poolCtx, cancel := context.WithTimeout(ctx, f.cfg.PoolTimeout)
	pool, err := f.repo.ListCandidates(poolCtx, userID, &filters)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	scored := make([]*MatchCandidate, len(pool))
	var (
		mu      sync.Mutex
		skipped []SkippedCandidate
	)

	var g errgroup.Group
	if f.cfg.MaxConcurrency > 0 {
		g.SetLimit(f.cfg.MaxConcurrency)
	}

	evaluated := 0
	for i, cand := range pool {
		if _, ok := exclude[cand.UserID]; ok {
			continue
		}
		evaluated++

		i, cand := i, cand
		g.Go(func() error {
			mc, err := f.scoreCandidate(ctx, user, cand)
			if err != nil {
				reason := failureReason(err)
				RecordCandidateFailure(reason)
				log.Warn("candidate skipped", "candidate_id", cand.UserID, "reason", reason, "error", err)

				mu.Lock()
				skipped = append(skipped, SkippedCandidate{UserID: cand.UserID, Reason: reason, Err: err})
				mu.Unlock()
				return nil
			}
			RecordCompatibilityScore(mc.Score)
			scored[i] = mc
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].UserID < skipped[j].UserID })

	ranked := RankCandidates(scored, opts.MinScore, opts.Limit)

	RecordScoringDuration(opts.Mode, time.Since(start))
	log.Debug("scoring run finished",
		"pool", len(pool),
		"evaluated", evaluated,
		"accepted", len(ranked),
		"skipped", len(skipped),
		"duration", time.Since(start),
	)

	return &FindResult{
		RunID:      runID,
		User:       user.Profile,
		Candidates: ranked,
		Evaluated:  evaluated,
		Skipped:    skipped,
	}, nil
}

// Score rates a single pair on demand.
func (f *Finder) Score(ctx context.Context, userID, otherID int64) (*MatchCandidate, error) {
	user, err := f.loadSubject(ctx, userID)
	if err != nil {
		return nil, err
	}
	other, err := f.loadSubject(ctx, otherID)
	if err != nil {
		return nil, err
	}
	return f.engine.Score(ctx, user, other)
}

func (f *Finder) loadSubject(ctx context.Context, userID int64) (*Subject, error) {
	profile, err := f.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := f.repo.GetRecentPosts(ctx, userID, f.cfg.RecentPosts, true)
	if err != nil {
		return nil, fmt.Errorf("recent posts for %d: %w", userID, err)
	}
	return &Subject{Profile: profile, Posts: posts}, nil
}

func (f *Finder) scoreCandidate(ctx context.Context, user *Subject, cand *Profile) (*MatchCandidate, error) {
	if f.cfg.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.CandidateTimeout)
		defer cancel()
	}

	posts, err := f.repo.GetRecentPosts(ctx, cand.UserID, f.cfg.RecentPosts, true)
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	return f.engine.Score(ctx, user, &Subject{Profile: cand, Posts: posts})
}

// RankCandidates drops nil entries and scores below minScore, sorts by score
// descending with ties broken by ascending user id, and keeps at most limit.
func RankCandidates(candidates []*MatchCandidate, minScore float64, limit int) []*MatchCandidate {
	ranked := make([]*MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.Score >= minScore {
			ranked = append(ranked, c)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
