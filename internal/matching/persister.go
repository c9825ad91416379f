package matching

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

const (
	notificationTypeMatch = "match"
	matchTitle            = "New Vibe Match! ✨"
)

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, userID int64, notificationType, title, message string, data map[string]interface{}) error
}

// PersistFailure is a candidate whose match row could not be written.
type PersistFailure struct {
	UserID int64
	Err    error
}

// PersistResult splits the accepted candidates by what happened to them.
type PersistResult struct {
	Created  []*Match
	Existing []*Match
	Failed   []PersistFailure
}

// Persister writes accepted candidates as matches and announces new ones.
type Persister struct {
	repo          Repository
	notifier      Notifier
	cache         ResultCache
	notifyTimeout time.Duration
	log           *logger.Logger

	wg sync.WaitGroup
}

func NewPersister(repo Repository, notifier Notifier, cache ResultCache, cfg config.MatchingConfig, log *logger.Logger) *Persister {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Persister{
		repo:          repo,
		notifier:      notifier,
		cache:         cache,
		notifyTimeout: cfg.NotifyTimeout,
		log:           log,
	}
}

// Persist upserts one match per candidate. Re-running with the same
// candidates is safe: existing pairs are returned untouched and not
// re-announced. An error is returned only when every candidate failed.
func (p *Persister) Persist(ctx context.Context, user *Profile, candidates []*MatchCandidate) (*PersistResult, error) {
	result := &PersistResult{}

	for _, c := range candidates {
		if c.UserID == user.UserID {
			result.Failed = append(result.Failed, PersistFailure{UserID: c.UserID, Err: ErrSelfMatch})
			continue
		}

		match, created, err := p.repo.UpsertMatch(ctx, user.UserID, c.UserID, c.Score, c.Reasons)
		if err != nil {
			p.log.Error("failed to persist match", "user_id", user.UserID, "candidate_id", c.UserID, "error", err)
			result.Failed = append(result.Failed, PersistFailure{UserID: c.UserID, Err: err})
			continue
		}

		if !created {
			RecordMatch("existing")
			result.Existing = append(result.Existing, match)
			continue
		}

		RecordMatch("created")
		result.Created = append(result.Created, match)
		p.cache.Invalidate(ctx, user.UserID, c.UserID)
		p.announce(match, user, c.Profile)
	}

	if len(candidates) > 0 && len(result.Failed) == len(candidates) {
		return result, fmt.Errorf("%w: %v", ErrPersistFailed, result.Failed[0].Err)
	}
	return result, nil
}

// Wait blocks until in-flight notifications finish.
func (p *Persister) Wait() {
	p.wg.Wait()
}

// announce notifies both parties in the background. Delivery failures are
// logged and counted only.
func (p *Persister) announce(match *Match, user, other *Profile) {
	if p.notifier == nil {
		return
	}

	pct := int(math.Round(match.CompatibilityScore * 100))
	otherID, _ := match.OtherUser(user.UserID)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx := context.Background()
		if p.notifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.notifyTimeout)
			defer cancel()
		}

		sends := []struct {
			recipient int64
			partner   int64
			name      string
		}{
			{user.UserID, otherID, displayName(other)},
			{otherID, user.UserID, displayName(user)},
		}

		for _, s := range sends {
			message := fmt.Sprintf("You matched with %s, %d%% compatible", s.name, pct)
			data := map[string]interface{}{
				"match_id": match.ID,
				"user_id":  s.partner,
				"score":    pct,
			}
			if err := p.notifier.Notify(ctx, s.recipient, notificationTypeMatch, matchTitle, message, data); err != nil {
				RecordNotificationFailure()
				p.log.Warn("match notification failed",
					"match_id", match.ID,
					"recipient", s.recipient,
					"error", err,
				)
			}
		}
	}()
}

func displayName(p *Profile) string {
	if p == nil || p.DisplayName == "" {
		return "someone new"
	}
	return p.DisplayName
}
