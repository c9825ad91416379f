package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		AutoMatchThreshold: 0.6,
		ExploreThreshold:   0.3,
		DefaultLimit:       10,
		RecentPosts:        5,
		CandidatePool:      200,
		MaxConcurrency:     4,
		CandidateTimeout:   time.Second,
		PoolTimeout:        time.Second,
		NotifyTimeout:      time.Second,
		ActiveWindow:       72 * time.Hour,
		AutoMatchInterval:  0,
		ExploreCacheTTL:    time.Minute,
	}
}

func f64(v float64) *float64 { return &v }
func str(s string) *string { return &s }

type fakeRepo struct {
	mu sync.Mutex

	profiles map[int64]*Profile
	posts    map[int64][]*Post
	likes    map[[2]int64]bool // {liker, author}
	matches  []*Match
	nextID   int64

	interactionErr map[int64]error
	postsDelay     map[int64]time.Duration
	upsertErr      map[int64]error
	lastFilters    *CandidateFilters
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles:       map[int64]*Profile{},
		posts:          map[int64][]*Post{},
		likes:          map[[2]int64]bool{},
		interactionErr: map[int64]error{},
		postsDelay:     map[int64]time.Duration{},
		upsertErr:      map[int64]error{},
	}
}

func (r *fakeRepo) addUser(p *Profile, posts ...*Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.LastActive.IsZero() {
		p.LastActive = time.Now()
	}
	r.profiles[p.UserID] = p
	for _, post := range posts {
		post.UserID = p.UserID
		post.IsActive = true
	}
	r.posts[p.UserID] = posts
}

func (r *fakeRepo) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetRecentPosts(ctx context.Context, userID int64, limit int, activeOnly bool) ([]*Post, error) {
	r.mu.Lock()
	delay := r.postsDelay[userID]
	posts := r.posts[userID]
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *fakeRepo) ListCandidates(ctx context.Context, excludeUserID int64, filters *CandidateFilters) ([]*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := *filters
	r.lastFilters = &f

	var out []*Profile
	for id, p := range r.profiles {
		if id == excludeUserID {
			continue
		}
		if filters.City != "" && (p.City == nil || *p.City != filters.City) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *fakeRepo) ListActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, p := range r.profiles {
		if !p.LastActive.Before(since) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeRepo) FindExistingMatch(ctx context.Context, userA, userB int64) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.interactionErr[userB]; err != nil {
		return nil, err
	}
	return r.findLocked(userA, userB), nil
}

func (r *fakeRepo) findLocked(userA, userB int64) *Match {
	a, b := CanonicalPair(userA, userB)
	for _, m := range r.matches {
		if m.UserA == a && m.UserB == b {
			return m
		}
	}
	return nil
}

func (r *fakeRepo) HasLikedAnyPostBy(ctx context.Context, likerID, authorID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[[2]int64{likerID, authorID}], nil
}

func (r *fakeRepo) HasLiked(ctx context.Context, userID, postID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for author, posts := range r.posts {
		for _, p := range posts {
			if p.ID == postID {
				return r.likes[[2]int64{userID, author}], nil
			}
		}
	}
	return false, nil
}

func (r *fakeRepo) MatchedUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, m := range r.matches {
		if other, ok := m.OtherUser(userID); ok {
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (r *fakeRepo) UpsertMatch(ctx context.Context, userA, userB int64, score float64, reasons MatchingReasons) (*Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.upsertErr[userB]; err != nil {
		return nil, false, err
	}
	if m := r.findLocked(userA, userB); m != nil {
		return m, false, nil
	}

	a, b := CanonicalPair(userA, userB)
	r.nextID++
	m := &Match{
		ID:                 r.nextID,
		UserA:              a,
		UserB:              b,
		CompatibilityScore: score,
		MatchingReasons:    reasons,
		IsActive:           true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	r.matches = append(r.matches, m)
	return m, true, nil
}

func (r *fakeRepo) GetMatch(ctx context.Context, id int64) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (r *fakeRepo) GetUserMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Match{}
	for _, m := range r.matches {
		if m.HasUser(userID) && (!activeOnly || m.IsActive) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetChatStarted(ctx context.Context, matchID int64) error {
	return r.update(matchID, func(m *Match) { m.ChatStarted = true })
}

func (r *fakeRepo) DeactivateMatch(ctx context.Context, matchID int64) error {
	return r.update(matchID, func(m *Match) { m.IsActive = false })
}

func (r *fakeRepo) update(matchID int64, fn func(*Match)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == matchID {
			fn(m)
			return nil
		}
	}
	return ErrMatchNotFound
}

type notifyCall struct {
	userID  int64
	kind    string
	title   string
	message string
	data    map[string]interface{}
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, userID int64, kind, title, message string, data map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{userID, kind, title, message, data})
	return n.err
}

func (n *fakeNotifier) callsFor(userID int64) []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifyCall
	for _, c := range n.calls {
		if c.userID == userID {
			out = append(out, c)
		}
	}
	return out
}

type memCache struct {
	mu          sync.Mutex
	entries     map[int64]map[string][]*MatchCandidate
	invalidated []int64
}

func newMemCache() *memCache {
	return &memCache{entries: map[int64]map[string][]*MatchCandidate{}}
}

func (c *memCache) Get(ctx context.Context, userID int64, key string) ([]*MatchCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[userID][key]
	return v, ok
}

func (c *memCache) Set(ctx context.Context, userID int64, key string, candidates []*MatchCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[userID] == nil {
		c.entries[userID] = map[string][]*MatchCandidate{}
	}
	c.entries[userID][key] = candidates
}

func (c *memCache) Invalidate(ctx context.Context, userIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
}

// newTestStack wires a service over the fake repository.
func newTestStack(repo *fakeRepo, notifier Notifier, cache ResultCache) (Service, *Finder, *Persister) {
	cfg := testMatchingConfig()
	log := logger.NewNop()
	finder := NewFinder(repo, NewEngine(repo, WeightsV1), cfg, log)
	persister := NewPersister(repo, notifier, cache, cfg, log)
	return NewService(repo, finder, persister, cache, cfg, log), finder, persister
}
