package matching

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAutoMatchPersistsAcceptedCandidates(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	notifier := &fakeNotifier{}
	svc, _, persister := newTestStack(repo, notifier, nil)

	res, err := svc.AutoMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("AutoMatch: %v", err)
	}
	persister.Wait()

	if len(res.Created) != 2 {
		t.Fatalf("created: got=%d want=2", len(res.Created))
	}
	if len(notifier.calls) != 4 {
		t.Fatalf("notifications: got=%d want=4", len(notifier.calls))
	}

	// A second run finds nothing new: matched users are excluded.
	again, err := svc.AutoMatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("second AutoMatch: %v", err)
	}
	persister.Wait()
	if len(again.Created) != 0 || len(again.Candidates) != 0 {
		t.Fatalf("second run: got=%+v", again)
	}
	if len(repo.matches) != 2 {
		t.Fatalf("rows: got=%d want=2", len(repo.matches))
	}
}

func TestExploreNearbyUsesCache(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	cache := newMemCache()
	svc, _, persister := newTestStack(repo, nil, cache)

	first, err := svc.ExploreNearby(context.Background(), 1, ExploreParams{})
	if err != nil {
		t.Fatalf("ExploreNearby: %v", err)
	}
	if first.Cached || len(first.Candidates) == 0 {
		t.Fatalf("first call: got=%+v", first)
	}
	if len(repo.matches) != 0 {
		t.Fatalf("explore must not persist matches")
	}

	second, err := svc.ExploreNearby(context.Background(), 1, ExploreParams{})
	if err != nil {
		t.Fatalf("ExploreNearby: %v", err)
	}
	if !second.Cached || len(second.Candidates) != len(first.Candidates) {
		t.Fatalf("second call not served from cache: %+v", second)
	}

	// Different parameters are cached separately.
	strict, err := svc.ExploreNearby(context.Background(), 1, ExploreParams{MinScore: f64(0.7)})
	if err != nil {
		t.Fatalf("ExploreNearby: %v", err)
	}
	if strict.Cached || len(strict.Candidates) != 2 {
		t.Fatalf("strict call: got=%+v", strict)
	}

	// A new match drops the cached results of both parties.
	if _, err := svc.AutoMatch(context.Background(), 1); err != nil {
		t.Fatalf("AutoMatch: %v", err)
	}
	persister.Wait()
	if _, ok := cache.Get(context.Background(), 1, ExploreParams{}.cacheKey()); ok {
		t.Fatalf("cache not invalidated after match")
	}
}

func TestGetCompatibility(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	svc, _, _ := newTestStack(repo, nil, nil)

	got, err := svc.GetCompatibility(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("GetCompatibility: %v", err)
	}
	if got.UserID != 2 || !approx(got.Score, 0.78) {
		t.Fatalf("compatibility: got=%+v", got)
	}

	if _, err := svc.GetCompatibility(context.Background(), 1, 1); !errors.Is(err, ErrSelfMatch) {
		t.Fatalf("expected ErrSelfMatch, got %v", err)
	}
	if _, err := svc.GetCompatibility(context.Background(), 1, 99); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestChatAndUnmatchRequireParticipant(t *testing.T) {
	repo := newFakeRepo()
	cache := newMemCache()
	svc, _, _ := newTestStack(repo, nil, cache)
	m, _, _ := repo.UpsertMatch(context.Background(), 4, 2, 0.8, MatchingReasons{})

	if _, err := svc.MarkChatStarted(context.Background(), m.ID, 9); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.MarkChatStarted(context.Background(), 404, 2); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}

	updated, err := svc.MarkChatStarted(context.Background(), m.ID, 4)
	if err != nil || !updated.ChatStarted {
		t.Fatalf("MarkChatStarted: got=%+v err=%v", updated, err)
	}
	if len(cache.invalidated) != 2 {
		t.Fatalf("cache invalidations: got=%v", cache.invalidated)
	}

	// An engaged match now discourages re-surfacing.
	score, err := NewInteractionScorer(repo).Score(context.Background(), 2, 4)
	if err != nil || score != 0.2 {
		t.Fatalf("interaction score after chat: got=%v err=%v", score, err)
	}

	if err := svc.Unmatch(context.Background(), m.ID, 9); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Unmatch(context.Background(), m.ID, 2); err != nil {
		t.Fatalf("Unmatch: %v", err)
	}
	if err := svc.Unmatch(context.Background(), m.ID, 2); err != nil {
		t.Fatalf("repeated Unmatch: %v", err)
	}

	active, _ := svc.GetMatches(context.Background(), 2, true)
	all, _ := svc.GetMatches(context.Background(), 2, false)
	if len(active) != 0 || len(all) != 1 {
		t.Fatalf("matches: active=%d all=%d", len(active), len(all))
	}
}

func TestRunAutoMatchBatch(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	repo.profiles[4].LastActive = time.Now().Add(-30 * 24 * time.Hour)
	svc, _, persister := newTestStack(repo, &fakeNotifier{}, nil)

	res, err := svc.RunAutoMatchBatch(context.Background())
	if err != nil {
		t.Fatalf("RunAutoMatchBatch: %v", err)
	}
	persister.Wait()

	if res.Users != 4 || res.Failed != 0 || res.BatchID == "" {
		t.Fatalf("batch: got=%+v", res)
	}
	// 1-2, 1-3 and 2-3 clear the acceptance threshold.
	if res.Matched != 3 || len(repo.matches) != 3 {
		t.Fatalf("matched: got=%d rows=%d", res.Matched, len(repo.matches))
	}
}

func TestAutoMatchKeepsCandidatesWhenPersistFails(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	down := errors.New("db down")
	for id := int64(2); id <= 5; id++ {
		repo.upsertErr[id] = down
	}
	svc, _, persister := newTestStack(repo, &fakeNotifier{}, nil)

	res, err := svc.AutoMatch(context.Background(), 1)
	persister.Wait()
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("expected ErrPersistFailed, got %v", err)
	}
	if res == nil || res.RunID == "" {
		t.Fatalf("scoring result lost: got=%+v", res)
	}
	if got := candidateIDs(res.Candidates); !equalIDs(got, []int64{2, 3}) {
		t.Fatalf("candidates: got=%v want=[2 3]", got)
	}
	if len(res.Created) != 0 || len(res.Failed) != 2 || !errors.Is(res.Failed[0].Err, down) {
		t.Fatalf("persist outcome: created=%d failed=%+v", len(res.Created), res.Failed)
	}
}

func TestAutoMatchReportsPartialPersistFailure(t *testing.T) {
	repo := newFakeRepo()
	seedNeighbourhood(repo)
	repo.upsertErr[3] = errors.New("deadlock detected")
	svc, _, persister := newTestStack(repo, &fakeNotifier{}, nil)

	res, err := svc.AutoMatch(context.Background(), 1)
	persister.Wait()
	if err != nil {
		t.Fatalf("partial failure should not error: %v", err)
	}
	if len(res.Created) != 1 || res.Created[0].UserB != 2 {
		t.Fatalf("created: got=%+v", res.Created)
	}
	if len(res.Failed) != 1 || res.Failed[0].UserID != 3 {
		t.Fatalf("failed: got=%+v", res.Failed)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates: got=%v", candidateIDs(res.Candidates))
	}
}
