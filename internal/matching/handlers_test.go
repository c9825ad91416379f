package matching

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/sparkvibe-backend/internal/auth"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/utils"
)

const testSecret = "handler-secret"

type stubService struct {
	err         error
	exploreArgs *ExploreParams
	activeOnly  *bool
}

func (s *stubService) AutoMatch(ctx context.Context, userID int64) (*AutoMatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &AutoMatchResult{RunID: "run-1"}, nil
}

func (s *stubService) ExploreNearby(ctx context.Context, userID int64, params ExploreParams) (*ExploreResult, error) {
	s.exploreArgs = &params
	if s.err != nil {
		return nil, s.err
	}
	return &ExploreResult{Candidates: []*MatchCandidate{{UserID: 2, Score: 0.5}}}, nil
}

func (s *stubService) GetCompatibility(ctx context.Context, userID, otherID int64) (*MatchCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &MatchCandidate{UserID: otherID, Score: 0.784}, nil
}

func (s *stubService) GetMatches(ctx context.Context, userID int64, activeOnly bool) ([]*Match, error) {
	s.activeOnly = &activeOnly
	return []*Match{{ID: 1, UserA: userID, UserB: userID + 1}}, s.err
}

func (s *stubService) MarkChatStarted(ctx context.Context, matchID, userID int64) (*Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Match{ID: matchID, ChatStarted: true}, nil
}

func (s *stubService) Unmatch(ctx context.Context, matchID, userID int64) error {
	return s.err
}

func (s *stubService) RunAutoMatchBatch(ctx context.Context) (*BatchResult, error) {
	return &BatchResult{}, s.err
}

func newTestRouter(svc Service) *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(svc, logger.NewNop()), auth.NewMiddleware(testSecret))
	return router
}

func authedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	token, err := utils.GenerateJWT(&utils.JWTClaims{
		UserID:    1,
		Type:      "access",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHandlersStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		err    error
		want   int
	}{
		{"auto match", http.MethodPost, "/api/v1/vibes/matches/auto", nil, http.StatusOK},
		{"explore", http.MethodGet, "/api/v1/vibes/explore?limit=5&min_score=0.4", nil, http.StatusOK},
		{"explore bad limit", http.MethodGet, "/api/v1/vibes/explore?limit=500", nil, http.StatusBadRequest},
		{"explore bad score", http.MethodGet, "/api/v1/vibes/explore?min_score=1.5", nil, http.StatusBadRequest},
		{"explore non numeric", http.MethodGet, "/api/v1/vibes/explore?max_distance_km=far", nil, http.StatusBadRequest},
		{"compatibility", http.MethodGet, "/api/v1/vibes/compatibility/2", nil, http.StatusOK},
		{"compatibility bad id", http.MethodGet, "/api/v1/vibes/compatibility/abc", nil, http.StatusBadRequest},
		{"compatibility unknown", http.MethodGet, "/api/v1/vibes/compatibility/9", ErrProfileNotFound, http.StatusNotFound},
		{"compatibility self", http.MethodGet, "/api/v1/vibes/compatibility/1", ErrSelfMatch, http.StatusBadRequest},
		{"chat", http.MethodPost, "/api/v1/vibes/matches/3/chat", nil, http.StatusOK},
		{"chat forbidden", http.MethodPost, "/api/v1/vibes/matches/3/chat", ErrUnauthorized, http.StatusForbidden},
		{"unmatch missing", http.MethodPost, "/api/v1/vibes/matches/3/unmatch", ErrMatchNotFound, http.StatusNotFound},
		{"matches bad flag", http.MethodGet, "/api/v1/vibes/matches?active=maybe", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(&stubService{err: tt.err}).ServeHTTP(rec, authedRequest(t, tt.method, tt.target))
			if rec.Code != tt.want {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHandlersHideInternalErrors(t *testing.T) {
	svc := &stubService{err: errors.New("pq: relation \"vibe_matches\" does not exist")}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/vibes/matches/auto"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != utils.GenericErrorMessage {
		t.Fatalf("error message: got=%q", body["error"])
	}
	if strings.Contains(rec.Body.String(), "vibe_matches") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestHandlersRequireAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vibes/matches", nil)
	newTestRouter(&stubService{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got=%d want=401", rec.Code)
	}
}

func TestExploreHandlerPassesParams(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/vibes/explore?limit=5&min_score=0.4&city=Lagos&max_distance_km=12.5"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	p := svc.exploreArgs
	if p == nil || p.Limit != 5 || p.MinScore == nil || *p.MinScore != 0.4 || p.City != "Lagos" || p.MaxDistanceKm != 12.5 {
		t.Fatalf("params: got=%+v", p)
	}
}

func TestCompatibilityHandlerBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubService{}).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/vibes/compatibility/2"))

	var body CompatibilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != 2 || body.Percentage != 78 {
		t.Fatalf("body: got=%+v", body)
	}
}

func TestGetMatchesDefaultsToActive(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/vibes/matches"))

	if rec.Code != http.StatusOK || svc.activeOnly == nil || !*svc.activeOnly {
		t.Fatalf("status=%d activeOnly=%v", rec.Code, svc.activeOnly)
	}

	var body MatchesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Count != 1 {
		t.Fatalf("body: got=%+v err=%v", body, err)
	}
}
