package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/utils"
)

func TestAuthenticate(t *testing.T) {
	const secret = "test-secret"

	mint := func(tokenType string) string {
		token, err := utils.GenerateJWT(&utils.JWTClaims{
			UserID:    7,
			Type:      tokenType,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}, secret)
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}
		return token
	}

	var gotUserID int64
	protected := NewMiddleware(secret).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + mint("access"), http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token", "Bearer " + mint("refresh"), http.StatusUnauthorized},
		{"access token", "Bearer " + mint("access"), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = 0
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status: got=%d want=%d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && gotUserID != 7 {
				t.Fatalf("user id: got=%d want=7", gotUserID)
			}
		})
	}
}
