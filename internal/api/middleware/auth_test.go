package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
)

type fakeVerifier struct {
	user *domain.User
	err  error
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func authTestRouter(verifier identity.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireAuth(verifier))
	r.GET("/protected", func(c *gin.Context) {
		user := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"userId": user.ID, "token": CurrentToken(c)})
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	r := authTestRouter(&fakeVerifier{user: &domain.User{ID: "user-1"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier identity.TokenVerifier
	}{
		{
			name:     "missing header",
			header:   "",
			verifier: &fakeVerifier{user: &domain.User{ID: "user-1"}},
		},
		{
			name:     "not a bearer scheme",
			header:   "Basic dXNlcjpwYXNz",
			verifier: &fakeVerifier{user: &domain.User{ID: "user-1"}},
		},
		{
			name:     "rejected token",
			header:   "Bearer bad-token",
			verifier: &fakeVerifier{err: identity.ErrInvalidToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authTestRouter(tt.verifier)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"}, // scheme is case-insensitive
		{"Bearer  abc123", "abc123"},
		{"Bearer ", ""},
		{"Token abc123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := extractBearer(tt.header); got != tt.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
