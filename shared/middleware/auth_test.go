package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- helpers ----

func newTestTokens() *TokenManager {
	return NewTokenManager("test-secret", "chromapay-test", time.Hour)
}

func newProtectedRouter(tokens *TokenManager, sessions session.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(tokens), SessionMiddleware(sessions))
	r.GET("/me", func(c *gin.Context) {
		s, err := session.Require(c.Request.Context())
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": s.User.ID})
	})
	r.GET("/admin", AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func authRequest(router *gin.Engine, url, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func storedSession(t *testing.T, sessions session.Store, admin bool) *session.Session {
	t.Helper()
	s := session.New(models.User{
		ID: "1", Name: "John Doe", Email: "john@example.com",
		Balance: decimal.NewFromInt(1500), IsAdmin: admin, IsVerified: true,
	})
	if err := sessions.Set(context.Background(), s); err != nil {
		t.Fatalf("failed to store session: %v", err)
	}
	return s
}

// ---- tests ----

func TestTokenManagerRoundTrip(t *testing.T) {
	tokens := newTestTokens()
	s := session.New(models.User{ID: "2"})

	signed, err := tokens.Generate(s)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != s.ID || claims.UserID != "2" {
		t.Errorf("unexpected claims %+v", claims)
	}

	other := NewTokenManager("other-secret", "chromapay-test", time.Hour)
	if _, err := other.Parse(signed); err == nil {
		t.Errorf("expected token signed with another secret to be rejected")
	}
	expired := NewTokenManager("test-secret", "chromapay-test", -time.Minute)
	old, _ := expired.Generate(s)
	if _, err := tokens.Parse(old); err == nil {
		t.Errorf("expected expired token to be rejected")
	}
}

func TestAuthAndSessionMiddleware(t *testing.T) {
	tokens := newTestTokens()
	sessions := session.NewMemoryStore()
	live := storedSession(t, sessions, false)
	liveToken, _ := tokens.Generate(live)

	cleared := storedSession(t, sessions, false)
	clearedToken, _ := tokens.Generate(cleared)
	_ = sessions.Clear(context.Background(), cleared.ID)

	router := newProtectedRouter(tokens, sessions)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + liveToken, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", expectedStatus: http.StatusUnauthorized},
		{name: "session logged out", header: "Bearer " + clearedToken, expectedStatus: http.StatusUnauthorized},
		{name: "valid session", header: "Bearer " + liveToken, expectedStatus: http.StatusOK},
	}

	for _, tc := range tests {
		w := authRequest(router, "/me", tc.header)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}

func TestAdminOnly(t *testing.T) {
	tokens := newTestTokens()
	sessions := session.NewMemoryStore()
	userToken, _ := tokens.Generate(storedSession(t, sessions, false))
	adminToken, _ := tokens.Generate(storedSession(t, sessions, true))
	router := newProtectedRouter(tokens, sessions)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "regular user is forbidden", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "admin is allowed", token: adminToken, expectedStatus: http.StatusNoContent},
	}

	for _, tc := range tests {
		w := authRequest(router, "/admin", "Bearer "+tc.token)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}

func TestOptionalSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := newTestTokens()
	sessions := session.NewMemoryStore()
	live := storedSession(t, sessions, false)
	liveToken, _ := tokens.Generate(live)
	gone := session.New(models.User{ID: "2"})
	goneToken, _ := tokens.Generate(gone)

	r := gin.New()
	r.Use(AuthMiddleware(tokens), OptionalSessionMiddleware(sessions))
	r.POST("/logout", func(c *gin.Context) {
		if _, ok := session.FromContext(c.Request.Context()); ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "live session is loaded", token: liveToken, expectedStatus: http.StatusOK},
		{name: "missing session passes through", token: goneToken, expectedStatus: http.StatusNoContent},
	}

	for _, tc := range tests {
		req, _ := http.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}
