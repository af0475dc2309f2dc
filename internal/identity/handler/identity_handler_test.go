package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/identity/command"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockIdentityCommander struct {
	loginFn    func(cqrs.LoginCommand) (*session.Session, error)
	registerFn func(cqrs.RegisterCommand) (*session.Session, error)
	logoutFn   func(context.Context) error
	verifyFn   func(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error)
}

func (m *mockIdentityCommander) Login(_ context.Context, cmd cqrs.LoginCommand) (*session.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockIdentityCommander) Register(_ context.Context, cmd cqrs.RegisterCommand) (*session.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockIdentityCommander) Logout(ctx context.Context) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return fmt.Errorf("not configured")
}
func (m *mockIdentityCommander) VerifyAccount(ctx context.Context, cmd cqrs.VerifyAccountCommand) (*session.Session, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockIdentityQuerier struct {
	currentFn func(context.Context) (*models.UserView, error)
}

func (m *mockIdentityQuerier) CurrentUser(ctx context.Context) (*models.UserView, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockIdentityQuerier) IsAdmin(ctx context.Context) bool {
	s, ok := session.FromContext(ctx)
	return ok && s.User.IsAdmin
}

type mockTokens struct {
	err error
}

func (m *mockTokens) Generate(s *session.Session) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-" + s.ID, nil
}

// ---- helpers ----

func fakeSession(s *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s != nil {
			c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
		}
		c.Next()
	}
}

func newIdentityTestRouter(cmds IdentityCommander, qrys IdentityQuerier, tokens TokenIssuer, s *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeSession(s))
	h := NewIdentityHandler(cmds, qrys, tokens)
	v1 := r.Group("/v1/auth")
	v1.POST("/login", h.Login)
	v1.POST("/register", h.Register)
	v1.POST("/logout", h.Logout)
	v1.POST("/verify", h.VerifyAccount)
	v1.GET("/me", h.Me)
	return r
}

func identityDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testJane = models.User{
	ID: "2", Name: "Jane Smith", Email: "jane@example.com", Phone: "+9876543210",
	Balance: decimal.NewFromInt(2800), IsVerified: true,
}

func testSession() *session.Session {
	return &session.Session{ID: "sess-1", User: testJane}
}

// ---- tests ----

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		loginFn        func(cqrs.LoginCommand) (*session.Session, error)
		tokenErr       error
		expectedStatus int
	}{
		{
			name:           "success - returns token and user",
			body:           map[string]string{"email": "jane@example.com", "password": "password"},
			loginFn:        func(cqrs.LoginCommand) (*session.Session, error) { return testSession(), nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - malformed email",
			body:           map[string]string{"email": "jane", "password": "password"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - not json",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unauthorized - invalid credentials",
			body:           map[string]string{"email": "jane@example.com", "password": "abc"},
			loginFn:        func(cqrs.LoginCommand) (*session.Session, error) { return nil, command.ErrInvalidCredentials },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "internal error - token signing fails",
			body:           map[string]string{"email": "jane@example.com", "password": "password"},
			loginFn:        func(cqrs.LoginCommand) (*session.Session, error) { return testSession(), nil },
			tokenErr:       fmt.Errorf("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		router := newIdentityTestRouter(&mockIdentityCommander{loginFn: tc.loginFn}, &mockIdentityQuerier{}, &mockTokens{err: tc.tokenErr}, nil)
		w := identityDoRequest(router, http.MethodPost, "/v1/auth/login", tc.body)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}

func TestLoginResponseBody(t *testing.T) {
	cmds := &mockIdentityCommander{
		loginFn: func(cqrs.LoginCommand) (*session.Session, error) { return testSession(), nil },
	}
	router := newIdentityTestRouter(cmds, &mockIdentityQuerier{}, &mockTokens{}, nil)
	w := identityDoRequest(router, http.MethodPost, "/v1/auth/login",
		map[string]string{"email": "jane@example.com", "password": "password"})

	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "token-sess-1" {
		t.Errorf("expected token-sess-1 got %s", resp.Token)
	}
	if resp.User == nil || !resp.User.Balance.Equal(decimal.NewFromInt(2800)) {
		t.Errorf("unexpected user %+v", resp.User)
	}
	if strings.Contains(w.Body.String(), "PasswordHash") {
		t.Errorf("response leaked password hash: %s", w.Body.String())
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		registerFn     func(cqrs.RegisterCommand) (*session.Session, error)
		expectedStatus int
	}{
		{
			name: "success - creates user",
			body: map[string]string{"name": "Sam", "email": "sam@example.com", "password": "secret"},
			registerFn: func(cmd cqrs.RegisterCommand) (*session.Session, error) {
				return &session.Session{ID: "sess-2", User: models.User{ID: "usr-1", Name: cmd.Name, Email: cmd.Email}}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing name",
			body:           map[string]string{"email": "sam@example.com", "password": "secret"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "conflict - email in use",
			body:           map[string]string{"name": "John", "email": "john@example.com", "password": "secret"},
			registerFn:     func(cqrs.RegisterCommand) (*session.Session, error) { return nil, command.ErrEmailInUse },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "internal error",
			body:           map[string]string{"name": "Sam", "email": "sam@example.com", "password": "secret"},
			registerFn:     func(cqrs.RegisterCommand) (*session.Session, error) { return nil, fmt.Errorf("db down") },
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		router := newIdentityTestRouter(&mockIdentityCommander{registerFn: tc.registerFn}, &mockIdentityQuerier{}, &mockTokens{}, nil)
		w := identityDoRequest(router, http.MethodPost, "/v1/auth/register", tc.body)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}

func TestLogout(t *testing.T) {
	var cleared string
	cmds := &mockIdentityCommander{
		logoutFn: func(ctx context.Context) error {
			if s, ok := session.FromContext(ctx); ok {
				cleared = s.ID
			}
			return nil
		},
	}
	router := newIdentityTestRouter(cmds, &mockIdentityQuerier{}, &mockTokens{}, testSession())
	w := identityDoRequest(router, http.MethodPost, "/v1/auth/logout", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected %d got %d; body: %s", http.StatusNoContent, w.Code, w.Body.String())
	}
	if cleared != "sess-1" {
		t.Errorf("expected session sess-1 to be cleared, got %q", cleared)
	}
}

func TestVerifyAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		verifyFn       func(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error)
		expectedStatus int
	}{
		{
			name: "success - verifies account",
			body: map[string]string{"code": "123456"},
			verifyFn: func(ctx context.Context, cmd cqrs.VerifyAccountCommand) (*session.Session, error) {
				s := testSession()
				s.User.IsVerified = true
				return s, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - non numeric code",
			body:           map[string]string{"code": "abc"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unprocessable - wrong code",
			body: map[string]string{"code": "000000"},
			verifyFn: func(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error) {
				return nil, command.ErrInvalidVerificationCode
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unauthorized - no session",
			body: map[string]string{"code": "123456"},
			verifyFn: func(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error) {
				return nil, session.ErrNoSession
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "request timeout - cancelled during latency",
			body: map[string]string{"code": "123456"},
			verifyFn: func(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error) {
				return nil, context.Canceled
			},
			expectedStatus: http.StatusRequestTimeout,
		},
	}

	for _, tc := range tests {
		router := newIdentityTestRouter(&mockIdentityCommander{verifyFn: tc.verifyFn}, &mockIdentityQuerier{}, &mockTokens{}, testSession())
		w := identityDoRequest(router, http.MethodPost, "/v1/auth/verify", tc.body)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
		}
	}
}

func TestMe(t *testing.T) {
	admin := &session.Session{ID: "sess-3", User: models.User{ID: "3", Name: "Admin User", IsAdmin: true}}
	qrys := &mockIdentityQuerier{
		currentFn: func(ctx context.Context) (*models.UserView, error) {
			s, err := session.Require(ctx)
			if err != nil {
				return nil, err
			}
			return models.ToUserView(&s.User), nil
		},
	}

	tests := []struct {
		name           string
		session        *session.Session
		expectedStatus int
		expectedAdmin  bool
	}{
		{name: "regular user", session: testSession(), expectedStatus: http.StatusOK},
		{name: "admin user", session: admin, expectedStatus: http.StatusOK, expectedAdmin: true},
		{name: "no session", session: nil, expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		router := newIdentityTestRouter(&mockIdentityCommander{}, qrys, &mockTokens{}, tc.session)
		w := identityDoRequest(router, http.MethodGet, "/v1/auth/me", nil)
		if w.Code != tc.expectedStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tc.name, tc.expectedStatus, w.Code, w.Body.String())
			continue
		}
		if w.Code != http.StatusOK {
			continue
		}
		var resp MeResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.IsAdmin != tc.expectedAdmin {
			t.Errorf("[%s] expected isAdmin=%v got %v", tc.name, tc.expectedAdmin, resp.IsAdmin)
		}
	}
}
