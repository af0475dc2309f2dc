package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIDKey = "sessionId"
	userIDKey    = "userId"
)

// Claims is the JWT payload. SessionID names the client context.
type Claims struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Generate signs a token binding the session to its user.
func (t *TokenManager) Generate(s *session.Session) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: s.ID,
		UserID:    s.User.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(t.issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.SessionID == "" {
		return nil, errors.New("invalid token: missing session id")
	}
	return claims, nil
}

// AuthMiddleware validates the bearer token and records the session and
// user IDs on the gin context. It does not load the session.
func AuthMiddleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(sessionIDKey, claims.SessionID)
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// SessionMiddleware loads the session named by the token into the request
// context. It must run after AuthMiddleware.
func SessionMiddleware(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := GetSessionID(c)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Not logged in")
			c.Abort()
			return
		}

		s, err := sessions.Get(c.Request.Context(), sessionID)
		if errors.Is(err, session.ErrNoSession) {
			RespondWithError(c, http.StatusUnauthorized, "Session expired or logged out")
			c.Abort()
			return
		}
		if err != nil {
			log.Printf("Failed to load session %s: %v", sessionID, err)
			RespondWithError(c, http.StatusInternalServerError, "Failed to load session")
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
		c.Next()
	}
}

// OptionalSessionMiddleware loads the session when it still exists and
// continues without one otherwise. Logout runs behind it.
func OptionalSessionMiddleware(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID, ok := GetSessionID(c); ok {
			s, err := sessions.Get(c.Request.Context(), sessionID)
			switch {
			case err == nil:
				c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
			case !errors.Is(err, session.ErrNoSession):
				log.Printf("Failed to load session %s: %v", sessionID, err)
			}
		}
		c.Next()
	}
}

// AdminOnly rejects sessions whose user is not an administrator.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := session.FromContext(c.Request.Context())
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Not logged in")
			c.Abort()
			return
		}
		if !s.User.IsAdmin {
			RespondWithError(c, http.StatusForbidden, "Administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetSessionID(c *gin.Context) (string, bool) {
	return c.GetString(sessionIDKey), c.GetString(sessionIDKey) != ""
}

func GetUserID(c *gin.Context) (string, bool) {
	return c.GetString(userIDKey), c.GetString(userIDKey) != ""
}
