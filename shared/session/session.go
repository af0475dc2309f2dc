// Package session holds the active user of a client context.
//
// A Session is created at login or registration, persisted through a Store
// after every identity or balance mutation, loaded into the request context
// by the auth middleware and cleared at logout.
package session

import (
	"context"
	"errors"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/google/uuid"
)

// ErrNoSession is returned when an operation needs an active session and
// there is none.
var ErrNoSession = errors.New("no active session")

type Session struct {
	ID     string             `json:"id"`
	User   models.User        `json:"user"`
	Wallet *models.WalletLink `json:"wallet,omitempty"`
}

// New starts a session for user under a fresh ID.
func New(user models.User) *Session {
	return &Session{ID: uuid.NewString(), User: user}
}

// Store persists sessions by ID.
type Store interface {
	// Get returns ErrNoSession when id is unknown or expired.
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	// Update overwrites a session that still exists and returns
	// ErrNoSession once it has been cleared.
	Update(ctx context.Context, s *Session) error
	Clear(ctx context.Context, id string) error
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Require is FromContext for callers that cannot proceed without a session.
func Require(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
