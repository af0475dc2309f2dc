package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/latency"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/repository"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/events"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrEmailInUse              = errors.New("email already in use")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
)

// minPasswordLength is exclusive: a password must be longer than this.
const minPasswordLength = 3

var acceptedVerificationCodes = map[string]bool{
	"123456": true,
	"1234":   true,
}

// IdentityCommandService starts, updates and ends sessions against the
// user directory.
type IdentityCommandService struct {
	directory repository.Directory
	sessions  session.Store
	latency   *latency.Simulator
	publisher events.Emitter
	now       func() time.Time
}

func NewIdentityCommandService(
	directory repository.Directory,
	sessions session.Store,
	delay *latency.Simulator,
	publisher events.Emitter,
) *IdentityCommandService {
	return &IdentityCommandService{
		directory: directory,
		sessions:  sessions,
		latency:   delay,
		publisher: publisher,
		now:       time.Now,
	}
}

// Login starts a new session for the user with the exact email. The
// password is only checked for length.
func (s *IdentityCommandService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*session.Session, error) {
	if err := s.latency.Wait(ctx); err != nil {
		return nil, err
	}

	user, err := s.directory.FindByEmail(ctx, cmd.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(cmd.Password) <= minPasswordLength {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.start(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserLoggedIn, user, sess.ID)
	return sess, nil
}

// Register appends an unverified user with a zero balance and starts a
// session for it.
func (s *IdentityCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*session.Session, error) {
	if err := s.latency.Wait(ctx); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Name:         cmd.Name,
		Email:        cmd.Email,
		Balance:      decimal.Zero,
		IsVerified:   false,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	err = s.directory.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sess, err := s.start(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserRegistered, user, sess.ID)
	return sess, nil
}

// Logout clears the session carried by ctx. Without one it does nothing.
func (s *IdentityCommandService) Logout(ctx context.Context) error {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil
	}
	if err := s.sessions.Clear(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.publish(ctx, events.UserLoggedOut, &sess.User, sess.ID)
	return nil
}

// VerifyAccount marks the session user verified when the code is accepted.
func (s *IdentityCommandService) VerifyAccount(ctx context.Context, cmd cqrs.VerifyAccountCommand) (*session.Session, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx); err != nil {
		return nil, err
	}
	if !acceptedVerificationCodes[cmd.Code] {
		return nil, ErrInvalidVerificationCode
	}

	if err := s.directory.SetVerified(ctx, sess.User.ID, true); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	updated := *sess
	updated.User.IsVerified = true
	// A logout during the delay wins: the user stays verified but the
	// session is not written back.
	err = s.sessions.Update(ctx, &updated)
	if errors.Is(err, session.ErrNoSession) {
		log.Printf("Session %s ended before verification completed", updated.ID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	s.publish(ctx, events.UserVerified, &updated.User, updated.ID)
	return &updated, nil
}

func (s *IdentityCommandService) start(ctx context.Context, user *models.User) (*session.Session, error) {
	sess := session.New(*user)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

func (s *IdentityCommandService) publish(ctx context.Context, eventType string, user *models.User, sessionID string) {
	if err := s.publisher.Publish(ctx, events.IdentityEventsStream, eventType, events.UserEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		SessionID: sessionID,
	}); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
