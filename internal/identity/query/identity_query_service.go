package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/repository"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
)

// IdentityQueryService answers questions about the session user.
type IdentityQueryService struct {
	directory repository.Directory
}

func NewIdentityQueryService(directory repository.Directory) *IdentityQueryService {
	return &IdentityQueryService{directory: directory}
}

// CurrentUser returns the session user as currently recorded in the
// directory, so credits received from other users are visible. The session
// snapshot is used if the directory no longer knows the user.
func (s *IdentityQueryService) CurrentUser(ctx context.Context) (*models.UserView, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.directory.GetUser(ctx, sess.User.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ToUserView(&sess.User), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return models.ToUserView(user), nil
}

// IsAdmin reports the session user's admin flag. It is false without a
// session.
func (s *IdentityQueryService) IsAdmin(ctx context.Context) bool {
	sess, ok := session.FromContext(ctx)
	return ok && sess.User.IsAdmin
}
