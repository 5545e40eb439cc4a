package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/audit"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/repository"
)

const MaxDisplayNameLength = 64

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID, displayName string) (string, int64, error)
}

type authServiceImpl struct {
	users  repository.UserRepository
	issuer TokenIssuer
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, issuer TokenIssuer) AuthService {
	return &authServiceImpl{
		users:  users,
		issuer: issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login creates a user with the given display name and issues a token for
// it. Every login creates a distinct user; devices share a user by sharing
// the token.
func (s *authServiceImpl) Login(ctx context.Context, displayName string) (*domain.LoginResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > MaxDisplayNameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", domain.ErrInvalidDisplayName, MaxDisplayNameLength)
	}

	now := s.now()
	user := &domain.User{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		LastSeenAt:  now,
		CreatedAt:   now,
	}
	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(user.ID, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")
	return &domain.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
