// Package identity resolves bearer tokens into user identities.
package identity

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/jwt"
)

// JWTProvider issues and validates tokens with a pkg/jwt Manager.
type JWTProvider struct {
	manager *jwt.Manager
}

func NewJWTProvider(manager *jwt.Manager) *JWTProvider {
	return &JWTProvider{manager: manager}
}

// Authenticate validates the token and returns the identity it carries.
func (p *JWTProvider) Authenticate(_ context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing token", domain.ErrAuth)
	}
	claims, err := p.manager.ValidateToken(credential)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	return domain.Identity{UserID: claims.UserID, DisplayName: claims.DisplayName}, nil
}

// Issue returns a signed token for the user and its unix expiry.
func (p *JWTProvider) Issue(userID, displayName string) (string, int64, error) {
	return p.manager.GenerateToken(userID, displayName)
}

// Manager exposes the token manager for the HTTP auth middleware.
func (p *JWTProvider) Manager() *jwt.Manager {
	return p.manager
}
