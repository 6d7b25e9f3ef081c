package market

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/models"
)

// Session is the signed-in account for the lifetime of one login. It is
// created at sign-in, resolved per request, and discarded at sign-out.
type Session struct {
	ID        uuid.UUID
	Account   models.Account
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Approved reports whether role operations are unlocked. Admins always are.
func (s *Session) Approved() bool {
	return s.Account.Role == models.RoleAdmin || s.Account.Status == models.AccountApproved
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

func RequireRole(s *Session, roles ...models.Role) error {
	if s == nil {
		return ErrForbidden
	}
	for _, r := range roles {
		if s.Account.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func RequireApproved(s *Session) error {
	if s == nil {
		return ErrForbidden
	}
	if !s.Approved() {
		return ErrNotApproved
	}
	return nil
}
