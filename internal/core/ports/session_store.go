package ports

import (
	"context"
	"time"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// SessionStore keeps server-side session records.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	// Get returns domain.ErrNotFound when the session is absent or expired.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error
}
