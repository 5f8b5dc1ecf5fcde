package ports

import (
	"context"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// UserRepository persists user identity records.
type UserRepository interface {
	// Create inserts the user and returns it with its assigned ID.
	// A uniqueness violation on email or username yields domain.ErrConflict.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmailOrUsername returns any user holding either value, or domain.ErrNotFound.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
