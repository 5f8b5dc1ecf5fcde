package ports

import (
	"context"

	"github.com/vinylshop/storefront/internal/core/domain"
)

type CredentialService interface {
	Register(ctx context.Context, name, email, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

type SessionAuthority interface {
	Start(ctx context.Context, userID int64) (*domain.Session, string, error)
	Resolve(ctx context.Context, token string) (*domain.Session, error)
	CurrentUser(s *domain.Session) (int64, bool)
	RequireUser(s *domain.Session) (int64, error)
	Destroy(ctx context.Context, s *domain.Session) error
}

type CartService interface {
	AddItem(ctx context.Context, userID int64, productID string) (*domain.CartItem, error)
	Count(ctx context.Context, userID int64) (int, error)
	List(ctx context.Context, userID int64) ([]domain.CartLine, error)
	RemoveItem(ctx context.Context, userID int64, itemID string) error
	ClearAll(ctx context.Context, userID int64) error
}
