package ports

import (
	"context"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// CartRepository exposes the atomic storage primitives the cart ledger is
// built from. Each method is a single storage operation.
type CartRepository interface {
	// Increment adds one to the quantity of the (userID, productID) row and
	// returns the updated row, or domain.ErrNotFound when no row exists.
	Increment(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
	// Insert creates a row with quantity 1. domain.ErrConflict means a row for
	// the pair already exists.
	Insert(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
	SumQuantity(ctx context.Context, userID int64) (int, error)
	// ListLines joins the user's rows with the catalog, ordered by item ID.
	ListLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	// Delete removes the item only if it belongs to userID; otherwise domain.ErrNotFound.
	Delete(ctx context.Context, userID, itemID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}
