package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

const (
	maxAddAttempts        = 3
	defaultMutationBudget = 5 * time.Second
)

// CartService is the cart ledger. It keeps at most one row per
// (user, product) pair by combining an atomic increment with an insert that
// the storage layer rejects on duplicates.
type CartService struct {
	repo    ports.CartRepository
	timeout time.Duration
	log     zerolog.Logger
}

func NewCartService(repo ports.CartRepository, timeout time.Duration, log zerolog.Logger) *CartService {
	if timeout <= 0 {
		timeout = defaultMutationBudget
	}
	return &CartService{repo: repo, timeout: timeout, log: log}
}

// AddItem increments the caller's row for productID, creating it with
// quantity 1 on first add.
func (s *CartService) AddItem(ctx context.Context, userID int64, rawProductID string) (*domain.CartItem, error) {
	productID, err := parseID(rawProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product id", domain.ErrValidation)
	}
	if userID <= 0 {
		return nil, domain.ErrUnauthorized
	}

	ctx, cancel := s.mutationContext(ctx)
	defer cancel()

	for attempt := 1; attempt <= maxAddAttempts; attempt++ {
		item, err := s.repo.Increment(ctx, userID, productID)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		item, err = s.repo.Insert(ctx, userID, productID)
		if err == nil {
			s.log.Debug().Int64("user_id", userID).Int64("product_id", productID).Msg("cart row created")
			return item, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}

		// Another request created the row between our increment and insert.
		s.log.Debug().
			Int64("user_id", userID).
			Int64("product_id", productID).
			Int("attempt", attempt).
			Msg("cart insert lost race, retrying increment")
	}

	return nil, fmt.Errorf("%w: add item: no progress after %d attempts", domain.ErrStorage, maxAddAttempts)
}

// Count returns the total quantity in the user's cart. Anonymous callers
// (userID <= 0) get 0.
func (s *CartService) Count(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, nil
	}
	return s.repo.SumQuantity(ctx, userID)
}

func (s *CartService) List(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthorized
	}
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return lines, nil
}

// RemoveItem deletes one of the caller's rows. Rows owned by someone else
// are reported exactly like rows that do not exist.
func (s *CartService) RemoveItem(ctx context.Context, userID int64, rawItemID string) error {
	itemID, err := parseID(rawItemID)
	if err != nil {
		return fmt.Errorf("%w: invalid item id", domain.ErrValidation)
	}
	if userID <= 0 {
		return domain.ErrUnauthorized
	}

	ctx, cancel := s.mutationContext(ctx)
	defer cancel()

	return s.repo.Delete(ctx, userID, itemID)
}

func (s *CartService) ClearAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthorized
	}

	ctx, cancel := s.mutationContext(ctx)
	defer cancel()

	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Debug().Int64("user_id", userID).Int64("deleted", n).Msg("cart cleared")
	return nil
}

// mutationContext detaches from client cancellation so a disconnect cannot
// stop a mutation between its storage steps; the timeout still bounds it.
func (s *CartService) mutationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}
