package domain

import "time"

// CartItem is one row of a user's cart. At most one CartItem exists per
// (UserID, ProductID) pair; repeat adds bump Quantity instead.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart row joined with the catalog entry it references.
type CartLine struct {
	CartItemID int64   `json:"cartItemId"`
	Quantity   int     `json:"quantity"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Price      float64 `json:"price"`
}

// Product is a catalog entry. The catalog is owned elsewhere and only read
// here when listing a cart.
type Product struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Artist string  `json:"artist"`
	Price  float64 `json:"price"`
	Genre  string  `json:"genre"`
}
