package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinylshop/storefront/internal/api/metrics"
	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

type CartHandler struct {
	cart     ports.CartService
	sessions ports.SessionAuthority
}

func NewCartHandler(cart ports.CartService, sessions ports.SessionAuthority) *CartHandler {
	return &CartHandler{cart: cart, sessions: sessions}
}

// addItemRequest accepts productId as a JSON number or a numeric string.
type addItemRequest struct {
	ProductID json.Number `json:"productId" validate:"required"`
}

type addItemResponse struct {
	Message string           `json:"message"`
	Item    *domain.CartItem `json:"item"`
}

type cartCountResponse struct {
	TotalItems int `json:"totalItems"`
}

type cartListResponse struct {
	Items []domain.CartLine `json:"items"`
}

// AddItem puts one unit of a product in the caller's cart.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addItemRequest  true  "Product to add"
// @Success      200   {object}  addItemResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /cart/add [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := h.sessions.RequireUser(sessionFrom(c))
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.cart.AddItem(c.Request().Context(), userID, req.ProductID.String())
	metrics.CartMutationsTotal.WithLabelValues("add", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addItemResponse{Message: "Item added to cart", Item: item})
}

// Count returns the number of units in the caller's cart. Anonymous callers get 0.
//
// @Summary      Cart item count
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartCountResponse
// @Router       /cart/cart-count [get]
func (h *CartHandler) Count(c echo.Context) error {
	userID, _ := h.sessions.CurrentUser(sessionFrom(c))

	total, err := h.cart.Count(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartCountResponse{TotalItems: total})
}

// List returns the caller's cart lines in the order they were added.
//
// @Summary      List cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartListResponse
// @Failure      401  {object}  map[string]string
// @Router       /cart [get]
func (h *CartHandler) List(c echo.Context) error {
	userID, err := h.sessions.RequireUser(sessionFrom(c))
	if err != nil {
		return err
	}

	lines, err := h.cart.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartListResponse{Items: lines})
}

// RemoveItem deletes one line of the caller's cart.
//
// @Summary      Remove cart item
// @Tags         cart
// @Param        itemId  path  string  true  "Cart item ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /cart/{itemId} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := h.sessions.RequireUser(sessionFrom(c))
	if err != nil {
		return err
	}

	err = h.cart.RemoveItem(c.Request().Context(), userID, c.Param("itemId"))
	metrics.CartMutationsTotal.WithLabelValues("remove", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearAll empties the caller's cart.
//
// @Summary      Clear cart
// @Tags         cart
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /cart/all [delete]
func (h *CartHandler) ClearAll(c echo.Context) error {
	userID, err := h.sessions.RequireUser(sessionFrom(c))
	if err != nil {
		return err
	}

	err = h.cart.ClearAll(c.Request().Context(), userID)
	metrics.CartMutationsTotal.WithLabelValues("clear", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
