package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

type MeHandler struct {
	credentials ports.CredentialService
	sessions    ports.SessionAuthority
}

func NewMeHandler(credentials ports.CredentialService, sessions ports.SessionAuthority) *MeHandler {
	return &MeHandler{credentials: credentials, sessions: sessions}
}

type meResponse struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Name       string `json:"name,omitempty"`
}

// Me reports whether the caller is logged in, and as whom.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      500  {object}  map[string]string
// @Router       /me [get]
func (h *MeHandler) Me(c echo.Context) error {
	userID, ok := h.sessions.CurrentUser(sessionFrom(c))
	if !ok {
		return c.JSON(http.StatusOK, meResponse{IsLoggedIn: false})
	}

	user, err := h.credentials.FindByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusOK, meResponse{IsLoggedIn: false})
		}
		return err
	}
	return c.JSON(http.StatusOK, meResponse{IsLoggedIn: true, Name: user.Name})
}
