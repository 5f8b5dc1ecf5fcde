package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// SessionKey is the echo context key the session middleware stores the
// resolved *domain.Session under.
const SessionKey = "session"

// sessionFrom returns the session bound to the request, or nil when the
// caller is anonymous.
func sessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(SessionKey).(*domain.Session)
	return sess
}
