package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vinylshop/storefront/internal/api/handler"
	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

// Session resolves the session cookie and binds the result to the request.
// A missing or unusable cookie leaves the caller anonymous; only a session
// store failure aborts the request.
func Session(sessions ports.SessionAuthority, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(cookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}

			sess, err := sessions.Resolve(c.Request().Context(), ck.Value)
			if err != nil {
				log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				return err
			}
			if sess == nil {
				// Stale or forged cookie: drop it so the browser stops sending it.
				c.SetCookie(&http.Cookie{Name: cookieName, Path: "/", MaxAge: -1, HttpOnly: true})
				return next(c)
			}

			c.Set(handler.SessionKey, sess)
			return next(c)
		}
	}
}

// RequireUser rejects requests without a bound session with 401.
func RequireUser(sessions ports.SessionAuthority) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := c.Get(handler.SessionKey).(*domain.Session)
			if _, err := sessions.RequireUser(sess); err != nil {
				return err
			}
			return next(c)
		}
	}
}
