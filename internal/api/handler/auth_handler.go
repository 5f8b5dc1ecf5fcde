package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vinylshop/storefront/internal/api/metrics"
	"github.com/vinylshop/storefront/internal/core/ports"
)

// CookieConfig describes the session cookie handed to browsers.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	credentials ports.CredentialService
	sessions    ports.SessionAuthority
	cookie      CookieConfig
	log         zerolog.Logger
}

func NewAuthHandler(credentials ports.CredentialService, sessions ports.SessionAuthority, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "sid"
	}
	return &AuthHandler{credentials: credentials, sessions: sessions, cookie: cookie, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account and logs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.credentials.Register(ctx, req.Name, req.Email, req.Username, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	// The account exists either way; a session failure only costs the auto-login.
	if err := h.startSession(c, user.ID); err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Msg("session not started after registration")
	}

	return c.JSON(http.StatusCreated, registerResponse{ID: user.ID, Name: user.Name, Username: user.Username})
}

// Login checks credentials and binds a session to the client.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.credentials.Authenticate(ctx, req.Username, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	// Drop whatever session the client arrived with before binding a new one.
	if prev := sessionFrom(c); prev != nil {
		if err := h.sessions.Destroy(ctx, prev); err != nil {
			h.log.Warn().Err(err).Msg("previous session not destroyed on login")
		}
	}

	if err := h.startSession(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Message: "Logged in", Name: user.Name})
}

// Logout destroys the caller's session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := sessionFrom(c)
	if err := h.sessions.Destroy(c.Request().Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		return echo.NewHTTPError(http.StatusBadRequest, "could not log out")
	}
	if sess != nil {
		metrics.SessionsTotal.WithLabelValues("destroyed").Inc()
	}

	c.SetCookie(h.newCookie("", -1))
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *AuthHandler) startSession(c echo.Context, userID int64) error {
	sess, token, err := h.sessions.Start(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	metrics.SessionsTotal.WithLabelValues("started").Inc()

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if h.cookie.TTL > 0 {
		maxAge = int(h.cookie.TTL.Seconds())
	}
	c.SetCookie(h.newCookie(token, maxAge))
	return nil
}

func (h *AuthHandler) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
