package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vinylshop/storefront/internal/api/handler"
	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/service"
	"github.com/vinylshop/storefront/internal/infrastructure/db/redis"
)

func newAuthority(t *testing.T) (*service.SessionAuthority, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewSessionStore(client)
	return service.NewSessionAuthority(store, "test-secret", time.Hour, zerolog.Nop()), mr
}

func requestWithCookie(value string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: value})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSessionMiddleware_BindsSession(t *testing.T) {
	auth, _ := newAuthority(t)
	_, token, err := auth.Start(context.Background(), 7)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	c, _ := requestWithCookie(token)
	var got *domain.Session
	h := Session(auth, "sid", zerolog.Nop())(func(c echo.Context) error {
		got, _ = c.Get(handler.SessionKey).(*domain.Session)
		return nil
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got == nil || got.UserID != 7 {
		t.Fatalf("expected session for user 7, got %+v", got)
	}
}

func TestSessionMiddleware_Anonymous(t *testing.T) {
	auth, _ := newAuthority(t)

	for name, cookie := range map[string]string{"no cookie": "", "garbage": "not-a-token"} {
		t.Run(name, func(t *testing.T) {
			c, rec := requestWithCookie(cookie)
			called := false
			h := Session(auth, "sid", zerolog.Nop())(func(c echo.Context) error {
				called = true
				if c.Get(handler.SessionKey) != nil {
					t.Fatalf("no session expected")
				}
				return nil
			})

			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !called {
				t.Fatalf("next not called")
			}
			if cookie != "" && rec.Header().Get(echo.HeaderSetCookie) == "" {
				t.Fatalf("expected stale cookie to be cleared")
			}
		})
	}
}

func TestSessionMiddleware_DestroyedSession(t *testing.T) {
	auth, _ := newAuthority(t)
	ctx := context.Background()
	sess, token, err := auth.Start(ctx, 7)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := auth.Destroy(ctx, sess); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	c, _ := requestWithCookie(token)
	h := Session(auth, "sid", zerolog.Nop())(func(c echo.Context) error {
		if c.Get(handler.SessionKey) != nil {
			t.Fatalf("destroyed session must not resolve")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSessionMiddleware_StoreDown(t *testing.T) {
	auth, mr := newAuthority(t)
	_, token, err := auth.Start(context.Background(), 7)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	mr.Close()

	c, _ := requestWithCookie(token)
	h := Session(auth, "sid", zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err := h(c); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestRequireUser(t *testing.T) {
	auth, _ := newAuthority(t)
	mw := RequireUser(auth)

	c, _ := requestWithCookie("")
	err := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	c, _ = requestWithCookie("")
	c.Set(handler.SessionKey, &domain.Session{ID: "s", UserID: 7})
	called := false
	if err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}
