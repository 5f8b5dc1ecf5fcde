package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCredentials struct {
	registerFn     func(ctx context.Context, name, email, username, password string) (*domain.User, error)
	authenticateFn func(ctx context.Context, username, password string) (*domain.User, error)
	findByIDFn     func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubCredentials) Register(ctx context.Context, name, email, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, username, password)
}

func (s *stubCredentials) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, username, password)
}

func (s *stubCredentials) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findByIDFn(ctx, id)
}

type stubSessions struct {
	startErr   error
	destroyErr error
	started    []int64
	destroyed  []*domain.Session
}

func (s *stubSessions) Start(_ context.Context, userID int64) (*domain.Session, string, error) {
	if s.startErr != nil {
		return nil, "", s.startErr
	}
	s.started = append(s.started, userID)
	now := time.Now()
	return &domain.Session{ID: "sess-1", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}, "signed-token", nil
}

func (s *stubSessions) Resolve(context.Context, string) (*domain.Session, error) {
	return nil, nil
}

func (s *stubSessions) CurrentUser(sess *domain.Session) (int64, bool) {
	if sess == nil || sess.UserID <= 0 {
		return 0, false
	}
	return sess.UserID, true
}

func (s *stubSessions) RequireUser(sess *domain.Session) (int64, error) {
	id, ok := s.CurrentUser(sess)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

func (s *stubSessions) Destroy(_ context.Context, sess *domain.Session) error {
	if s.destroyErr != nil {
		return s.destroyErr
	}
	if sess != nil {
		s.destroyed = append(s.destroyed, sess)
	}
	return nil
}

type stubCart struct {
	addFn    func(ctx context.Context, userID int64, productID string) (*domain.CartItem, error)
	countFn  func(ctx context.Context, userID int64) (int, error)
	listFn   func(ctx context.Context, userID int64) ([]domain.CartLine, error)
	removeFn func(ctx context.Context, userID int64, itemID string) error
	clearFn  func(ctx context.Context, userID int64) error
}

func (s *stubCart) AddItem(ctx context.Context, userID int64, productID string) (*domain.CartItem, error) {
	return s.addFn(ctx, userID, productID)
}

func (s *stubCart) Count(ctx context.Context, userID int64) (int, error) {
	return s.countFn(ctx, userID)
}

func (s *stubCart) List(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	return s.listFn(ctx, userID)
}

func (s *stubCart) RemoveItem(ctx context.Context, userID int64, itemID string) error {
	return s.removeFn(ctx, userID, itemID)
}

func (s *stubCart) ClearAll(ctx context.Context, userID int64) error {
	return s.clearFn(ctx, userID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newContext builds an echo context for a JSON request. A non-nil sess is
// bound the way the session middleware would.
func newContext(method, target, body string, sess *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(SessionKey, sess)
	}
	return c, rec
}
