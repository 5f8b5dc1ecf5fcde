package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// sessionClaims is the payload of the signed token handed to the client. The
// token only points at the server-side record; destroying the record ends the
// session even if the token has not expired.
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionAuthority issues, resolves and destroys sessions.
type SessionAuthority struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

func NewSessionAuthority(store ports.SessionStore, secret string, ttl time.Duration, log zerolog.Logger) *SessionAuthority {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionAuthority{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
}

// TTL is the lifetime given to new sessions.
func (a *SessionAuthority) TTL() time.Duration {
	return a.ttl
}

// Start binds a new session to userID and returns it with its client token.
func (a *SessionAuthority) Start(ctx context.Context, userID int64) (*domain.Session, string, error) {
	if userID <= 0 {
		return nil, "", fmt.Errorf("%w: session requires a user", domain.ErrValidation)
	}

	now := a.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.store.Save(ctx, sess, a.ttl); err != nil {
		return nil, "", err
	}

	token, err := a.sign(sess)
	if err != nil {
		_ = a.store.Delete(ctx, sess.ID)
		return nil, "", fmt.Errorf("sign session: %w", err)
	}

	a.log.Debug().Int64("user_id", userID).Msg("session started")
	return sess, token, nil
}

// Resolve maps a client token to its live session. Any token that does not
// verify, or whose record is gone, resolves to (nil, nil): the caller is
// anonymous. Only store failures are returned as errors.
func (a *SessionAuthority) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.SessionID == "" {
		a.log.Debug().Err(err).Msg("rejected session token")
		return nil, nil
	}

	sess, err := a.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if sess.Expired(a.now()) || claims.Subject != strconv.FormatInt(sess.UserID, 10) {
		return nil, nil
	}
	return sess, nil
}

// CurrentUser reports the user bound to s without failing for anonymous callers.
func (a *SessionAuthority) CurrentUser(s *domain.Session) (int64, bool) {
	if s == nil || s.UserID <= 0 {
		return 0, false
	}
	return s.UserID, true
}

// RequireUser is the gate in front of every cart mutation.
func (a *SessionAuthority) RequireUser(s *domain.Session) (int64, error) {
	id, ok := a.CurrentUser(s)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

// Destroy ends s. A nil session or an already-deleted record is not an error;
// store failures are.
func (a *SessionAuthority) Destroy(ctx context.Context, s *domain.Session) error {
	if s == nil {
		return nil
	}
	if err := a.store.Delete(ctx, s.ID); err != nil {
		return err
	}
	a.log.Debug().Int64("user_id", s.UserID).Msg("session destroyed")
	return nil
}

func (a *SessionAuthority) sign(s *domain.Session) (string, error) {
	claims := sessionClaims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
