package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinylshop/storefront/internal/core/domain"
	"github.com/vinylshop/storefront/internal/core/ports"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// dummyPassword is hashed once at startup so unknown usernames still pay for
// a full bcrypt comparison.
const dummyPassword = "storefront-timing-equaliser"

// CredentialService implements registration and credential checks.
type CredentialService struct {
	repo      ports.UserRepository
	cost      int
	dummyHash []byte
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewCredentialService returns a CredentialService hashing with the given
// bcrypt cost. Costs below bcrypt.MinCost fall back to bcrypt.DefaultCost.
func NewCredentialService(repo ports.UserRepository, cost int, log zerolog.Logger) (*CredentialService, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}

	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}

	return &CredentialService{
		repo:      repo,
		cost:      cost,
		dummyHash: dummy,
		validate:  v,
		log:       log,
	}, nil
}

// Register validates and stores a new user. The password is checked for
// emptiness after trimming but hashed exactly as supplied.
func (s *CredentialService) Register(ctx context.Context, name, email, username, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if name == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}
	if err := s.validate.Var(username, "username"); err != nil {
		return nil, fmt.Errorf("%w: username should be 1-20 characters, using letters, numbers, _ or -", domain.ErrValidation)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: email format is wrong", domain.ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, maxPasswordBytes)
	}

	if _, err := s.repo.FindByEmailOrUsername(ctx, email, username); err == nil {
		return nil, fmt.Errorf("%w: email or username is taken", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// The unique indexes decide races the lookup above cannot see.
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.Debug().Str("username", username).Msg("registration lost uniqueness race")
		}
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Authenticate returns the user owning username if password matches. An
// unknown username and a wrong password both yield domain.ErrInvalidCredentials
// after one bcrypt comparison.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	matched := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if user == nil || !matched {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *CredentialService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}
