package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/pkg/logger"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStorage            = errors.New("storage error")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")

	// ErrPasswordTooLong is an ErrInvalidInput: bcrypt only accepts 72 bytes.
	ErrPasswordTooLong = fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// TokenIssuer mints a session token for a user.
type TokenIssuer interface {
	Issue(now time.Time, userID int64) (string, error)
}

// Hasher hashes and verifies passwords (see auth.PasswordHasher).
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) (bool, error)
	CompareDummy(ctx context.Context, password string) error
}

// Service is the credential service: it registers users and exchanges an
// email/password pair for a session token.
//
// Contract:
// - sign-in never reveals whether an email is registered
// - the plaintext password is never stored, logged or returned
// - storage failures surface as ErrStorage and are not retried
type Service struct {
	repo   Repository
	hasher Hasher
	tokens TokenIssuer
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, hasher Hasher, tokens TokenIssuer) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, clock: time.Now}
}

// SignIn returns a signed session token for a matching email/password pair.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Pay for one comparison anyway so timing matches a wrong password.
		if err := s.hasher.CompareDummy(ctx, password); err != nil {
			return "", storageErr(err)
		}
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storageErr(err)
	}

	ok, err := s.hasher.Compare(ctx, u.PasswordHash, password)
	if err != nil {
		return "", storageErr(err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(s.clock(), u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// SignUp registers a new user. A duplicate email fails with ErrEmailTaken
// before any hashing happens; a concurrent duplicate caught by the store's
// unique index fails the same way.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) error {
	if req.Email == "" || req.Password == "" {
		return ErrInvalidInput
	}
	if len(req.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return storageErr(err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return storageErr(err)
	}

	id, err := s.repo.Insert(ctx, User{
		Email:        req.Email,
		PasswordHash: hash,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		CreatedAt:    s.clock().UTC(),
	})
	if errors.Is(err, ErrEmailTaken) {
		return ErrEmailTaken
	}
	if err != nil {
		return storageErr(err)
	}

	logger.From(ctx).Info("user registered", "user_id", id)
	return nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, ErrNotFound
	}
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, storageErr(err)
	}
	return u, nil
}

// storageErr keeps the cause matchable with errors.Is (e.g. hashing
// capacity, context cancellation) while classifying it as ErrStorage.
func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
