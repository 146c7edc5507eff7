package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrHashBusy is returned when the fleet-wide hashing cap is exhausted.
var ErrHashBusy = errors.New("password hashing capacity exhausted")

// SlotLimiter is a cross-process concurrency cap (see RedisSlots).
type SlotLimiter interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// PasswordHasher runs bcrypt on a bounded number of workers so a burst of
// sign-ups cannot occupy every CPU the request handlers need.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	fleet SlotLimiter

	// dummy is compared against when the account does not exist so the
	// response time matches a real mismatch.
	dummy []byte
}

// NewPasswordHasher builds a hasher with the given bcrypt cost and worker
// count. fleet may be nil.
func NewPasswordHasher(cost, workers int, fleet SlotLimiter) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("bookstore-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &PasswordHasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(workers)),
		fleet: fleet,
		dummy: dummy,
	}, nil
}

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	var out []byte
	var hashErr error
	if err := h.run(ctx, func() {
		out, hashErr = bcrypt.GenerateFromPassword([]byte(password), h.cost)
	}); err != nil {
		return "", err
	}
	if hashErr != nil {
		return "", fmt.Errorf("hash password: %w", hashErr)
	}
	return string(out), nil
}

// Compare reports whether password matches hash. A mismatch is not an error.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	var cmpErr error
	if err := h.run(ctx, func() {
		cmpErr = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	}); err != nil {
		return false, err
	}
	switch {
	case cmpErr == nil:
		return true, nil
	case errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword), errors.Is(cmpErr, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", cmpErr)
	}
}

// CompareDummy spends one comparison's worth of work and always fails.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) error {
	return h.run(ctx, func() {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	})
}

func (h *PasswordHasher) run(ctx context.Context, fn func()) error {
	if h.fleet != nil {
		ok, err := h.fleet.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire hash slot: %w", err)
		}
		if !ok {
			return ErrHashBusy
		}
		defer func() { _ = h.fleet.Release(context.WithoutCancel(ctx)) }()
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	fn()
	return nil
}
