package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bookstore/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, repo Repository) (*Service, *auth.Manager) {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 2, nil)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := auth.NewManager("test-secret")
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return NewService(repo, hasher, tokens), tokens
}

func TestSignUpThenSignIn(t *testing.T) {
	repo := NewMemoryRepo()
	svc, tokens := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "s3cret", Firstname: "Ada"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	stored, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cret" {
		t.Fatalf("expected password stored as hash, got %q", stored.PasswordHash)
	}

	tok, err := svc.SignIn(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	id, err := tokens.Authenticate(tok)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != stored.ID {
		t.Fatalf("expected subject %d, got %d", stored.ID, id.UserID)
	}
}

func TestSignIn_InvalidCredentialsIndistinguishable(t *testing.T) {
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	_, wrongPw := svc.SignIn(ctx, "ada@example.com", "nope")
	_, unknown := svc.SignIn(ctx, "bob@example.com", "s3cret")
	_, wrongCase := svc.SignIn(ctx, "ADA@example.com", "s3cret")

	for _, err := range []error{wrongPw, unknown, wrongCase} {
		if err != ErrInvalidCredentials {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
}

func TestSignUp_DuplicateEmailDoesNotWrite(t *testing.T) {
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "first"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	before, _ := repo.FindByEmail(ctx, "ada@example.com")

	if err := svc.SignUp(ctx, SignUpRequest{Email: "ada@example.com", Password: "second"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", repo.Len())
	}
	after, _ := repo.FindByEmail(ctx, "ada@example.com")
	if before.PasswordHash != after.PasswordHash {
		t.Fatalf("existing record was modified")
	}
}

func TestSignUp_RejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo())

	if err := svc.SignUp(context.Background(), SignUpRequest{Email: "", Password: "x"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.c", Password: ""}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignUp_RejectsOverlongPassword(t *testing.T) {
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: strings.Repeat("x", MaxPasswordBytes+1)})
	if !errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected nothing stored")
	}

	if err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: strings.Repeat("x", MaxPasswordBytes)}); err != nil {
		t.Fatalf("72-byte password should be accepted: %v", err)
	}
}

// racingRepo misses the pre-check, then loses the insert to a concurrent
// registration.
type racingRepo struct{ MemoryRepo }

func (r *racingRepo) FindByEmail(context.Context, string) (User, error) { return User{}, ErrNotFound }
func (r *racingRepo) Insert(context.Context, User) (int64, error)       { return 0, ErrEmailTaken }

func TestSignUp_InsertRaceIsEmailTaken(t *testing.T) {
	svc, _ := newTestService(t, &racingRepo{})
	if err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.c", Password: "pw"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

type brokenRepo struct{ err error }

func (r brokenRepo) FindByEmail(context.Context, string) (User, error) { return User{}, r.err }
func (r brokenRepo) FindByID(context.Context, int64) (User, error)     { return User{}, r.err }
func (r brokenRepo) Insert(context.Context, User) (int64, error)       { return 0, r.err }

func TestStorageFailuresSurfaceAsErrStorage(t *testing.T) {
	cause := errors.New("connection refused")
	svc, _ := newTestService(t, brokenRepo{err: cause})
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, "a@b.c", "pw"); !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrStorage wrapping cause, got %v", err)
	}
	if err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "pw"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if _, err := svc.Get(ctx, 1); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

type countingHasher struct {
	dummy   int
	compare int
	hash    int
	busy    error
}

func (h *countingHasher) Hash(context.Context, string) (string, error) {
	h.hash++
	return "hashed", h.busy
}

func (h *countingHasher) Compare(_ context.Context, hash, password string) (bool, error) {
	h.compare++
	return hash == "hashed" && password == "pw", h.busy
}

func (h *countingHasher) CompareDummy(context.Context, string) error {
	h.dummy++
	return h.busy
}

type fixedIssuer struct{}

func (fixedIssuer) Issue(now time.Time, userID int64) (string, error) { return "tok", nil }

func TestSignIn_UnknownEmailStillHashes(t *testing.T) {
	h := &countingHasher{}
	svc := NewService(NewMemoryRepo(), h, fixedIssuer{})

	if _, err := svc.SignIn(context.Background(), "ghost@example.com", "pw"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if h.dummy != 1 || h.compare != 0 {
		t.Fatalf("expected one dummy comparison, got dummy=%d compare=%d", h.dummy, h.compare)
	}
}

func TestSignUp_DuplicateSkipsHashing(t *testing.T) {
	repo := NewMemoryRepo()
	h := &countingHasher{}
	svc := NewService(repo, h, fixedIssuer{})
	ctx := context.Background()

	if err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "pw"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if h.hash != 1 {
		t.Fatalf("expected a single hash, got %d", h.hash)
	}
}

func TestHashCapacityErrorIsPreserved(t *testing.T) {
	h := &countingHasher{busy: auth.ErrHashBusy}
	svc := NewService(NewMemoryRepo(), h, fixedIssuer{})

	err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.c", Password: "pw"})
	if !errors.Is(err, auth.ErrHashBusy) {
		t.Fatalf("expected ErrHashBusy, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, &countingHasher{}, fixedIssuer{})
	ctx := context.Background()

	if err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "pw", Lastname: "Lovelace"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	u, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Profile() != (Profile{ID: 1, Email: "a@b.c", Lastname: "Lovelace"}) {
		t.Fatalf("unexpected profile: %+v", u.Profile())
	}

	if _, err := svc.Get(ctx, 99); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
