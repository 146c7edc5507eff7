package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookstore/internal/auth"
	"bookstore/internal/authors"
	"bookstore/internal/books"
	"bookstore/internal/httpapi"
	"bookstore/internal/users"
	"bookstore/pkg/metrics"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	users  *users.MemoryRepo
	checks map[string]httpapi.Check
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager("routes-test-secret")
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 2, nil)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	userRepo := users.NewMemoryRepo()
	authorRepo := authors.NewMemoryRepo()
	bookRepo := books.NewMemoryRepo()
	authorRepo.InUse = bookRepo.HasAuthor

	authorSvc := authors.NewService(authorRepo)
	m := metrics.New()
	checks := map[string]httpapi.Check{
		"postgres": func(context.Context) error { return nil },
	}

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	r := newRouter(log, nil, m)
	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{
			Users:    users.NewService(userRepo, hasher, tokens),
			Authors:  authorSvc,
			Books:    books.NewService(bookRepo, authorSvc),
			Outcomes: m,
		},
		gate:    auth.RequireToken(tokens, m),
		health:  httpapi.Health{Checks: checks},
		metrics: m.Handler(),
	})
	return &testServer{router: r, users: userRepo, checks: checks}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	expectStatus(t, w, status)
	if got := decode[map[string]string](t, w)["error"]; got != msg {
		t.Fatalf("expected error %q, got %q", msg, got)
	}
}

func (s *testServer) signIn(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/sign-in", "", map[string]string{"email": email, "password": password})
	expectStatus(t, w, http.StatusOK)
	return decode[map[string]string](t, w)["token"]
}

func TestIndex(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "Hello, World" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	signUp := map[string]string{"email": "ada@example.com", "password": "s3cret", "firstname": "Ada"}

	w := s.do(t, http.MethodPost, "/auth/sign-up", "", signUp)
	expectStatus(t, w, http.StatusCreated)
	if w.Body.String() != "Account created!" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "s3cret") {
		t.Fatalf("response leaks password")
	}

	w = s.do(t, http.MethodPost, "/auth/sign-up", "", signUp)
	expectError(t, w, http.StatusUnprocessableEntity, "An account with that email already exists.")

	w = s.do(t, http.MethodPost, "/auth/sign-in", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
	expectError(t, w, http.StatusUnauthorized, "Invalid email or password.")
	w = s.do(t, http.MethodPost, "/auth/sign-in", "", map[string]string{"email": "nobody@example.com", "password": "s3cret"})
	expectError(t, w, http.StatusUnauthorized, "Invalid email or password.")

	token := s.signIn(t, "ada@example.com", "s3cret")

	w = s.do(t, http.MethodGet, "/auth/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	me := decode[users.Profile](t, w)
	if me.Email != "ada@example.com" || me.Firstname != "Ada" || me.ID <= 0 {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("profile leaks password field: %s", w.Body.String())
	}
}

func TestAuth_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	expectError(t, s.do(t, http.MethodPost, "/auth/sign-in", "", "{not json"), http.StatusBadRequest, "Invalid request body.")
	expectError(t, s.do(t, http.MethodPost, "/auth/sign-up", "", map[string]string{"email": "a@b.c"}), http.StatusBadRequest, "Email and password are required.")

	long := map[string]string{"email": "a@b.c", "password": strings.Repeat("p", 80)}
	expectError(t, s.do(t, http.MethodPost, "/auth/sign-up", "", long), http.StatusBadRequest, "Password must be at most 72 bytes.")
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/authors", "/books", "/auth/me", "/books/1"} {
		expectError(t, s.do(t, http.MethodGet, path, "", nil), http.StatusUnauthorized, "Token absent")
		expectError(t, s.do(t, http.MethodGet, path, "garbage", nil), http.StatusUnauthorized, "Invalid token")
	}
}

func TestTokenOutlivesDeletedUser(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/auth/sign-up", "", map[string]string{"email": "a@b.c", "password": "pw"}), http.StatusCreated)
	token := s.signIn(t, "a@b.c", "pw")

	u, err := s.users.FindByEmail(context.Background(), "a@b.c")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	s.users.Delete(u.ID)

	expectStatus(t, s.do(t, http.MethodGet, "/books", token, nil), http.StatusOK)
	expectError(t, s.do(t, http.MethodGet, "/auth/me", token, nil), http.StatusNotFound, "User not found.")
}

func TestAuthorsAndBooks(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, http.MethodPost, "/auth/sign-up", "", map[string]string{"email": "a@b.c", "password": "pw"}), http.StatusCreated)
	token := s.signIn(t, "a@b.c", "pw")

	w := s.do(t, http.MethodPost, "/authors", token, map[string]string{"firstname": "Frank", "lastname": "Herbert", "bio": "Dune"})
	expectStatus(t, w, http.StatusCreated)
	author := decode[authors.Author](t, w)

	w = s.do(t, http.MethodPost, "/books", token, map[string]any{"author_id": author.ID, "title": "Dune", "year": "1965", "cover": "dune.png"})
	expectStatus(t, w, http.StatusCreated)
	book := decode[books.Book](t, w)

	w = s.do(t, http.MethodPost, "/books", token, map[string]any{"author_id": 999, "title": "Ghost"})
	expectError(t, w, http.StatusUnprocessableEntity, "No author found with the given author_id.")

	w = s.do(t, http.MethodGet, "/books", token, nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[books.List](t, w); list.Total != 1 || list.Books[0].Title != "Dune" {
		t.Fatalf("unexpected list: %+v", list)
	}

	w = s.do(t, http.MethodGet, "/authors", token, nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[authors.List](t, w); list.Total != 1 || list.Authors[0].Lastname != "Herbert" {
		t.Fatalf("unexpected list: %+v", list)
	}

	w = s.do(t, http.MethodGet, "/authors/1/books", token, nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[books.List](t, w); list.Total != 1 || list.Books[0].ID != book.ID {
		t.Fatalf("unexpected author books: %+v", list)
	}
	expectError(t, s.do(t, http.MethodGet, "/authors/77/books", token, nil), http.StatusNotFound, "No author found with the specified ID")

	w = s.do(t, http.MethodPut, "/books/1", token, map[string]any{"author_id": author.ID, "title": "Dune Messiah", "year": "1969"})
	expectStatus(t, w, http.StatusOK)
	if got := decode[books.Book](t, w); got.Title != "Dune Messiah" || got.Year != "1969" {
		t.Fatalf("unexpected update: %+v", got)
	}

	expectError(t, s.do(t, http.MethodGet, "/books/abc", token, nil), http.StatusBadRequest, "Invalid ID.")
	expectError(t, s.do(t, http.MethodGet, "/books/999", token, nil), http.StatusNotFound, "Cannot find a book with the specified ID.")
	expectError(t, s.do(t, http.MethodPut, "/books/999", token, map[string]any{"author_id": author.ID, "title": "x"}), http.StatusNotFound, "No book with that specified ID.")
	expectError(t, s.do(t, http.MethodGet, "/authors/999", token, nil), http.StatusNotFound, "No author found with the specified ID")

	expectError(t, s.do(t, http.MethodDelete, "/authors/1", token, nil), http.StatusConflict, "Author still has books.")

	w = s.do(t, http.MethodDelete, "/books/1", token, nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "Book deleted." {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	expectError(t, s.do(t, http.MethodDelete, "/books/1", token, nil), http.StatusNotFound, "No book with that specified ID.")

	w = s.do(t, http.MethodDelete, "/authors/1", token, nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "Author deleted." {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Headers", "token")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusNoContent)
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), auth.TokenHeader) {
		t.Fatalf("token header not allowed: %q", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("origin not echoed: %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)

	s.checks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("health response leaks error detail: %s", w.Body.String())
	}
}

func TestMetricsExposeAuthOutcomes(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/books", "", nil)
	s.do(t, http.MethodPost, "/auth/sign-in", "", map[string]string{"email": "x@y.z", "password": "pw"})

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{
		`bookstore_auth_outcomes_total{op="gate",result="token_absent"} 1`,
		`bookstore_auth_outcomes_total{op="sign_in",result="invalid_credentials"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
