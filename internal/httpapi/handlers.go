package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"bookstore/internal/auth"
	"bookstore/internal/authors"
	"bookstore/internal/books"
	"bookstore/internal/users"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Users   *users.Service
	Authors *authors.Service
	Books   *books.Service

	// Outcomes counts sign-in/sign-up results; may be nil.
	Outcomes auth.OutcomeRecorder
}

func (h Handlers) Index(c *gin.Context) {
	c.String(http.StatusOK, "Hello, World")
}

// --- Auth ---

// SignIn exchanges an email/password pair for a session token.
func (h Handlers) SignIn(c *gin.Context) {
	var req users.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	token, err := h.Users.SignIn(c.Request.Context(), req.Email, req.Password)
	h.record("sign_in", err)
	if err != nil {
		respondError(c, err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// SignUp registers a user. It answers with a plain acknowledgment, never the
// stored record.
func (h Handlers) SignUp(c *gin.Context) {
	var req users.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	err := h.Users.SignUp(c.Request.Context(), req)
	h.record("sign_up", err)
	if err != nil {
		respondError(c, err, msgUserNotFound)
		return
	}
	c.String(http.StatusCreated, "Account created!")
}

// Me returns the caller's profile.
func (h Handlers) Me(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token absent"})
		return
	}
	u, err := h.Users.Get(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u.Profile())
}

func (h Handlers) record(op string, err error) {
	if h.Outcomes == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, users.ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, users.ErrEmailTaken):
		result = "email_taken"
	case errors.Is(err, users.ErrInvalidInput):
		result = "invalid_input"
	case errors.Is(err, auth.ErrHashBusy):
		result = "busy"
	default:
		result = "error"
	}
	h.Outcomes.RecordAuth(op, result)
}

// --- Authors ---

func (h Handlers) ListAuthors(c *gin.Context) {
	list, err := h.Authors.List(c.Request.Context())
	if err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreateAuthor(c *gin.Context) {
	var in authors.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	uid, _ := auth.UserID(c.Request.Context())

	a, err := h.Authors.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) GetAuthor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.Authors.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) UpdateAuthor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in authors.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	a, err := h.Authors.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) DeleteAuthor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Authors.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.String(http.StatusOK, "Author deleted.")
}

func (h Handlers) ListAuthorBooks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := h.Books.ListByAuthor(c.Request.Context(), id)
	if errors.Is(err, books.ErrUnknownAuthor) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msgAuthorNotFound})
		return
	}
	if err != nil {
		respondError(c, err, msgAuthorNotFound)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Books ---

func (h Handlers) ListBooks(c *gin.Context) {
	list, err := h.Books.List(c.Request.Context())
	if err != nil {
		respondError(c, err, msgBookNotFound)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreateBook(c *gin.Context) {
	var in books.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	uid, _ := auth.UserID(c.Request.Context())

	b, err := h.Books.Create(c.Request.Context(), uid, in)
	if err != nil {
		respondError(c, err, msgBookNotFound)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h Handlers) GetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.Books.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, msgBookNotFound)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handlers) UpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in books.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	b, err := h.Books.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, msgBookNotFoundUpdate)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handlers) DeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Books.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, msgBookNotFoundUpdate)
		return
	}
	c.String(http.StatusOK, "Book deleted.")
}

// pathID parses the :id parameter, answering 400 itself when it is not a
// positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
		return 0, false
	}
	return id, true
}
