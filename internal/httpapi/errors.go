package httpapi

import (
	"errors"
	"net/http"

	"bookstore/internal/auth"
	"bookstore/internal/authors"
	"bookstore/internal/books"
	"bookstore/internal/users"
	"bookstore/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody        = "Invalid request body."
	msgInvalidID          = "Invalid ID."
	msgInvalidCredentials = "Invalid email or password."
	msgEmailTaken         = "An account with that email already exists."
	msgPasswordTooLong    = "Password must be at most 72 bytes."
	msgBusy               = "Server is busy, please retry."
	msgInternal           = "Internal server error."

	msgAuthorNotFound     = "No author found with the specified ID"
	msgBookNotFound       = "Cannot find a book with the specified ID."
	msgBookNotFoundUpdate = "No book with that specified ID."
	msgUserNotFound       = "User not found."
)

// respondError maps a service error to exactly one status and public message.
// notFound is the route-specific message for a missing resource. Anything
// unrecognised is logged and answered with a generic 500.
func respondError(c *gin.Context, err error, notFound string) {
	status, msg := classify(err, notFound)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "status", status, "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classify(err error, notFound string) (int, string) {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusUnprocessableEntity, msgEmailTaken
	case errors.Is(err, users.ErrPasswordTooLong):
		return http.StatusBadRequest, msgPasswordTooLong
	case errors.Is(err, users.ErrInvalidInput):
		return http.StatusBadRequest, "Email and password are required."
	case errors.Is(err, authors.ErrInvalidArgument):
		return http.StatusBadRequest, "Firstname and lastname are required."
	case errors.Is(err, books.ErrInvalidArgument):
		return http.StatusBadRequest, "Title is required."
	case errors.Is(err, books.ErrUnknownAuthor):
		return http.StatusUnprocessableEntity, "No author found with the given author_id."
	case errors.Is(err, authors.ErrInUse):
		return http.StatusConflict, "Author still has books."
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, authors.ErrNotFound),
		errors.Is(err, books.ErrNotFound):
		return http.StatusNotFound, notFound
	// Checked before ErrStorage: capacity errors arrive wrapped in it.
	case errors.Is(err, auth.ErrHashBusy):
		return http.StatusServiceUnavailable, msgBusy
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
