package main

import (
	"log/slog"
	"net/http"

	"bookstore/internal/httpapi"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers httpapi.Handlers
	gate     gin.HandlerFunc
	health   httpapi.Health
	metrics  http.Handler
}

// newRouter builds the engine with the global middleware chain.
func newRouter(log *slog.Logger, corsOrigins []string, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())
	r.Use(httpapi.CORS(corsOrigins))
	return r
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.handlers

	// public
	r.GET("/", h.Index)
	r.GET("/healthz", d.health.Handle)
	r.GET("/metrics", gin.WrapH(d.metrics))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/sign-in", h.SignIn)
		authGroup.POST("/sign-up", h.SignUp)
		authGroup.GET("/me", d.gate, h.Me)
	}

	authors := r.Group("/authors", d.gate)
	{
		authors.GET("", h.ListAuthors)
		authors.POST("", h.CreateAuthor)
		authors.GET("/:id", h.GetAuthor)
		authors.PUT("/:id", h.UpdateAuthor)
		authors.DELETE("/:id", h.DeleteAuthor)
		authors.GET("/:id/books", h.ListAuthorBooks)
	}

	books := r.Group("/books", d.gate)
	{
		books.GET("", h.ListBooks)
		books.POST("", h.CreateBook)
		books.GET("/:id", h.GetBook)
		books.PUT("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
	}
}
