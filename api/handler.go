// Package api provides the HTTP handlers for the service.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"todochat/agent"
	"todochat/auth"
	"todochat/domain"
	"todochat/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store  store.Store
	chat   *agent.Chat
	issuer *auth.TokenIssuer
}

// NewHandler creates a new handler.
func NewHandler(st store.Store, chat *agent.Chat, issuer *auth.TokenIssuer) *Handler {
	return &Handler{
		store:  st,
		chat:   chat,
		issuer: issuer,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	e.POST("/api/auth/signup", h.Signup)
	e.POST("/api/auth/signin", h.Signin)

	g := e.Group("/api", auth.Middleware(h.issuer))
	g.POST("/chat", h.Chat)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:conversation_id/messages", h.GetConversationMessages)
	g.GET("/todos", h.ListTodos)
	g.POST("/todos", h.CreateTodo)
	g.GET("/todos/:todo_id", h.GetTodo)
	g.PUT("/todos/:todo_id", h.UpdateTodo)
	g.DELETE("/todos/:todo_id", h.DeleteTodo)
	g.PATCH("/todos/:todo_id/complete", h.SetTodoCompleted)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorResponse maps a typed domain error to an HTTP response.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
