package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"todochat/auth"
	"todochat/domain"
)

// SignupRequest is the request to create an account.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// SigninRequest is the request to authenticate.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token and the account it belongs to.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// Signup registers a new account.
// POST /api/auth/signup
func (h *Handler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
	}

	existing, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("ERROR: failed to look up user: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "user with this email already exists"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("ERROR: failed to hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}

	now := time.Now()
	user := &domain.User{
		UserID:       uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		log.Printf("ERROR: failed to create user: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}

	return h.issueToken(c, http.StatusCreated, user)
}

// Signin authenticates an account and returns an access token.
// POST /api/auth/signin
func (h *Handler) Signin(c echo.Context) error {
	ctx := c.Request().Context()

	var req SigninRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := h.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		log.Printf("ERROR: failed to look up user: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sign in"})
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	return h.issueToken(c, http.StatusOK, user)
}

func (h *Handler) issueToken(c echo.Context, status int, user *domain.User) error {
	token, err := h.issuer.Issue(user.UserID)
	if err != nil {
		log.Printf("ERROR: failed to issue token: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
	}
	return c.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}
