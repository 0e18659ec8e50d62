package handlers

import (
	"errors"

	"github.com/bbraka/wallet-pay-sub000/internal/services/auth"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	service auth.Service
}

func NewAuthHandler(s auth.Service) *AuthHandler {
	return &AuthHandler{service: s}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	user, err := h.service.Register(c.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "account created", user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	user, token, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return response.Unauthorized(c, "invalid credentials")
		}
		return response.DomainError(c, err)
	}
	return response.Success(c, "logged in", fiber.Map{
		"token": token,
		"user":  user,
	})
}
