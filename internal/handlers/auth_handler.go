package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) OAuthStart(c *fiber.Ctx) error {
	provider, err := oauth.ParseProvider(c.Params("provider"))
	if err != nil {
		return unknownProvider(c, err)
	}
	role := models.Role(c.Query("role", string(models.RoleReviewer)))

	resp, err := h.authService.OAuthStart(c.UserContext(), provider, role, c.Query("redirect_uri"))
	if err != nil {
		return identityError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) OAuthSignIn(c *fiber.Ctx) error {
	provider, err := oauth.ParseProvider(c.Params("provider"))
	if err != nil {
		return unknownProvider(c, err)
	}
	var req dto.OAuthSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.OAuthSignIn(c.UserContext(), provider, &req)
	if err != nil {
		return identityError(c, err)
	}
	if resp.IsNewUser {
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
	return c.JSON(resp)
}

func unknownProvider(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Kind: "InvalidInput", Message: err.Error(),
	})
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.AdminLogin(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrAccountDisabled):
			return errorJSON(c, fiber.StatusForbidden, err.Error())
		}
		return internalError(c, "admin login failed", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrAccountDisabled):
			return errorJSON(c, fiber.StatusForbidden, err.Error())
		}
		return internalError(c, "token refresh failed", err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		return internalError(c, "logout failed", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
