package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	profileService *services.ProfileService
}

func NewAccountHandler(profileService *services.ProfileService) *AccountHandler {
	return &AccountHandler{profileService: profileService}
}

func (h *AccountHandler) Me(c *fiber.Ctx) error {
	id, err := middleware.GetAccountID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	account, err := h.profileService.Me(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Account not found")
		}
		return internalError(c, "failed to load account", err)
	}
	return c.JSON(dto.NewAccountResponse(account))
}

func (h *AccountHandler) CompleteProfile(c *fiber.Ctx) error {
	id, err := middleware.GetAccountID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	account, err := h.profileService.CompleteProfile(c.UserContext(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidProfile):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrAccountNotFound):
			return errorJSON(c, fiber.StatusNotFound, "Account not found")
		}
		return internalError(c, "failed to update profile", err)
	}
	return c.JSON(dto.NewAccountResponse(account))
}
