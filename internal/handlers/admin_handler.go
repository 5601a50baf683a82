package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListAccounts supports ?role=&status=&page=&limit=.
func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	resp, err := h.adminService.ListAccounts(c.UserContext(),
		c.Query("role"), c.Query("status"), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, "failed to list accounts", err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid account ID")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	account, err := h.adminService.SetReviewerStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(dto.NewAccountResponse(account))
}

func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid account ID")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return errorJSON(c, fiber.StatusBadRequest, "is_active is required")
	}
	actorID, err := middleware.GetAccountID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	account, err := h.adminService.SetActive(c.UserContext(), actorID, id, *req.IsActive)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(dto.NewAccountResponse(account))
}

func adminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Account not found")
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrNotReviewer),
		errors.Is(err, services.ErrSelfDeactivate):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return internalError(c, "admin action failed", err)
}
