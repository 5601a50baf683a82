package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/identity"
	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

func internalError(c *fiber.Ctx, msg string, err error) error {
	slog.Error(msg, "method", c.Method(), "path", c.Path(), "request_id", requestID(c), "error", err.Error())
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

// identityError answers with the kind's status. Store failures keep their
// kind and retry flag but hide the cause.
func identityError(c *fiber.Ctx, err error) error {
	var ierr *identity.Error
	if !errors.As(err, &ierr) {
		return internalError(c, "sign-in failed", err)
	}

	status := ierr.Kind.Status()
	resp := dto.ErrorResponse{
		Error:     true,
		Kind:      string(ierr.Kind),
		Message:   ierr.Message,
		Retryable: ierr.Retryable,
		Detail:    ierr.Detail,
	}
	if status >= fiber.StatusInternalServerError {
		slog.Error("sign-in failed", "request_id", requestID(c), "kind", string(ierr.Kind), "error", ierr.Error())
		resp.Detail = nil
	}
	return c.Status(status).JSON(resp)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
