package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AdminRequired lets through tokens whose role claim is admin and whose
// account is still an active admin in the database.
func AdminRequired(accounts AccountFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetRole(c) != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		account, err := loadAccount(c, accounts)
		if account == nil {
			return err
		}
		if account.Role != models.RoleAdmin || !account.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		c.Locals(accountLocal, account)
		return c.Next()
	}
}

// loadAccount returns the token's account, or nil with the response already
// written: 401 when the account is gone, 500 when the lookup fails.
func loadAccount(c *fiber.Ctx, accounts AccountFinder) (*models.Account, error) {
	id, err := GetAccountID(c)
	if err != nil {
		return nil, unauthorized(c)
	}
	account, err := accounts.FindByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized(c)
	}
	if err != nil {
		slog.Error("failed to load account", "method", c.Method(), "path", c.Path(), "request_id", c.Locals("requestid"), "account_id", id.String(), "error", err.Error())
		return nil, c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return account, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
