package middleware

import (
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/identity"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ApprovedReviewer re-checks the reviewer's current status on every request,
// so an approval or rejection applies without waiting for the token to
// expire.
func ApprovedReviewer(accounts AccountFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := loadAccount(c, accounts)
		if account == nil {
			return err
		}
		if account.Role != models.RoleReviewer {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Reviewer access required",
			})
		}
		if gate := identity.CheckGates(identity.SignInGates, account); gate != nil {
			return c.Status(gate.Kind.Status()).JSON(dto.ErrorResponse{
				Error:   true,
				Kind:    string(gate.Kind),
				Message: gate.Message,
			})
		}

		c.Locals(accountLocal, account)
		return c.Next()
	}
}
