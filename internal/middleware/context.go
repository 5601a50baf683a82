package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accountLocal = "account"

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetAccountID extracts the account UUID from the JWT sub claim.
func GetAccountID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// GetRole returns the role claim, or "" when absent.
func GetRole(c *fiber.Ctx) models.Role {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return models.Role(role)
}

// GetAccount returns the account loaded by AdminRequired or
// ApprovedReviewer.
func GetAccount(c *fiber.Ctx) *models.Account {
	a, _ := c.Locals(accountLocal).(*models.Account)
	return a
}
