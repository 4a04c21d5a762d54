// Package tenant resolves the calling account from request context and
// scopes queries to the rows that account may see.
package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoUser = errors.New("no authenticated user")

func claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	return mc, ok
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, ok := claims(c)
	if !ok {
		return uuid.Nil, ErrNoUser
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// IsAuthenticated is true when a valid token was attached by the JWT middleware.
func IsAuthenticated(c *fiber.Ctx) bool {
	_, err := GetUserID(c)
	return err == nil
}

func stringClaim(c *fiber.Ctx, key string) string {
	mc, ok := claims(c)
	if !ok {
		return ""
	}
	v, _ := mc[key].(string)
	return v
}

func GetEmail(c *fiber.Ctx) string { return stringClaim(c, "email") }

func GetRole(c *fiber.Ctx) string { return stringClaim(c, "role") }

// GetPlan returns the plan baked into the access token.
func GetPlan(c *fiber.Ctx) string {
	if p := stringClaim(c, "plan"); p != "" {
		return p
	}
	return "free"
}

// GetDeviceID returns the device the token was issued to, if any.
func GetDeviceID(c *fiber.Ctx) *uuid.UUID {
	did := stringClaim(c, "did")
	if did == "" {
		return nil
	}
	id, err := uuid.Parse(did)
	if err != nil {
		return nil
	}
	return &id
}

// GetExpiry returns the exp claim as unix seconds.
func GetExpiry(c *fiber.Ctx) int64 {
	mc, ok := claims(c)
	if !ok {
		return 0
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}
