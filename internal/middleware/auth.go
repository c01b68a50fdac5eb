// Package middleware provides HTTP middleware components for the application.
// It includes authentication and role checks for the fiber web framework.
package middleware

import (
	"strings"

	"bitcash/internal/models"
	"bitcash/internal/utils"
	"bitcash/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates bearer tokens and stores the owner claims in the
// request locals under "claims".
type AuthMiddleware struct {
	secret string
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{secret: secret, logger: logger.Named("auth")}
}

// Handler checks for:
// - Presence of Authorization header with Bearer token
// - Valid HS256 signature and expiry
// - A known role
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}
	if !knownRole(claims.Role) {
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals("claims", claims)
	return c.Next()
}

// RequireRole allows the request through only for the listed roles. Admins
// always pass.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetOwnerClaims(c)
		if err != nil {
			return response.Unauthorized(c)
		}
		if claims.Role == models.RoleAdmin {
			return c.Next()
		}
		for _, r := range roles {
			if claims.Role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c)
	}
}

func knownRole(role string) bool {
	switch role {
	case models.RoleCustomer, models.RoleMerchant, models.RoleAgent, models.RoleAdmin:
		return true
	}
	return false
}
