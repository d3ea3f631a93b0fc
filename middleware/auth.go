package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/config"
)

// AuthMiddleware validates the shared-secret JWTs issued by the portal
// backends. Tokens carry the subject ID and a role claim; route groups
// pick the role they accept.
type AuthMiddleware struct {
	logger *zap.Logger
	secret []byte
}

func NewAuthMiddleware(cfg *config.Config, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		logger: logger,
		secret: []byte(cfg.JWTSecret),
	}
}

// Require returns a handler that admits only tokens with the given role.
// The subject ID lands in Locals("userID") and the role in Locals("role").
func (m *AuthMiddleware) Require(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			m.logger.Debug("no authentication found",
				zap.String("path", c.Path()),
				zap.String("role", role))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		claims, err := m.parseToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			m.logger.Debug("invalid token",
				zap.String("path", c.Path()),
				zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		subject, _ := claims["sub"].(string)
		tokenRole, _ := claims["role"].(string)
		if subject == "" || tokenRole != role {
			m.logger.Debug("role mismatch",
				zap.String("path", c.Path()),
				zap.String("expected", role),
				zap.String("got", tokenRole))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Not authorized for this resource",
			})
		}

		c.Locals("userID", subject)
		c.Locals("role", tokenRole)

		return c.Next()
	}
}

func (m *AuthMiddleware) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
