package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// binds the verified identity (user id, role, campus) to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		identity := identityFromClaims(claims)
		if identity.UserID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}

		c.Locals("user_id", identity.UserID)
		c.Locals("user_role", identity.Role)
		c.Locals("campus_id", identity.CampusID)

		return c.Next()
	}
}

// IdentityFromLocals reassembles the verified identity bound by JWTProtected.
func IdentityFromLocals(c *fiber.Ctx) realtime.Identity {
	return realtime.Identity{
		UserID:   localString(c, "user_id"),
		Role:     localString(c, "user_role"),
		CampusID: localString(c, "campus_id"),
	}
}

func identityFromClaims(claims jwt.MapClaims) realtime.Identity {
	return realtime.Identity{
		UserID:   claimString(claims, "sub", "user_id", "id"),
		Role:     strings.ToLower(claimString(claims, "role")),
		CampusID: claimString(claims, "campus_id", "tenant_id"),
	}
}

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return fmt.Sprintf("%d", uint64(v))
		}
	}
	return ""
}

func localString(c *fiber.Ctx, key string) string {
	if value := c.Locals(key); value != nil {
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s)
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
	return ""
}
