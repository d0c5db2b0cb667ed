package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserIDLocalKey stores the authenticated user's ID in context locals.
	UserIDLocalKey = "user_id"
	// UserRoleLocalKey stores the authenticated user's role in context locals.
	UserRoleLocalKey = "user_role"
)

// AuthClaims is the JWT payload the platform issues: the subject is the
// user ID and role drives authorization.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the Bearer token on every request and stores the user ID
// and role in context locals. Tokens are HMAC-signed; any other signing
// method is rejected.
func Auth(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header is required")
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "bearer token is required")
		}

		claims := new(AuthClaims)
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token subject is required")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		c.Locals(UserRoleLocalKey, claims.Role)

		return c.Next()
	}
}

// RequireStaff allows only staff and admin roles through.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(UserRoleLocalKey).(string)
		if role != "staff" && role != "admin" {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
