package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/scope"
	"github.com/campushub/activity-portal-api/internal/utils"
)

const identityLocal = "identity"

// JWTProtected returns a middleware that validates bearer tokens and binds
// the authenticated identity tuple to the request.
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

		identity, err := identityFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(identityLocal, identity)

		return c.Next()
	}
}

// IdentityFromRequest returns the identity bound by JWTProtected, or false
// when the request is unauthenticated.
func IdentityFromRequest(c *fiber.Ctx) (scope.Identity, bool) {
	value := c.Locals(identityLocal)
	if value == nil {
		return scope.Identity{}, false
	}

	identity, ok := value.(scope.Identity)
	return identity, ok
}

// BindIdentity stores an identity on the request. Test helper for exercising
// protected routes without a signed token.
func BindIdentity(c *fiber.Ctx, identity scope.Identity) {
	c.Locals(identityLocal, identity)
}

func identityFromClaims(claims jwt.MapClaims) (scope.Identity, error) {
	subject, err := extractSubject(claims)
	if err != nil {
		return scope.Identity{}, err
	}

	role, err := models.ParseRole(stringClaim(claims, "role"))
	if err != nil {
		return scope.Identity{}, err
	}

	identity := scope.Identity{
		ID:         subject,
		Role:       role,
		Department: stringClaim(claims, "department"),
		Class:      stringClaim(claims, "class"),
	}

	if value, ok := claims["semester"]; ok {
		if number, ok := value.(float64); ok && number > 0 {
			semester := int(number)
			identity.Semester = &semester
		}
	}

	return identity, nil
}

func extractSubject(claims jwt.MapClaims) (uint, error) {
	value, ok := claims["sub"]
	if !ok {
		return 0, fmt.Errorf("subject claim missing")
	}

	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key]; ok {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}
