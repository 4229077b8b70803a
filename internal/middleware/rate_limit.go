package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/campushub/activity-portal-api/internal/scope"
)

// RateLimit builds a limiter keyed on the authenticated account when one is
// present and the client IP otherwise, so unauthenticated endpoints such as
// login are throttled per source address.
func RateLimit(name string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if identity, ok := c.Locals("identity").(scope.Identity); ok && identity.ID != 0 {
				return fmt.Sprintf("%s:user:%d", name, identity.ID)
			}
			return fmt.Sprintf("%s:ip:%s", name, c.IP())
		},
	})
}
