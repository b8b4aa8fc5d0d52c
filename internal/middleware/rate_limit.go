package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/campus-admin-api/internal/utils"
)

const (
	defaultRateMax    = 10
	defaultRateWindow = time.Second
)

// RateLimit caps requests per bucket within window. Buckets are keyed by the
// token subject set by JWTProtected and fall back to the client IP.
func RateLimit(bucket string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = defaultRateMax
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	retryAfter := strconv.Itoa(int((window + time.Second - 1) / time.Second))

	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: func(c *fiber.Ctx) string { return rateKey(bucket, c) },
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func rateKey(bucket string, c *fiber.Ctx) string {
	subject, _ := c.Locals("user_id").(string)
	if subject = strings.TrimSpace(subject); subject == "" {
		return bucket + ":ip:" + c.IP()
	}
	return bucket + ":sub:" + subject
}
