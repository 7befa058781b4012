package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Tier is a named request budget
type Tier struct {
	Name   string
	Max    int
	Window time.Duration

	// PerOperation gives every path under the limiter its own budget, so
	// heavy use of one assistant call does not lock out the others.
	PerOperation bool
}

var (
	// SessionTier guards sign-in
	SessionTier = Tier{Name: "session", Max: 10, Window: 15 * time.Minute}
	// APITier covers regular API calls
	APITier = Tier{Name: "api", Max: 60, Window: time.Minute}
	// AssistantTier covers calls that reach the language model
	AssistantTier = Tier{Name: "assistant", Max: 20, Window: time.Minute, PerOperation: true}
	// UploadTier covers file uploads
	UploadTier = Tier{Name: "upload", Max: 10, Window: 5 * time.Minute}
)

// RateLimitKey identifies the budget a request draws from: the tier, the
// caller (user ID if authenticated, otherwise IP) and, for per-operation
// tiers, the last path segment.
func RateLimitKey(c *fiber.Ctx, tier Tier) string {
	subject := GetUserID(c)
	if subject == "" {
		subject = "ip:" + c.IP()
	}
	key := tier.Name + ":" + subject
	if tier.PerOperation {
		path := strings.TrimSuffix(c.Path(), "/")
		key += ":" + path[strings.LastIndex(path, "/")+1:]
	}
	return key
}

// Limit creates a rate limiting middleware for tier
func Limit(tier Tier) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        tier.Max,
		Expiration: tier.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return RateLimitKey(c, tier)
		},
		LimitReached: func(c *fiber.Ctx) error {
			slog.Warn("rate limit reached", "tier", tier.Name, "key", RateLimitKey(c, tier))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
		},
	})
}

// RateLimiter creates an unnamed per-caller limiter
func RateLimiter(max int, expiration time.Duration) fiber.Handler {
	return Limit(Tier{Name: "custom", Max: max, Window: expiration})
}

// StrictRateLimiter for session sign-in
func StrictRateLimiter() fiber.Handler {
	return Limit(SessionTier)
}

// ModerateRateLimiter for regular API calls
func ModerateRateLimiter() fiber.Handler {
	return Limit(APITier)
}

// AssistantRateLimiter for calls that reach the language model
func AssistantRateLimiter() fiber.Handler {
	return Limit(AssistantTier)
}

// UploadRateLimiter for file uploads
func UploadRateLimiter() fiber.Handler {
	return Limit(UploadTier)
}
