package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// markupPattern catches script injection in free-text fields such as
// team names and response notes. Plain prose never matches it.
var markupPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxFieldLength      int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware screens mutating requests before they reach the handlers:
// the content type must be JSON, the body must parse, and every string
// field must stay within length bounds and free of markup.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxFieldLength == 0 {
		cfg.MaxFieldLength = 2000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" {
			allowed := false
			for _, allowedType := range cfg.AllowedContentTypes {
				if strings.Contains(contentType, allowedType) {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		body := c.Body()
		if len(body) == 0 {
			return c.Next()
		}

		var payload interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if field, reason := screen(payload, cfg.MaxFieldLength); field != "" {
			cfg.Logger.Warn("Rejected request payload",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.String("field", field),
				zap.String("reason", reason),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Field %q %s", field, reason),
			})
		}

		return c.Next()
	}
}

// screen walks the decoded payload and returns the first string field
// that fails inspection, with the reason. Empty field means clean.
func screen(v interface{}, maxLen int) (string, string) {
	switch val := v.(type) {
	case map[string]interface{}:
		for key, item := range val {
			if s, ok := item.(string); ok {
				if reason := inspect(s, maxLen); reason != "" {
					return key, reason
				}
				continue
			}
			if field, reason := screen(item, maxLen); field != "" {
				return field, reason
			}
		}
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok {
				if reason := inspect(s, maxLen); reason != "" {
					return "value", reason
				}
				continue
			}
			if field, reason := screen(item, maxLen); field != "" {
				return field, reason
			}
		}
	case string:
		if reason := inspect(val, maxLen); reason != "" {
			return "value", reason
		}
	}
	return "", ""
}

func inspect(s string, maxLen int) string {
	if len(s) > maxLen {
		return "exceeds maximum length"
	}
	if markupPattern.MatchString(s) {
		return "contains disallowed markup"
	}
	return ""
}
