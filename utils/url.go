package utils

import (
	"fmt"
	"strings"

	"student-roster-backend/config"

	"github.com/gofiber/fiber/v2"
)

// GetDownloadURL generates a download URL based on the environment (http for development, https for production).
func GetDownloadURL(c *fiber.Ctx, filePath string) string {
	filePath = strings.TrimPrefix(filePath, "./")
	filePath = strings.TrimPrefix(filePath, "/")

	if config.GetEnv("APP_ENV") == "production" {
		return fmt.Sprintf("https://%s/%s", c.Hostname(), filePath)
	}
	return fmt.Sprintf("http://%s/%s", c.Hostname(), filePath)
}

// IsLocalDownloadURL reports whether rawURL points at a file served by this host.
func IsLocalDownloadURL(c *fiber.Ctx, rawURL string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		prefix := scheme + c.Hostname() + "/"
		if strings.HasPrefix(rawURL, prefix) && len(rawURL) > len(prefix) {
			return true
		}
	}
	return false
}
