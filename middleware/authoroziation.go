package middleware

import (
	"strings"
	"time"

	"student-roster-backend/config"
	"student-roster-backend/db/models"
	"student-roster-backend/token"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const UserLocalsKey = "user"

func unauthorized(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthorized",
		"data":    nil,
		"error":   detail,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Something went wrong",
		"data":    nil,
		"error":   "An internal server error occurred.",
	})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// CurrentUser returns the payload stored by ProtectedRoute, or nil.
func CurrentUser(c *fiber.Ctx) *token.Payload {
	payload, _ := c.Locals(UserLocalsKey).(*token.Payload)
	return payload
}

// SetAuthCookies writes the access and refresh cookies.
func SetAuthCookies(c *fiber.Ctx, ctx *AppContext, accessToken, refreshToken string) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Expires:  now.Add(ctx.AccessDuration),
		HTTPOnly: true,
		Secure:   ctx.SecureCookies,
		SameSite: "Lax",
		Path:     "/",
		Domain:   ctx.CookieDomain,
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Expires:  now.Add(ctx.RefreshDuration),
		HTTPOnly: true,
		Secure:   ctx.SecureCookies,
		SameSite: "Lax",
		Path:     "/",
		Domain:   ctx.CookieDomain,
	})
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(c *fiber.Ctx, ctx *AppContext) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   ctx.SecureCookies,
			SameSite: "Lax",
			Path:     "/",
			Domain:   ctx.CookieDomain,
		})
	}
}

// ProtectedRoute accepts an Authorization bearer token or the access cookie.
// When neither is valid it falls back to a single-use refresh token kept in
// redis and rotates both cookies.
func ProtectedRoute(ctx *AppContext) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken = c.Cookies(AccessTokenCookie)
		}

		if accessToken != "" {
			payload, err := ctx.TokenMaker.VerifyToken(accessToken)
			if err == nil {
				c.Locals(UserLocalsKey, payload)
				return c.Next()
			}
			config.Logger.Debug("Invalid access token encountered", zap.Error(err))
		}

		refreshToken := c.Cookies(RefreshTokenCookie)
		if refreshToken == "" || ctx.RedisClient == nil {
			return unauthorized(c, "Authentication required")
		}

		refreshPayload, err := ctx.TokenMaker.VerifyToken(refreshToken)
		if err != nil {
			config.Logger.Warn("Refresh token verification failed", zap.Error(err))
			return unauthorized(c, "Session expired or invalid. Please log in again.")
		}

		userID, err := ctx.RedisClient.Get(ctx.Ctx, RefreshKey(refreshToken)).Result()
		if err == redis.Nil {
			config.Logger.Warn("Refresh token not found in Redis",
				zap.String("payload_id", refreshPayload.ID.String()),
				zap.String("email", refreshPayload.Email),
			)
			return unauthorized(c, "Session invalid. Please log in again.")
		} else if err != nil {
			config.Logger.Error("Error accessing Redis for refresh token validation",
				zap.String("payload_id", refreshPayload.ID.String()),
				zap.Error(err),
			)
			return internalError(c)
		}

		if err := ctx.RedisClient.Del(ctx.Ctx, RefreshKey(refreshToken)).Err(); err != nil {
			config.Logger.Warn("Error deleting old refresh token from Redis", zap.String("user_id", userID), zap.Error(err))
		}

		newAccessToken, err := ctx.TokenMaker.CreateToken(refreshPayload.Email, refreshPayload.Role, ctx.AccessDuration)
		if err != nil {
			config.Logger.Error("Could not generate new access token", zap.String("user_id", userID), zap.Error(err))
			return internalError(c)
		}

		newRefreshToken, err := ctx.TokenMaker.CreateToken(refreshPayload.Email, refreshPayload.Role, ctx.RefreshDuration)
		if err != nil {
			config.Logger.Error("Could not generate new refresh token", zap.String("user_id", userID), zap.Error(err))
			return internalError(c)
		}

		if err := ctx.RedisClient.Set(ctx.Ctx, RefreshKey(newRefreshToken), userID, ctx.RefreshDuration).Err(); err != nil {
			config.Logger.Error("Error storing new refresh token in Redis", zap.String("user_id", userID), zap.Error(err))
			return internalError(c)
		}

		SetAuthCookies(c, ctx, newAccessToken, newRefreshToken)

		payload, err := ctx.TokenMaker.VerifyToken(newAccessToken)
		if err != nil {
			return internalError(c)
		}
		c.Locals(UserLocalsKey, payload)
		return c.Next()
	}
}

// RequireRoles must run after ProtectedRoute.
func RequireRoles(roles ...models.Role) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		payload := CurrentUser(c)
		if payload == nil {
			return unauthorized(c, "Authentication required")
		}
		if _, ok := allowed[payload.Role]; !ok {
			config.Logger.Warn("Role not permitted",
				zap.String("email", payload.Email),
				zap.String("role", payload.Role),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden",
				"data":    nil,
				"error":   "You do not have permission to perform this action",
			})
		}
		return c.Next()
	}
}
