package middleware

import (
	"context"
	"time"

	"student-roster-backend/token"

	"github.com/redis/go-redis/v9"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	refreshKeyPrefix   = "refresh_token:"
)

// AppContext bundles all dependencies
type AppContext struct {
	TokenMaker      token.Maker
	Ctx             context.Context
	RedisClient     *redis.Client
	AccessDuration  time.Duration
	RefreshDuration time.Duration
	CookieDomain    string
	SecureCookies   bool
}

// RefreshKey is the redis key under which a live refresh token is stored.
func RefreshKey(refreshToken string) string {
	return refreshKeyPrefix + refreshToken
}
