package controllers

import (
	"errors"
	"time"

	"student-roster-backend/config"
	"student-roster-backend/db/models"
	"student-roster-backend/middleware"
	"student-roster-backend/users/repositories"
	"student-roster-backend/users/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthController struct {
	UserRepo repositories.UserRepository
	AppCtx   *middleware.AppContext
}

type AuthResponse struct {
	Token     string      `json:"token"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func badRequest(c *fiber.Ctx, message, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"data":    nil,
		"error":   detail,
	})
}

// issueTokens creates an access/refresh pair, stores the refresh token in
// redis and sets both cookies.
func (ac *AuthController) issueTokens(c *fiber.Ctx, user *models.User) (*AuthResponse, error) {
	accessToken, err := ac.AppCtx.TokenMaker.CreateToken(user.Email, string(user.Role), ac.AppCtx.AccessDuration)
	if err != nil {
		return nil, err
	}
	refreshToken, err := ac.AppCtx.TokenMaker.CreateToken(user.Email, string(user.Role), ac.AppCtx.RefreshDuration)
	if err != nil {
		return nil, err
	}

	if ac.AppCtx.RedisClient != nil {
		if err := ac.AppCtx.RedisClient.Set(ac.AppCtx.Ctx, middleware.RefreshKey(refreshToken), user.ID.String(), ac.AppCtx.RefreshDuration).Err(); err != nil {
			return nil, err
		}
	}

	middleware.SetAuthCookies(c, ac.AppCtx, accessToken, refreshToken)

	return &AuthResponse{
		Token:     accessToken,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(ac.AppCtx.AccessDuration),
	}, nil
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		config.Logger.Error("Error parsing register request body", zap.Error(err))
		return badRequest(c, "Invalid request", "Invalid request format.")
	}
	if msg := services.ValidateRequest(&req); msg != "" {
		return badRequest(c, "Validation failed", msg)
	}
	if msg := services.ValidatePassword(req.Password); msg != "" {
		return badRequest(c, "Validation failed", msg)
	}

	user, err := ac.UserRepo.CreateUser(c.Context(), &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.UserRole,
		Active:    true,
		CreatedBy: "self-registration",
	})
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) || errors.Is(err, repositories.ErrUsernameTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"data":    nil,
				"error":   err.Error(),
			})
		}
		config.Logger.Error("Failed to register user", zap.String("email", req.Email), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Registration failed",
			"data":    nil,
			"error":   "An internal server error occurred.",
		})
	}

	resp, err := ac.issueTokens(c, user)
	if err != nil {
		config.Logger.Error("Failed to issue tokens after registration", zap.String("email", user.Email), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Registration succeeded but login failed",
			"data":    nil,
			"error":   "An internal server error occurred.",
		})
	}

	config.Logger.Info("User registered", zap.String("email", user.Email), zap.String("username", user.Username))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"data":    resp,
		"error":   nil,
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		config.Logger.Error("Error parsing login request body", zap.Error(err))
		return badRequest(c, "Invalid request", "Invalid request format.")
	}
	if msg := services.ValidateRequest(&req); msg != "" {
		return badRequest(c, "Validation failed", msg)
	}

	var (
		user *models.User
		err  error
	)
	if req.Email != "" {
		user, err = ac.UserRepo.GetUserByEmail(c.Context(), req.Email)
	} else {
		user, err = ac.UserRepo.GetUserByUsername(c.Context(), req.Username)
	}

	if err != nil || !user.Active || !repositories.CheckPasswordHash(req.Password, user.Password) {
		if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
			config.Logger.Error("Login lookup failed", zap.Error(err))
		} else {
			config.Logger.Warn("Login attempt rejected", zap.String("email", req.Email), zap.String("username", req.Username))
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"data":    nil,
			"error":   "Invalid username, email or password.",
		})
	}

	resp, err := ac.issueTokens(c, user)
	if err != nil {
		config.Logger.Error("Failed to issue tokens", zap.String("email", user.Email), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Something went wrong",
			"data":    nil,
			"error":   "An internal server error occurred.",
		})
	}

	if err := ac.UserRepo.TouchLastLogin(c.Context(), user.ID, time.Now()); err != nil {
		config.Logger.Warn("Failed to record last login", zap.String("email", user.Email), zap.Error(err))
	}

	config.Logger.Info("User logged in", zap.String("email", user.Email), zap.String("client_ip", c.IP()))
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data":    resp,
		"error":   nil,
	})
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	refreshToken := c.Cookies(middleware.RefreshTokenCookie)
	if refreshToken != "" && ac.AppCtx.RedisClient != nil {
		if err := ac.AppCtx.RedisClient.Del(ac.AppCtx.Ctx, middleware.RefreshKey(refreshToken)).Err(); err != nil {
			config.Logger.Error("Failed to delete refresh token from Redis during logout", zap.Error(err))
		}
	}

	middleware.ClearAuthCookies(c, ac.AppCtx)

	config.Logger.Info("User logged out", zap.String("client_ip", c.IP()))
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
		"data":    nil,
		"error":   nil,
	})
}

// Me returns the account behind the current token.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	payload := middleware.CurrentUser(c)
	user, err := ac.UserRepo.GetUserByEmail(c.Context(), payload.Email)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
			"data":    nil,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "User retrieved",
		"data":    user,
		"error":   nil,
	})
}
