package routes

import (
	"student-roster-backend/middleware"
	"student-roster-backend/users/controllers"
	"student-roster-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
)

func InitRoutes(
	app *fiber.App,
	userRepo repositories.UserRepository,
	appContext *middleware.AppContext,
	limiter *middleware.RateLimiter,
) {
	authController := &controllers.AuthController{
		UserRepo: userRepo,
		AppCtx:   appContext,
	}

	authRoutes := app.Group("/api/v1/auth")
	authRoutes.Post("/register", limiter.Handler(), authController.Register)
	authRoutes.Post("/login", limiter.Handler(), authController.Login)
	authRoutes.Post("/logout", authController.Logout)
	authRoutes.Get("/me", middleware.ProtectedRoute(appContext), authController.Me)
}
