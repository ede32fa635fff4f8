package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "student-roster-backend/config"
	"student-roster-backend/middleware"
	"student-roster-backend/token"
	"student-roster-backend/utils"

	// Repositories
	student_repositories "student-roster-backend/students/repositories"
	users_repositories "student-roster-backend/users/repositories"

	// Services
	student_services "student-roster-backend/students/services"

	// Controllers
	student_controllers "student-roster-backend/students/controllers"

	// Routes
	student_routes "student-roster-backend/students/routes"
	user_routes "student-roster-backend/users/routes"

	// bleve
	bleveRepositories "student-roster-backend/bleve/repositories"
	bleveServices "student-roster-backend/bleve/services"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()
	defer config.SyncLogger()

	// Load environment variables
	config.LoadEnv()

	if err := utils.InitializeDateLocation(); err != nil {
		config.Logger.Fatal("Failed to initialize date location", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	middleware.InitCors(app, config.GetEnvOrDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173"))

	// Initialize database and configs
	db, err := config.ConfigureDatabase()
	if err != nil {
		config.Logger.Fatal("Database setup failed", zap.Error(err))
	}
	if err := config.SeedInitialAdmin(db, config.GetEnv("ADMIN_EMAIL"), config.GetEnv("ADMIN_PASSWORD")); err != nil {
		config.Logger.Error("Failed to seed initial admin", zap.Error(err))
	}

	port := config.GetEnvOrDefault("PORT", "8080")
	ctx := context.Background()

	// Redis client for refresh tokens, export cache and asynq
	redisAddr := config.GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	redisClient, err := config.InitRedisServer(ctx, redisAddr)
	if err != nil {
		config.Logger.Fatal("Redis unavailable", zap.String("addr", redisAddr), zap.Error(err))
	}
	defer redisClient.Close()

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: config.GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}
	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()

	tokenMaker, err := token.NewMaker(config.GetEnv("TOKEN_KIND"), config.GetEnv("TOKEN_SYMMETRIC_KEY"))
	if err != nil {
		config.Logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	appContext := &middleware.AppContext{
		TokenMaker:      tokenMaker,
		Ctx:             ctx,
		RedisClient:     redisClient,
		AccessDuration:  config.GetEnvDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
		RefreshDuration: config.GetEnvDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
		CookieDomain:    config.GetEnv("COOKIE_DOMAIN"),
		SecureCookies:   config.GetEnv("APP_ENV") == "production",
	}

	// Initialize the mailer
	utils.InitializeMailer()

	// Serve exported workbooks
	app.Static("/public", "./public")

	// Repositories
	userRepo := users_repositories.NewUserRepository(db)
	studentRepo := student_repositories.NewStudentRepository(db)

	indexPath := config.GetEnvOrDefault("BLEVE_INDEX_PATH", "./bleve_data")
	bleveIndexingService := bleveServices.NewIndexingService(config.Logger, indexPath)
	defer bleveIndexingService.Close()
	_, bleveInterfaceRepo := bleveRepositories.NewBleveRepository(bleveIndexingService)

	if indexed, err := bleveRepositories.ReindexStudentsIfEmpty(ctx, bleveInterfaceRepo, studentRepo); err != nil {
		config.Logger.Error("Failed to rebuild student search index", zap.Error(err))
	} else if indexed > 0 {
		config.Logger.Info("Student search index rebuilt", zap.Int("students", indexed))
	}

	// Services
	exportStorage := utils.NewLocalFileStorage(utils.ExportDir)
	importPipeline := student_services.NewImportPipeline(studentRepo, config.Logger)

	// Background workers
	asynqServer := asynq.NewServer(asynqRedisOpt, asynq.Config{
		Concurrency: 5,
		Logger:      config.Logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	mux.Handle(student_services.TypeImportErrorReport,
		student_services.NewImportReportHandler(exportStorage, utils.SendEmail, db, config.Logger))
	go func() {
		if err := asynqServer.Run(mux); err != nil {
			config.Logger.Error("Asynq server stopped", zap.Error(err))
		}
	}()

	cleanup, err := utils.RunScheduledCleanup(utils.ExportDir, utils.ExportFileTTL, config.GetEnv("ADMIN_EMAIL"))
	if err != nil {
		config.Logger.Error("Failed to schedule export cleanup", zap.Error(err))
	}

	// Routes
	studentController := &student_controllers.StudentController{
		StudentRepo:   studentRepo,
		Pipeline:      importPipeline,
		BleveRepo:     bleveInterfaceRepo,
		RedisClient:   redisClient,
		TaskQueue:     asynqClient,
		Storage:       exportStorage,
		ImportTimeout: config.GetEnvDuration("IMPORT_TIMEOUT", 2*time.Minute),
	}
	authLimiter := middleware.NewRateLimiter(6*time.Second, 5)

	user_routes.InitRoutes(app, userRepo, appContext, authLimiter)
	student_routes.StudentRouterInit(app, appContext, studentController, bleveInterfaceRepo)

	go func() {
		config.Logger.Info("Server starting", zap.String("port", port))
		if err := app.Listen(":" + port); err != nil {
			config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	config.Logger.Info("Shutting down")
	if cleanup != nil {
		cleanup.Stop()
	}
	asynqServer.Shutdown()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		config.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
