package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	_ "github.com/sasikola/mb-server/docs"
	"github.com/sasikola/mb-server/internal/auth/middleware"
	"github.com/sasikola/mb-server/internal/auth/service"
	"github.com/sasikola/mb-server/internal/cleanup"
	"github.com/sasikola/mb-server/internal/config"
	"github.com/sasikola/mb-server/internal/handlers"
	"github.com/sasikola/mb-server/internal/logger"
	loggerMiddleware "github.com/sasikola/mb-server/internal/logger/middleware"
	sharedMiddleware "github.com/sasikola/mb-server/internal/middlewares"
	"github.com/sasikola/mb-server/internal/repositories"
	"github.com/sasikola/mb-server/internal/services"
	"github.com/sasikola/mb-server/internal/storage"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// cleanupQueueSize bounds the deletes buffered by the in-process pool
const cleanupQueueSize = 256

// @title mb-server Blog API
// @version 1.0
// @description API for user accounts, blog posts and profile pictures

// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting mb-server")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	// Initialize upload storage
	store, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	// Health checks
	checks := map[string]handlers.CheckFunc{
		"database": db.PingContext,
	}

	// Initialize file cleanup
	var cleaner services.Cleaner
	var stopCleanup func()
	if cfg.Redis.Host != "" {
		queue, redisCheck, stop, err := startCleanupQueue(cfg, store)
		if err != nil {
			logger.Logger.Fatal("Failed to start cleanup queue", zap.Error(err))
		}
		cleaner, stopCleanup = queue, stop
		checks["redis"] = redisCheck
		logger.Logger.Info("File cleanup runs on the Redis queue", zap.String("redis", cfg.RedisAddr()))
	} else {
		pool := cleanup.NewPool(store, cfg.Cleanup.Workers, cleanupQueueSize, logger.Logger)
		pool.Start()
		cleaner, stopCleanup = pool, pool.Stop
		logger.Logger.Info("File cleanup runs in process", zap.Int("workers", cfg.Cleanup.Workers))
	}
	defer stopCleanup()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	blogRepo := repositories.NewBlogRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, store, cleaner, tokenGenerator, cfg.Upload.MaxImageSize, logger.Logger)
	adminService := services.NewAdminService(userRepo, blogRepo, cleaner, cfg.Admin, logger.Logger)
	blogService := services.NewBlogService(blogRepo, userRepo, store, cleaner, cfg.Upload.MaxImageSize, logger.Logger)
	profileService := services.NewProfileService(userRepo, store, cleaner, cfg.Upload.MaxImageSize, logger.Logger)

	// Provision the admin account
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 30*time.Second)
	adminService.BootstrapAdmin(bootstrapCtx)
	cancelBootstrap()

	// Schedule the orphan upload sweep
	if cfg.Cleanup.SweepSchedule != "" {
		sweeper := cleanup.NewSweeper(store, cfg.Cleanup.SweepGrace, logger.Logger, userRepo, blogRepo)
		if err := sweeper.Start(cfg.Cleanup.SweepSchedule); err != nil {
			logger.Logger.Fatal("Failed to schedule upload sweep", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(checks, logger.Logger)
	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	blogHandler := handlers.NewBlogHandler(blogService, logger.Logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.RequireAuth(tokenGenerator)
	adminMiddleware := middleware.RequireAdmin(userRepo, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", sharedMiddleware.RequestIDHeader},
		ExposedHeaders: []string{sharedMiddleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	// Room for the largest accepted multipart upload plus its text fields
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(cfg.Upload.MaxImageSize * (handlers.MaxUploadParts + 1)))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Stored uploads
	r.Handle(storage.PublicPrefix+"/*", http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(store.BasePath()))))

	healthHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)
	r.Route("/user", func(r chi.Router) {
		blogHandler.RegisterRoutes(r, authMiddleware)
		profileHandler.RegisterRoutes(r, authMiddleware)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		adminHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "mb_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directories if running from cmd/api
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// startCleanupQueue connects to Redis and runs the asynq worker deleting stored files.
// It returns the dispatcher, a Redis health check and a function stopping everything.
func startCleanupQueue(cfg *config.Config, store cleanup.Deleter) (*cleanup.Queue, handlers.CheckFunc, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	client := asynq.NewClient(redisOpt)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Cleanup.Workers,
		Queues: map[string]int{
			cleanup.QueueName: 1,
		},
		Logger: logger.Logger.Sugar(),
	})
	if err := srv.Start(cleanup.NewServeMux(cleanup.NewWorker(store, logger.Logger))); err != nil {
		client.Close()
		rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to start cleanup worker: %w", err)
	}

	stop := func() {
		srv.Shutdown()
		client.Close()
		rdb.Close()
	}
	check := func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}

	return cleanup.NewQueue(client, logger.Logger), check, stop, nil
}
