package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/client"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/config"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/handler"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/middleware"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/pipeline"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/queue"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/ratelimit"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/service"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/storage"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/worker"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Shared pyserver quota limiter (optional)
	var limiter client.Limiter
	if cfg.Pyserver.MinCallIntervalMS > 0 {
		limiter = ratelimit.NewLimiter(redisClient, time.Duration(cfg.Pyserver.MinCallIntervalMS)*time.Millisecond)
	}
	pyClient := client.NewPyserverClient(cfg.Pyserver.BaseURL, limiter)

	// Report storage
	reportStorage, err := storage.NewS3Storage(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Queue, services, consumer
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	q := queue.NewAsynqQueue(redisOpt, cfg.Server.Env, cfg.Worker.Concurrency)
	defer q.Close()

	reportService := service.NewReportService(redisClient, q)
	orchestrator := pipeline.NewOrchestrator(pyClient, reportStorage, reportService)
	consumer := worker.NewConsumer(reportService, orchestrator)
	q.Handler = asynq.HandlerFunc(consumer.ProcessTask)

	// Initialize validator
	validate := validator.New()

	// Handlers and middleware
	reportHandler := handler.NewReportHandler(reportService, reportStorage, validate)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB for large comment batches
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-Id",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())
	api.Post("/report", rateLimiter.ReportLimit(cfg.RateLimit.ReportsPerHour), reportHandler.Create)
	api.Get("/report/:id/status", reportHandler.Status)
	api.Get("/report/:id", reportHandler.Download)

	// Start consuming queue deliveries
	if err := q.Listen(ctx); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
