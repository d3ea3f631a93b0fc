package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/audit"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/booking"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/cache"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/config"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/handlers"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/middleware"
	"github.com/LasMinruk/SmartHealthcaremanagementSystem-sub000/notify"
)

type App struct {
	Fiber    *fiber.App
	Mongo    *mongo.Client
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	Ctx      context.Context
	Config   *config.Config
	Logger   *zap.Logger
}

func NewApp() (*App, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Setup MongoDB connection with retry logic
	var mongoClient *mongo.Client
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		mongoClient, err = mongo.Connect(options.Client().ApplyURI(cfg.MongoDBURL))
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = mongoClient.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				break
			}
			mongoClient.Disconnect(ctx)
		}
		logger.Warn("failed to connect to mongodb, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed after %d attempts: %v", maxRetries, err)
	}

	// Setup PostgreSQL connection with retry logic
	var pgPool *pgxpool.Pool

	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pool config: %v", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	for i := 0; i < maxRetries; i++ {
		pgPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pgPool.Ping(ctx); err == nil {
				break
			}
			pgPool.Close()
		}
		logger.Warn("failed to connect to postgres, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed after %d attempts: %v", maxRetries, err)
	}

	// Setup Redis connection with retry logic
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis URL parsing failed: %v", err)
	}

	redisClient := redis.NewClient(redisOpt)
	for i := 0; i < maxRetries; i++ {
		_, err = redisClient.Ping(ctx).Result()
		if err == nil {
			break
		}
		logger.Warn("failed to connect to redis, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("redis connection failed after %d attempts: %v", maxRetries, err)
	}

	// Fiber setup with improved error handling
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.Int("status", code))
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	})

	fiberApp.Use(middleware.RecoveryMiddleware(logger))

	// CORS configuration
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request logging middleware
	fiberApp.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		logger.Info("request completed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("duration", duration),
			zap.Int("status", c.Response().StatusCode()),
		)
		return err
	})

	return &App{
		Fiber:    fiberApp,
		Mongo:    mongoClient,
		Postgres: pgPool,
		Redis:    redisClient,
		Ctx:      ctx,
		Config:   cfg,
		Logger:   logger,
	}, nil
}

func (a *App) setupRoutes() error {
	store := booking.NewMongoStore(a.Mongo, a.Config.MongoDBName, a.Logger)
	service := booking.NewService(store, a.Logger)

	recorder := audit.NewRecorder(a.Postgres, a.Logger)
	if err := recorder.EnsureSchema(a.Ctx); err != nil {
		return fmt.Errorf("failed to ensure audit schema: %v", err)
	}

	cacheClient := cache.NewCache(a.Redis, "booking:")
	notifier := notify.NewLogNotifier(a.Logger)

	authMiddleware := middleware.NewAuthMiddleware(a.Config, a.Logger)

	bookingHandler := handlers.NewBookingHandler(service, cacheClient, recorder, notifier, a.Logger)
	doctorHandler := handlers.NewDoctorHandler(a.Config, store, cacheClient, a.Logger)

	api := a.Fiber.Group("/api")

	// Public booking UI endpoints
	api.Get("/doctors", doctorHandler.ListDoctors)
	api.Get("/doctors/:id/slots", doctorHandler.DoctorSlots)

	// Patient portal
	user := api.Group("/user", authMiddleware.Require(string(booking.RolePatient)))
	user.Post("/book-appointment", bookingHandler.BookAppointment)
	user.Post("/cancel-appointment", bookingHandler.CancelAppointment(booking.RolePatient))
	user.Get("/appointments", bookingHandler.ListOwnAppointments(booking.RolePatient))

	// Doctor portal
	doctor := api.Group("/doctor", authMiddleware.Require(string(booking.RoleDoctor)))
	doctor.Post("/complete-appointment", bookingHandler.CompleteAppointment)
	doctor.Post("/cancel-appointment", bookingHandler.CancelAppointment(booking.RoleDoctor))
	doctor.Get("/appointments", bookingHandler.ListOwnAppointments(booking.RoleDoctor))

	// Admin portal
	admin := api.Group("/admin", authMiddleware.Require(string(booking.RoleAdmin)))
	admin.Post("/cancel-appointment", bookingHandler.CancelAppointment(booking.RoleAdmin))
	admin.Get("/appointments", bookingHandler.AdminListAppointments)

	return nil
}

func (a *App) Start() error {
	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Setup routes
	if err := a.setupRoutes(); err != nil {
		return fmt.Errorf("failed to setup routes: %v", err)
	}

	// Start server in a goroutine
	go func() {
		if err := a.Fiber.Listen(":" + a.Config.ServerPort); err != nil {
			a.Logger.Fatal("failed to start server",
				zap.Error(err),
				zap.String("port", a.Config.ServerPort))
		}
	}()

	a.Logger.Info("server started",
		zap.String("port", a.Config.ServerPort))

	// Wait for interrupt signal
	<-sigChan
	a.Logger.Info("shutting down server...")

	// Cleanup
	if err := a.Fiber.Shutdown(); err != nil {
		a.Logger.Error("error during server shutdown",
			zap.Error(err))
	}
	if err := a.Mongo.Disconnect(a.Ctx); err != nil {
		a.Logger.Error("error closing mongodb connection",
			zap.Error(err))
	}
	a.Postgres.Close()
	if err := a.Redis.Close(); err != nil {
		a.Logger.Error("error closing redis connection",
			zap.Error(err))
	}
	if err := a.Logger.Sync(); err != nil {
		log.Printf("error syncing logger: %v", err)
	}

	return nil
}

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
