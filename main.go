package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizpro-backend/config"
	"bizpro-backend/controllers"
	"bizpro-backend/models"
	"bizpro-backend/routes"
	"bizpro-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.LoadEnv()

	logger, err := config.NewLogger(cfg.Server.AppEnv, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	if cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}
	logger.Info("connected to database")

	// company lock
	var locker services.Locker = services.NewMemoryLocker()
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatalw("failed to connect to Redis", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		locker = services.NewRedisLocker(redisClient, cfg.Redis.LockTTL)
		logger.Infow("using Redis company lock", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.LockTTL)
	}

	// domain events
	var publisher services.Publisher = services.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Infow("publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	stockService := services.NewStockService(db, locker, publisher, logger)
	productService := services.NewProductService(db, locker, publisher, logger)
	orderService := services.NewOrderService(db, locker, publisher, logger)
	tabService := services.NewTabService(db, locker, publisher, logger)
	appointmentService := services.NewAppointmentService(db, locker, publisher, logger)
	reportService := services.NewReportService(db, locker, logger)

	sender := services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cfg.Twilio.WhatsAppNumber)
	reminderService := services.NewReminderService(db, sender, time.Duration(cfg.Reminder.LeadHours)*time.Hour, logger)
	if cfg.Reminder.Enabled {
		if err := reminderService.StartScheduler(cfg.Reminder.Schedule); err != nil {
			logger.Fatalw("failed to start reminder scheduler", "error", err)
		}
	}

	r := routes.SetupRouter(cfg, logger, routes.Handlers{
		Auth:         controllers.NewAuthController(db, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, logger),
		Profile:      controllers.NewProfileController(db, logger),
		Clients:      controllers.NewClientController(db, logger),
		Employees:    controllers.NewEmployeeController(db, logger),
		Products:     controllers.NewProductController(productService, stockService, logger),
		Orders:       controllers.NewOrderController(orderService, logger),
		Tabs:         controllers.NewTabController(tabService, logger),
		Appointments: controllers.NewAppointmentController(appointmentService, logger),
		Reminders:    controllers.NewReminderController(reminderService, logger),
		Reports:      controllers.NewReportController(reportService, logger),
	})
	if cfg.Server.AppEnv == "development" {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Infow("server started", "addr", srv.Addr, "env", cfg.Server.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	logger.Infow("signal caught", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("server shutdown failed", "error", err)
	}
	shutdown(logger, reminderService, publisher, redisClient)
	logger.Info("server stopped")
}

func shutdown(logger *zap.SugaredLogger, reminders *services.ReminderService, publisher services.Publisher, redisClient *redis.Client) {
	reminders.Stop()
	if err := publisher.Close(); err != nil {
		logger.Errorw("error closing event publisher", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Errorw("error closing Redis", "error", err)
		}
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
