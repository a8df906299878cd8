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
	"github.com/rs/zerolog"

	"github.com/edumesh/campus-api/internal/config"
	"github.com/edumesh/campus-api/internal/database"
	"github.com/edumesh/campus-api/internal/handler"
	"github.com/edumesh/campus-api/internal/middleware"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/repository"
	"github.com/edumesh/campus-api/internal/router"
	"github.com/edumesh/campus-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ChatRoom{}, &models.RoomMember{}, &models.ChatMessage{}, &models.Reminder{}, &models.DeviceToken{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node fan-out and push delivery disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	chatRepo := repository.NewChatRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)

	presence := realtime.NewPresence()
	registry := realtime.NewRegistry(presence, logger)
	rooms := realtime.NewRooms()
	engine := realtime.NewEngine(registry, rooms, logger)

	chatService := service.NewChatService(chatRepo, roomRepo, registry, rooms, presence, engine, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	roomService := service.NewRoomService(roomRepo, validate, logger)
	reminderService := service.NewReminderService(reminderRepo, validate, logger)
	deviceService := service.NewDeviceService(deviceTokenRepo, validate, logger)
	deliverer := service.NewNATSDeliverer(natsConn, cfg.ChannelBase, deviceTokenRepo, logger)
	scheduler := service.NewReminderScheduler(reminderRepo, deliverer, logger)

	chatHandler := handler.NewChatHandler(chatService, validate, logger)
	roomHandler := handler.NewRoomHandler(roomService, validate, logger)
	reminderHandler := handler.NewReminderHandler(reminderService, scheduler, validate, logger)
	deviceHandler := handler.NewDeviceHandler(deviceService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ChatHandler:     chatHandler,
		RoomHandler:     roomHandler,
		ReminderHandler: reminderHandler,
		DeviceHandler:   deviceHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		DB:              db,
		Redis:           redisClient,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatService.Start(ctx)
	scheduler.Start(cfg.SchedulerInterval)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, scheduler, cancel)
}

func waitForShutdown(app *fiber.App, scheduler service.ReminderScheduler, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	scheduler.Stop()
	cancel()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
