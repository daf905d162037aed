package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"athletichub/internal/auth"
	"athletichub/internal/booking"
	"athletichub/internal/booking/booking_api"
	bookingredis "athletichub/internal/booking/redis"
	"athletichub/internal/config"
	"athletichub/internal/database/migrations"
	"athletichub/internal/events"
	event_db "athletichub/internal/events/db"
	"athletichub/internal/events/event_api"
	"athletichub/internal/kafka"
	"athletichub/internal/logger"
	"athletichub/internal/notify"
	"athletichub/internal/subscribers"
	subscriber_db "athletichub/internal/subscribers/db"
	"athletichub/internal/subscribers/subscriber_api"
	"athletichub/internal/tickets"
	ticket_db "athletichub/internal/tickets/db"
	"athletichub/internal/tickets/qr"
	"athletichub/internal/tickets/ticket_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, booking events and notifications will not be published")
	}

	if cfg.Booking.QRSecret == "" {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, using an empty secret")
	}
	qrGenerator := qr.NewGenerator(cfg.Booking.QRSecret)

	eventDB := &event_db.DB{Bun: bunDB}
	ticketDB := &ticket_db.DB{Bun: bunDB}
	subscriberDB := &subscriber_db.DB{Bun: bunDB}

	ticketService := tickets.NewTicketService(ticketDB, qrGenerator, log)
	subscriberService := subscribers.NewSubscriberService(subscriberDB)

	var dispatcherPublisher notify.Publisher
	var bookingPublisher booking.Publisher
	if kafkaProducer != nil {
		dispatcherPublisher = kafkaProducer
		bookingPublisher = kafkaProducer
	}
	dispatcher := notify.NewDispatcher(dispatcherPublisher, log)

	eventService := events.NewEventService(eventDB, subscriberService, dispatcher, log)

	bookingLock := bookingredis.NewLock(redisClient, cfg.Booking.LockTTL, log)
	bookingEngine := booking.NewService(eventDB, ticketService, bookingLock, bookingPublisher, log, cfg.Booking.StoreTimeout)

	verifier := auth.NewVerifier()

	eventHandler := event_api.NewHandler(eventService, verifier, log)
	bookingHandler := booking_api.NewHandler(bookingEngine, verifier, log)
	ticketHandler := ticket_api.NewHandler(ticketService, log)
	subscriberHandler := subscriber_api.NewHandler(subscriberService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/events", eventHandler.ListEvents)
	r.Get("/api/events/{id}", eventHandler.GetEvent)
	r.Post("/api/subscribers", subscriberHandler.Subscribe)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		if cfg.Auth.Disabled {
			log.Warn("AUTH", "OIDC middleware disabled, relying on bearer email claim checks only")
		} else {
			r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))
			log.Info("AUTH", "OIDC middleware applied to protected API routes")
		}

		r.Post("/api/events", eventHandler.CreateEvent)
		r.Post("/api/events/{id}/participants", bookingHandler.BookParticipant)
		r.Delete("/api/events/{id}/participants", bookingHandler.CancelParticipant)
		r.Get("/api/events/{id}/tickets", bookingHandler.GetTicket)
		r.Get("/api/tickets/{ticketID}", ticketHandler.ViewTicket)
		r.Post("/api/tickets/verify", ticketHandler.VerifyTicket)
	})
	log.Info("ROUTER", "Event, booking, ticket and subscriber routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Booking Service shutdown complete")
	}
}
