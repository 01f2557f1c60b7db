package main // Entry point package

import (
	"context" // context for the fire-and-forget event publisher
	"log"     // Logging library
	"time"    // session TTL conversion

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/readory/readory/internal/config"     // Internal config loader
	"github.com/readory/readory/internal/database"   // MySQL connection helper
	"github.com/readory/readory/internal/handler"    // HTTP handlers
	"github.com/readory/readory/internal/middleware" // rate limiting
	"github.com/readory/readory/internal/model"      // domain records
	"github.com/readory/readory/internal/queue"      // message event consumer
	"github.com/readory/readory/internal/realtime"   // websocket gateway
	"github.com/readory/readory/internal/repository" // data access layer
	"github.com/readory/readory/internal/router"     // route registration
	queue_publisher "github.com/readory/readory/internal/service" // event publisher
	"github.com/readory/readory/internal/session"    // session stores
)

func main() {
	_ = godotenv.Load() // load .env when present; real env always wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	groups := repository.NewGroupRepo(db)
	messages := repository.NewMessageRepo(db)

	// Redis is optional: without it sessions stay in process memory and the
	// rate limiter is disabled.
	rdb := config.NewRedisClient()
	var sessions session.Store
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, time.Duration(cfg.SessionTTLHrs)*time.Hour)
		log.Printf("sessions: redis store")
	} else {
		sessions = session.NewMemoryStore()
		log.Printf("sessions: in-memory store (no redis)")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	hub := realtime.NewHub()
	gw := realtime.NewGateway(cfg.JWTSecret, groups, messages, hub)
	gw.Publish = func(ctx context.Context, m model.Message) {
		ev := queue.MessageCreatedEvent{
			MessageID: m.ID,
			GroupID:   m.GroupID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		}
		// Fire and forget; a broker outage never blocks the broadcast.
		go func() { _ = queue_publisher.PublishMessageCreated(context.Background(), ev) }()
	}

	// Background consumer writing the message audit log.
	go func() {
		if err := queue.StartMessageConsumer(); err != nil {
			log.Printf("message-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limiter)
	router.RegisterSession(e, handler.NewSessionHandler(cfg, sessions), handler.NewGroupHandler(groups, messages), cfg.JWTSecret, limiter)
	router.RegisterRealtime(e, gw)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
