package main

import (
	"log"
	"net/http"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/pronet/realtime/pkg/auth"
	"github.com/pronet/realtime/pkg/config"
	"github.com/pronet/realtime/pkg/db"
	"github.com/pronet/realtime/pkg/presence"
	"github.com/pronet/realtime/pkg/store"
)

// API bundles the collaborators the HTTP handlers need.
type API struct {
	store    *store.Store
	unread   *store.UnreadCounters
	mirror   *presence.RedisMirror
	tokens   *auth.Manager
	producer *kafka.Writer
	validate *validator.Validate
}

func main() {
	f, err := os.OpenFile("api.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	defer f.Close()
	log.SetOutput(f)

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	session, err := db.NewSession(cfg.ScyllaHosts, cfg.Keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	nodeID := int64(2) // distinct from the gateway's node
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		log.Fatalf("Failed to initialize snowflake node: %v", err)
	}

	producer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer producer.Close()

	api := &API{
		store:    store.New(session, node),
		unread:   store.NewUnreadCounters(rdb),
		mirror:   presence.NewRedisMirror(rdb),
		tokens:   auth.NewManager(cfg.JWTSecret),
		producer: producer,
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(CORSMiddleware)

	r.Post("/login", api.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(api.AuthMiddleware)

		r.Post("/conversations", api.CreateConversation)
		r.Get("/conversations", api.ListConversations)
		r.Post("/conversations/{id}/read", api.MarkConversationRead)
		r.Get("/conversations/{id}/messages", api.ListMessages)

		r.Get("/notifications", api.ListNotifications)
		r.Post("/notifications/{id}/read", api.MarkNotificationRead)

		r.Get("/presence/online", api.OnlineUsers)

		r.Post("/internal/events", api.IngestDomainEvent)
	})

	log.Printf("API Service Starting on :%s...", cfg.APIPort)
	if err := http.ListenAndServe(":"+cfg.APIPort, r); err != nil {
		log.Fatal(err)
	}
}
