package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pronet/realtime/pkg/auth"
	"github.com/pronet/realtime/pkg/config"
	"github.com/pronet/realtime/pkg/db"
	"github.com/pronet/realtime/pkg/delivery"
	"github.com/pronet/realtime/pkg/notify"
	"github.com/pronet/realtime/pkg/presence"
	"github.com/pronet/realtime/pkg/registry"
	"github.com/pronet/realtime/pkg/store"
	"github.com/pronet/realtime/pkg/typing"
)

func main() {
	f, err := os.OpenFile("gateway.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
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

	// Node ID must be unique per gateway instance
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		log.Fatalf("Failed to initialize snowflake node: %v", err)
	}

	st := store.New(session, node)
	reg := registry.NewRegistry()
	tracker := presence.NewTracker(reg, st, presence.NewRedisMirror(rdb))
	typingTracker := typing.NewTracker(reg, cfg.TypingTTL)
	deliverySvc := delivery.NewService(reg, st, st, store.NewUnreadCounters(rdb))
	fanout := notify.NewFanout(st, reg)

	server := NewServer(reg, tracker, typingTracker, deliverySvc, st, cfg.SendBuffer)

	consumer := NewDomainEventConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, fanout)
	defer consumer.Close()
	go consumer.Consume(context.Background())

	tokens := auth.NewManager(cfg.JWTSecret)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(server, tokens, w, r)
	})

	log.Printf("Gateway Service Starting on :%s...", cfg.GatewayPort)
	if err := http.ListenAndServe(":"+cfg.GatewayPort, nil); err != nil {
		log.Fatal(err)
	}
}
