package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/config"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/db"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/httpapi"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/logger"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/store/rabbitmq"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/store/redisstore"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Init(cfg.LogPath); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb := db.Connect(cfg.DBDSN)
	if err := db.AutoMigrate(gdb); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	var cache hubspot.TokenCache
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rds.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, token caching disabled", zap.Error(err))
	} else {
		cache = rds
	}
	cancel()

	var events audit.EventPublisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		logger.Warn("rabbitmq unavailable, audit events disabled", zap.Error(err))
	} else {
		events = pub
		defer func() { _ = pub.Close() }()
	}

	r := httpapi.NewRouter(gdb, cfg, cache, events)

	logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
