package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/distlock"
	"github.com/ignite/adpilot/internal/repository/postgres"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/service/optimization"
	"github.com/ignite/adpilot/internal/shopify"
	"github.com/ignite/adpilot/internal/worker"
)

func main() {
	log.Println("Starting AdPilot optimization worker")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Optimization.Enabled {
		log.Println("Optimization disabled in config, exiting")
		return
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, falling back to advisory locks: %v", err)
			redisClient = nil
		} else {
			log.Println("Connected to redis")
			defer redisClient.Close()
		}
	}

	campaignRepo := postgres.NewCampaignRepo(db)
	ruleRepo := postgres.NewRuleRepo(db)
	logRepo := postgres.NewOptimizationLogRepo(db)
	credRepo := postgres.NewCredentialRepo(db)

	graph := meta.NewClient(meta.Config{
		BaseURL:    cfg.Meta.BaseURL,
		APIVersion: cfg.Meta.APIVersion,
		MaxRetries: cfg.Meta.MaxRetries,
	})
	orders := shopify.NewClient(shopify.Config{
		APIVersion:     cfg.Shopify.APIVersion,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	})

	insightsService := insights.NewService(graph, orders)
	engine := optimization.NewEngine(campaignRepo, ruleRepo, logRepo, graph, insightsService)

	locks := func(shop string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, "optimizer:"+shop, 10*time.Minute)
	}

	optimizer := worker.NewOptimizer(engine, credRepo, locks, cfg.Optimization.Interval())
	optimizer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")
	optimizer.Stop()
	log.Println("Worker stopped")
}
