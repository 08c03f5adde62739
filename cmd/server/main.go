package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/adpilot/internal/api"
	"github.com/ignite/adpilot/internal/auth"
	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/repository/postgres"
	"github.com/ignite/adpilot/internal/service/campaign"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/service/optimization"
	"github.com/ignite/adpilot/internal/shopify"
	"github.com/ignite/adpilot/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Starting AdPilot API server")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Database
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

	// Redis is optional; only the background optimizer locks through it.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, continuing without it", "error", err.Error())
			redisClient = nil
		} else {
			log.Println("Connected to redis")
		}
		defer func() {
			if redisClient != nil {
				redisClient.Close()
			}
		}()
	}

	// Repositories
	campaignRepo := postgres.NewCampaignRepo(db)
	ruleRepo := postgres.NewRuleRepo(db)
	logRepo := postgres.NewOptimizationLogRepo(db)
	accountRepo := postgres.NewAdAccountRepo(db)
	credRepo := postgres.NewCredentialRepo(db)

	// Media storage
	ctx := context.Background()
	mediaStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}
	localMedia, _ := mediaStore.(*storage.LocalMediaStore)

	// Platform clients
	graph := meta.NewClient(meta.Config{
		BaseURL:    cfg.Meta.BaseURL,
		APIVersion: cfg.Meta.APIVersion,
		MaxRetries: cfg.Meta.MaxRetries,
	})
	orders := shopify.NewClient(shopify.Config{
		APIVersion:     cfg.Shopify.APIVersion,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
	})

	// Services
	campaignService := campaign.NewService(campaignRepo, graph, mediaStore)
	insightsService := insights.NewService(graph, orders)
	engine := optimization.NewEngine(campaignRepo, ruleRepo, logRepo, graph, insightsService)

	// OAuth connect flow. New shops get the default rule set on connect.
	baseURL := cfg.Server.PublicURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", host, port)
	}
	oauth := auth.NewManager(&cfg.Meta, credRepo, baseURL)
	oauth.OnConnected = func(ctx context.Context, shop string) {
		if err := ruleRepo.SeedDefaults(ctx, shop); err != nil {
			logger.Error("failed to seed default rules", "shop", shop, "error", err.Error())
		}
	}

	handlers := api.NewHandlers(
		campaignService,
		insightsService,
		engine,
		ruleRepo,
		logRepo,
		credRepo,
		accountRepo,
		graph,
		mediaStore,
	)

	server := api.NewServer(cfg.Server, handlers, api.RouteOptions{
		OAuth:      oauth,
		LocalMedia: localMedia,
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	go func() {
		log.Printf("API server listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
