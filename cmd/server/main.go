package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demand-service/config"
	"demand-service/internal/api"
	"demand-service/internal/broker"
	"demand-service/internal/models"
	"demand-service/internal/redisclient"
	"demand-service/internal/service"
	"demand-service/internal/store"
	"demand-service/internal/util"
	"demand-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting demand service")

	tp, err := util.InitTracer("demand-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicVotes)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	loader := service.NewLoader(db, cfg.Catalog.ChunkSize, cfg.Catalog.MaxRows)
	viewBuilder := service.NewViewBuilder(cfg.Catalog.PopularCap)
	debounceDelay := time.Duration(cfg.Catalog.SearchDebounceMS) * time.Millisecond

	registry := service.NewSessionRegistry(func(voterID string) *service.Session {
		coordinator := service.NewCoordinator(voterID, loader, db, redisClient, eventPublisher)
		return service.NewSession(coordinator, viewBuilder, cfg.Catalog.PageSize, debounceDelay)
	})

	ctx := context.Background()
	if err := syncVoteCounts(ctx, loader, redisClient); err != nil {
		log.Printf("Failed to sync vote counts to Redis: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	voteConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicVotes, cfg.Kafka.ConsumerGroup)
	voteWorker := worker.NewVoteWorker(voteConsumer, registry)
	go func() {
		if err := voteWorker.Start(workerCtx); err != nil {
			log.Printf("Vote worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(registry, db, redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	voteWorker.Stop()

	log.Println("Server exited")
}

// syncVoteCounts seeds the Redis counters from the authoritative read view
func syncVoteCounts(ctx context.Context, loader *service.Loader, redisClient *redisclient.Client) error {
	views, err := loader.LoadViews(ctx, models.OrderByVoteCount)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(views))
	for i := range views {
		if views[i].VoteCount > 0 {
			counts[views[i].ID] = views[i].VoteCount
		}
	}
	if len(counts) == 0 {
		return nil
	}

	if err := redisClient.SyncVoteCounts(ctx, counts); err != nil {
		return err
	}

	log.Printf("Synced %d vote counters to Redis", len(counts))
	return nil
}
