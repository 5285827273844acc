package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"Sarah_AI/internal/config"
	"Sarah_AI/internal/database/kafka"
	"Sarah_AI/internal/database/milvus"
	"Sarah_AI/internal/database/mysql"
	redisdb "Sarah_AI/internal/database/redis"
	"Sarah_AI/internal/discovery/etcd"
	"Sarah_AI/internal/embedding"
	"Sarah_AI/internal/llm"
	"Sarah_AI/internal/memory/api"
	"Sarah_AI/internal/memory/consumer"
	"Sarah_AI/internal/memory/extractor"
	"Sarah_AI/internal/memory/service"
	"Sarah_AI/internal/memory/store"
	"Sarah_AI/pkg/logger"
)

const serviceName = "memory_service"

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New(serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backing stores.
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()

	redisClient, err := redisdb.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer redisdb.Close()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()

	// Telemetry is optional; the pipeline runs the same without it.
	var events *kafka.EventPublisher
	if cfg.Databases.Kafka.Enabled {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer kafkaClient.Close()
		events = kafka.NewEventPublisher(kafkaClient)
	}

	// Model clients.
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	llmClient, err := llm.NewClient(&cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Stores and services.
	factStore, err := store.NewGormFactStore(db)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	vectorStore, err := store.NewMilvusVectorStore(ctx, milvusClient, cfg.Memory.MaxTextLength)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	factExtractor := extractor.NewLlmExtractor(llmClient, appLogger)
	memoryService := service.NewMemoryService(
		factExtractor, factStore, vectorStore, embedder, events, appLogger,
		time.Duration(cfg.Memory.ExtractionTimeout)*time.Second,
		time.Duration(cfg.Memory.EmbeddingTimeout)*time.Second,
	)
	retrievalService := service.NewRetrievalService(factStore, vectorStore, embedder, appLogger)

	// Ingestion consumer.
	turnConsumer := consumer.NewTurnConsumer(
		redisClient, memoryService, appLogger,
		cfg.Memory.TurnChannel,
		time.Duration(cfg.Memory.ConsumerBackoff)*time.Second,
	)
	go turnConsumer.Start(ctx)

	// Service registration.
	if cfg.Etcd.Enabled {
		registry, err := etcd.NewRegistry(cfg.Etcd.Endpoints)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer registry.Close()
		stop, err := registry.Register(ctx, serviceName, cfg.Server.Address, cfg.Etcd.TTL)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer close(stop)
	}

	// HTTP API.
	checks := map[string]api.HealthCheck{
		"mysql":  mysql.HealthCheck,
		"redis":  redisdb.HealthCheck,
		"milvus": milvusClient.HealthCheck,
		"model": func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			// A timestamped probe text so the embedding cache cannot
			// answer for a model that is actually down.
			_, err := embedder.Embed(ctx, "healthcheck "+time.Now().Format(time.RFC3339Nano))
			return err
		},
	}
	handler := api.NewHandler(memoryService, retrievalService, checks, appLogger)
	router := api.SetupRouter(handler, cfg.Server.RateLimit, cfg.Server.RateLimitBurst)

	go func() {
		appLogger.Info(fmt.Sprintf("memory service listening on %s", cfg.Server.Address))
		if err := router.Run(cfg.Server.Address); err != nil {
			appLogger.Fatal(err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down memory service")
	cancel()
}
