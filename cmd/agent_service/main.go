package main

import (
	"Vybe_AI/internal/agent"
	"Vybe_AI/internal/agentapi"
	"Vybe_AI/internal/config"
	"Vybe_AI/internal/database/kafka"
	"Vybe_AI/internal/database/milvus"
	"Vybe_AI/internal/database/mongo"
	"Vybe_AI/internal/database/redis"
	"Vybe_AI/internal/discovery/etcd"
	"Vybe_AI/internal/embedding"
	"Vybe_AI/internal/jobs"
	"Vybe_AI/internal/llm"
	"Vybe_AI/internal/memory"
	"Vybe_AI/internal/models"
	"Vybe_AI/pkg/logger"
	"Vybe_AI/pkg/ratelimiter"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	configPath := os.Getenv("VYBE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)

	serviceLogger := logger.New("AgentService", "", "")

	// LLM client for planning
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM client")
	}

	ctx := context.Background()

	// Long-term memory: embedding model + Milvus vector store. The engine
	// degrades to empty memory when the store is unavailable.
	var memStore memory.Store
	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to create embedding client, agent memory disabled")
	} else if milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to connect to Milvus, agent memory disabled")
	} else {
		store, err := memory.NewMilvusStore(ctx, milvusClient, embedder, cfg.Embedding.Dim, cfg.Agent.MemoryCollection)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to prepare memory collection, agent memory disabled")
		} else {
			memStore = store
			serviceLogger.Info("Agent memory store ready")
		}
	}

	// Redis status cache, best-effort
	var statusCache agent.StatusSink
	if redisClient, err := redis.GetClient(&cfg.Databases.Redis); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to connect to Redis, status cache disabled")
	} else {
		statusCache = redis.NewStatusCache(redisClient, time.Duration(cfg.Agent.StatusCacheTTL)*time.Second)
	}

	// Kafka event feed, best-effort
	var kafkaPublisher *kafka.EventPublisher
	if kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to connect to Kafka, event publishing disabled")
	} else {
		kafkaPublisher = kafka.NewEventPublisher(kafkaClient)
	}

	// MongoDB run records, best-effort. The same store backs terminal-run
	// persistence and the run-history API routes.
	var runRecorder agent.RunRecorder
	var runHistory mongo.RunStore
	if mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to connect to MongoDB, run records disabled")
	} else {
		db := mongoClient.Database(cfg.Databases.MongoDB.Database)
		store := mongo.NewMongoRunStore(db, cfg.Databases.MongoDB.RunCollection)
		runRecorder = store
		runHistory = store
	}

	// Sandboxed workspace for file tools
	workspace, err := agent.NewWorkspace(cfg.Agent.WorkspaceDir)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create agent workspace")
	}

	toolset := &agent.Toolset{
		Workspace:        workspace,
		Memory:           memStore,
		MemoryCollection: cfg.Agent.MemoryCollection,
	}

	// Background worker pool for agent executions
	pool := jobs.NewPool(cfg.Agent.Workers, cfg.Agent.Workers*4)

	// WebSocket hub + Kafka feed share the same event stream
	hub := agentapi.NewHub(serviceLogger)
	eventSinks := agent.MultiSink{hub}
	if kafkaPublisher != nil {
		eventSinks = append(eventSinks, kafkaPublisher)
	}

	manager := agent.NewManager(agent.Deps{
		LLM:              llmClient,
		Memory:           memStore,
		MemoryCollection: cfg.Agent.MemoryCollection,
		MemoryTopK:       cfg.Agent.MemoryTopK,
		Tools:            toolset,
		Runner:           pool,
		Events:           eventSinks,
		StatusCache:      statusCache,
		Runs:             runRecorder,
		ScanInterval:     time.Duration(cfg.Agent.ScanIntervalMillis) * time.Millisecond,
		Log:              serviceLogger,
	})

	manager.AddNotificationCallback(func(title, message, notificationType, refID string) {
		serviceLogger.WithPayload(map[string]interface{}{
			"title": title,
			"type":  notificationType,
			"ref":   refID,
		}).Info(message)
	})

	// Periodic cleanup of old terminal agents
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				removed := manager.CleanupCompletedAgents(cfg.Agent.CleanupMaxAgeHours)
				if removed > 0 {
					serviceLogger.WithPayload(map[string]interface{}{"removed": removed}).Info("Cleaned up old agents")
				}
			}
		}
	}()

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler := agentapi.NewAPI(manager, hub, runHistory, serviceLogger)

	var limiter ratelimiter.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Capacity)
	}
	agentapi.RegisterRoutes(router, apiHandler, limiter)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Register in etcd so other desktop components can discover the service
	var stopRegister chan<- struct{}
	var discovery *etcd.ServiceDiscovery
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		discovery, err = etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to connect to etcd, service registration disabled")
		} else {
			stopRegister, err = discovery.Register("agent_service", cfg.Server.Address, 10)
			if err != nil {
				serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to register service in etcd")
			}
		}
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	cleanupCancel()
	if stopRegister != nil {
		close(stopRegister)
	}
	if discovery != nil {
		if err := discovery.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing etcd client")
		}
	}

	pool.Stop()

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
		}
	}
	if err := redis.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis connection")
	}
	if err := mongo.Close(context.Background()); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
	}

	serviceLogger.Info("Server gracefully stopped")
}
