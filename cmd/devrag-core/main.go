package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/devrag-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/devrag-core/internal/adapters/driven/cortex"
	"github.com/custodia-labs/devrag-core/internal/adapters/driven/postgres"
	redisqueue "github.com/custodia-labs/devrag-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/devrag-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/devrag-core/internal/adapters/driven/sources"
	"github.com/custodia-labs/devrag-core/internal/adapters/driving/http"
	"github.com/custodia-labs/devrag-core/internal/config"
	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driving"
	"github.com/custodia-labs/devrag-core/internal/core/services"
	"github.com/custodia-labs/devrag-core/internal/crawler"
	"github.com/custodia-labs/devrag-core/internal/worker"
)

var version = "dev"

func main() {
	// Local development convenience; absent .env is fine
	_ = godotenv.Load()

	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("devrag-core %s starting in %s mode", version, mode)

	// Configuration from environment
	port := getEnvInt("PORT", 8080)
	cortexURL := getEnv("CORTEX_URL", "http://localhost:8200")
	redisURL := getEnv("REDIS_URL", "")
	databaseURL := getEnv("DATABASE_URL", "")
	crawlPolicyPath := getEnv("CRAWL_POLICY_FILE", "crawl.yaml")

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if redisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Initialize PostgreSQL (optional, memory fallback) =====
	var db *postgres.DB
	if databaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		dbConfig := postgres.Config{
			URL:             databaseURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,
		}
		var err error
		db, err = postgres.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	}

	if redisClient == nil && db == nil {
		log.Fatal("Set REDIS_URL or DATABASE_URL: conversation memory needs a backend")
	}

	// ===== Initialize Cortex =====
	log.Println("Connecting to Cortex...")
	searchIndex := cortex.NewSearchIndex(cortex.DefaultConfig(cortexURL))
	if err := searchIndex.HealthCheck(ctx); err != nil {
		log.Printf("Warning: Cortex health check failed: %v (retrieval may not work)", err)
	} else {
		log.Println("Cortex connected")
	}

	// ===== Generator =====
	generator, err := ai.NewGenerator(ai.Config{
		BaseURL: getEnv("LLM_BASE_URL", "https://api.mistral.ai/v1"),
		APIKey:  getEnv("LLM_API_KEY", ""),
		Model:   getEnv("LLM_MODEL", "mistral-small-latest"),
	})
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	// ===== Memory store and lock (Redis if available, otherwise PostgreSQL) =====
	var memoryStore driven.MemoryStore
	var tenantLock driven.TenantLock
	if redisClient != nil {
		memoryStore = redisadapter.NewMemoryStore(redisClient)
		tenantLock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis memory store")
	} else {
		memoryStore = postgres.NewMemoryStore(db)
		tenantLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL memory store")
	}

	// ===== Task queue (Redis only; synchronous ingestion without it) =====
	var taskQueue driven.TaskQueue
	if redisClient != nil {
		taskQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create task queue: %v", err)
		}
		log.Println("Using Redis task queue")
	} else {
		log.Println("No Redis: async ingestion disabled, requests run in-process")
	}

	// ===== Crawler =====
	crawlConfig, err := config.LoadCrawlPolicy(crawlPolicyPath)
	if err != nil {
		log.Fatalf("Failed to load crawl policy: %v", err)
	}
	webCrawler := crawler.New(crawlConfig, slog.Default())

	// ===== Services =====
	ingestionService, err := services.NewIngestionService(services.IngestionConfig{
		Index:   searchIndex,
		Crawler: webCrawler,
		Sources: map[domain.SourceKind]driven.TextSource{
			domain.SourceKindGithub: sources.NewGithubSource(),
			domain.SourceKindPDF:    sources.NewRawTextSource(),
		},
		Queue:            taskQueue,
		WriteConcurrency: getEnvInt("INGEST_WRITE_CONCURRENCY", 8),
		Logger:           slog.Default(),
	})
	if err != nil {
		log.Fatalf("Failed to create ingestion service: %v", err)
	}
	defer ingestionService.Close()

	retrievalService := services.NewRetrievalService(searchIndex, slog.Default())
	memoryService := services.NewMemoryService(memoryStore, generator, tenantLock, slog.Default())
	chatService := services.NewChatService(retrievalService, memoryService, generator, slog.Default())

	switch mode {
	case "api":
		runAPI(port, ingestionService, retrievalService, memoryService, chatService, searchIndex, memoryStore)

	case "worker":
		if taskQueue == nil {
			log.Fatal("Worker mode requires REDIS_URL")
		}
		runWorkerMode(ctx, taskQueue, ingestionService)

	case "all":
		if taskQueue != nil {
			go runWorkerMode(ctx, taskQueue, ingestionService)
		}
		runAPI(port, ingestionService, retrievalService, memoryService, chatService, searchIndex, memoryStore)

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}
}

func runAPI(
	port int,
	ingestionService driving.IngestionService,
	retrievalService driving.RetrievalService,
	memoryService driving.MemoryService,
	chatService driving.ChatService,
	index http.HealthChecker,
	memory http.Pinger,
) {
	cfg := http.Config{
		Host:    "0.0.0.0",
		Port:    port,
		Version: version,
	}

	server := http.NewServer(cfg, ingestionService, retrievalService, memoryService, chatService, index, memory)

	log.Printf("API server starting on :%d", port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorkerMode starts the background ingestion worker.
func runWorkerMode(ctx context.Context, taskQueue driven.TaskQueue, ingestionService driving.IngestionService) {
	log.Println("Starting worker mode...")

	w := worker.New(worker.Config{
		TaskQueue:      taskQueue,
		Ingestion:      ingestionService,
		Logger:         slog.Default(),
		Concurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		DequeueTimeout: getEnvInt("WORKER_DEQUEUE_TIMEOUT", 5),
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing ingestion tasks...")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
