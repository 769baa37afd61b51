package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"thermlink/internal/api"
	"thermlink/internal/config"
	"thermlink/internal/importer"
	"thermlink/internal/postgres"
	"thermlink/internal/reconcile"
	"thermlink/internal/redis"
	"thermlink/internal/service/imports"
	"thermlink/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	setupLogging()

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	initializeDatabaseAndCache(cfg)
	defer closeConnections()

	importService := initializeServices(cfg)

	stopWorkers := worker.StartAllWorkers(importService)
	setupSignalHandler(stopWorkers)

	reportMemoryStats()

	runAPIServer(cfg, importService)
}

func setupLogging() {
	// Set up logging to file and terminal
	logFile, err := os.OpenFile("thermlink.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	// The file stays open for the lifetime of the process

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

func initializeDatabaseAndCache(cfg config.Config) {
	// Initialize PostgreSQL
	if cfg.DBUrl != "" {
		postgres.Init(cfg.DBUrl)
	} else {
		log.Println("DB_URL is not set, imports are kept in memory only")
	}

	// Initialize Redis
	if cfg.RedisUrl != "" {
		redis.Init(cfg.RedisUrl)
	} else {
		log.Println("REDIS_URL is not set, import cache disabled")
	}
}

func initializeServices(cfg config.Config) *imports.ImportService {
	policy, err := reconcile.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		log.Fatalf("Invalid FAILURE_POLICY: %v", err)
	}

	env := importer.ConfigEnvironment{Config: cfg}
	if _, err := env.Query(); err != nil {
		log.Fatalf("Invalid scene configuration: %v", err)
	}

	return imports.NewImportService(importer.New(env, policy), imports.Settings{
		UnitSystem:    cfg.UnitSystem,
		Tolerance:     cfg.Tolerance,
		Origin:        cfg.ReferenceOrigin,
		FailurePolicy: policy,
		CacheTTL:      cfg.CacheTTL,
	})
}

func runAPIServer(cfg config.Config, importService *imports.ImportService) {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	config := map[string]string{
		"port":       cfg.Port,
		"unitSystem": cfg.UnitSystem,
		"tolerance":  strconv.FormatFloat(cfg.Tolerance, 'g', -1, 64),
	}
	api.SetupRouter(r, config, importService)

	// Start the server
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}

func reportMemoryStats() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		}
	}()
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("PostgreSQL and Redis connections closed successfully")
}

func setupSignalHandler(stopWorkers func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, flushing imports and closing connections...")
		stopWorkers()
		closeConnections()
		os.Exit(0)
	}()
}
