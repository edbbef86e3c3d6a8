package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"huanghe-analytics-api/internal/cache"
	"huanghe-analytics-api/internal/config"
	"huanghe-analytics-api/internal/handler"
	"huanghe-analytics-api/internal/middleware"
	"huanghe-analytics-api/internal/repository"
	"huanghe-analytics-api/internal/router"
	"huanghe-analytics-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting HuangHe Analytics API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize snapshot repository based on config
	var snapshotRepo repository.SnapshotRepository
	switch cfg.SnapshotDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresSnapshotRepository(cfg.SnapshotDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		snapshotRepo = pgRepo
		log.Println("PostgreSQL snapshot repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteSnapshotRepository(cfg.SnapshotDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		snapshotRepo = sqliteRepo
		log.Println("SQLite snapshot repository initialized")
	}

	// Initialize MySQL connection for projects and accounts (optional)
	var err error
	var mysqlDB *sql.DB
	var projectRepo *repository.MySQLProjectRepository
	var accountRepo *repository.MySQLAccountRepository

	mysqlDSN := cfg.Database.DSN()
	mysqlDB, err = sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			projectRepo = repository.NewMySQLProjectRepository(mysqlDB)
			accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
			log.Println("MySQL repositories initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisAddr := cfg.Cache.RedisAddress()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize Redis snapshot buffer
	var redisBuffer *cache.RedisSnapshotBuffer
	if redisClient != nil {
		bufferCfg := cache.RedisBufferConfig{
			Addr:          redisAddr,
			Password:      cfg.Cache.RedisPassword,
			DB:            cfg.Cache.RedisDB,
			FlushInterval: 30 * time.Second,
		}
		flushFunc := service.CreateFlushFunc(snapshotRepo)
		redisBuffer, err = cache.NewRedisSnapshotBuffer(bufferCfg, flushFunc)
		if err != nil {
			log.Printf("Warning: Redis buffer initialization failed: %v", err)
		} else {
			log.Println("Redis snapshot buffer initialized")
		}
	}

	// Initialize analysis result cache
	var resultCache cache.Cache
	if cfg.Cache.Type == "redis" && redisClient != nil {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     redisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis cache initialization failed, using memory: %v", err)
			resultCache = cache.NewMemoryCache()
		} else {
			resultCache = redisCache
			log.Println("Redis result cache initialized")
		}
	} else {
		resultCache = cache.NewMemoryCache()
		log.Println("Memory result cache initialized")
	}

	// Initialize services
	snapshotService := service.NewSnapshotService(snapshotRepo)
	if redisBuffer != nil {
		snapshotService.SetBuffer(redisBuffer)
	}

	// Start retention sweeper for old captures
	retention := service.NewRetentionSweeper(snapshotRepo, service.DefaultRetentionConfig())
	retention.Start()
	defer retention.Stop()

	var projectRepoIface repository.ProjectRepository
	if projectRepo != nil {
		projectRepoIface = projectRepo
	}
	analysisService := service.NewAnalysisService(projectRepoIface, snapshotRepo, resultCache, cfg.Analysis)
	snapshotService.SetInvalidator(analysisService.InvalidateProject)
	behaviorService := service.NewBehaviorService(snapshotRepo)

	var projectService *service.ProjectService
	if projectRepo != nil {
		projectService = service.NewProjectService(projectRepo)
	}

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Initialize handlers
	healthHandler := handler.New()
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	behaviorHandler := handler.NewBehaviorHandler(behaviorService)
	adminHandler := handler.NewAdminHandler(snapshotService, resultCache, cfg.SnapshotDB.Type, cfg.App.LoginKey)

	var projectHandler *handler.ProjectHandler
	if projectService != nil {
		projectHandler = handler.NewProjectHandler(projectService, snapshotService)
	}

	var authHandler *handler.AuthHandler
	if tokenService != nil && accountRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, accountRepo)
	}

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		ProjectHandler:  projectHandler,
		AnalysisHandler: analysisHandler,
		BehaviorHandler: behaviorHandler,
		AdminHandler:    adminHandler,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Close Redis buffer first (flushes pending snapshots)
	if redisBuffer != nil {
		log.Println("Closing Redis buffer...")
		redisBuffer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
