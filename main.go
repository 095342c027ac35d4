package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"oracle/pkg/database"
	"oracle/pkg/logger"
	"oracle/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "oracle"

func main() {
	cfg := LoadConfig()
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database", "error", err)
	}

	// `./oracle migrate` runs AutoMigrate and exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := database.Migrate(db, log); err != nil {
			log.Fatal("migration failed", "error", err)
		}
		fmt.Println("migration completed")
		return
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db, log); err != nil {
			log.Warn("auto migrate incomplete", "error", err)
		}
	}

	ctx := context.Background()
	shutdown := tracing.Init(ctx, log, serviceName, cfg.OtelTraces)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	s, err := newServer(ctx, cfg, log, db)
	if err != nil {
		log.Fatal("server setup", "error", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("content store close", "error", err)
		}
	}()
	if s.oauth == nil {
		log.Info("google sign-in disabled (GOOGLE_CLIENT_ID not set)")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestLogger(log), corsMiddleware(cfg.CORSOrigins))
	setupRoutes(r, s)

	log.Info("listening", "port", cfg.Port, "storage", cfg.StorageMode, "forecast", cfg.ForecastMode)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
