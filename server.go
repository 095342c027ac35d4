package main

import (
	"context"
	"fmt"
	"io"

	"oracle/pkg/forecast"
	"oracle/pkg/logger"
	"oracle/pkg/store"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// server carries everything a handler needs. It is built once in main.
type server struct {
	cfg      Config
	log      *logger.Logger
	db       *gorm.DB
	auth     *authService
	store    store.Store
	pipeline *forecast.Pipeline

	oauth         *oauth2.Config // nil when google sign-in is not configured
	googleProfile profileFetcher
}

func newServer(ctx context.Context, cfg Config, log *logger.Logger, db *gorm.DB) (*server, error) {
	st, err := store.New(ctx, store.Config{
		Mode:   cfg.StorageMode,
		Dir:    cfg.UploadDir,
		Bucket: cfg.GCSBucket,
		Prefix: cfg.GCSPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("content store: %w", err)
	}
	model, err := forecast.NewForecaster(forecast.Config{
		Mode:    cfg.ForecastMode,
		URL:     cfg.ForecastURL,
		Timeout: cfg.ForecastTimeout,
	})
	if err != nil {
		_ = closeStore(st)
		return nil, fmt.Errorf("forecaster: %w", err)
	}
	return &server{
		cfg:           cfg,
		log:           log,
		db:            db,
		auth:          newAuthService(db, cfg.JWTSecret, cfg.TokenTTL),
		store:         st,
		pipeline:      forecast.NewPipeline(model),
		oauth:         newGoogleOAuthConfig(cfg),
		googleProfile: fetchGoogleProfile,
	}, nil
}

// Close releases the content store's client when the backend holds one (GCS).
func (s *server) Close() error {
	return closeStore(s.store)
}

func closeStore(st store.Store) error {
	if c, ok := st.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
