package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"photobooth/internal/archive"
	"photobooth/internal/compose"
	"photobooth/internal/genai"
	httpapi "photobooth/internal/http"
	"photobooth/internal/http/handlers"
	"photobooth/internal/infra"
	"photobooth/internal/pipeline"
	"photobooth/internal/settings"
	"photobooth/internal/share"
	"photobooth/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := settings.NewStore(cfg.SettingsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open settings store")
	}

	photos, err := storage.NewPhotoStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open photo store")
	}

	generator := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.GenerateTimeout},
		Logger:     logger,
	})

	archiveClient := archive.NewClient(archive.Options{
		Endpoint:   cfg.ArchiveEndpoint,
		HTTPClient: &http.Client{Timeout: cfg.UploadTimeout},
		Logger:     logger,
	})
	if !archiveClient.Configured() {
		logger.Warn().Msg("archive endpoint not configured; photos stay local and QR sharing is disabled")
	}

	booth := pipeline.New(pipeline.Options{
		Generator: generator,
		Overlays:  compose.NewOverlayLoader(&http.Client{Timeout: cfg.OverlayTimeout}),
		Archive:   archiveClient,
		Local:     photos,
		Logger:    logger,
	})

	app := &handlers.App{
		Settings:        store,
		Runner:          booth,
		Gallery:         archiveClient,
		QR:              share.NewQRBuilder(cfg.QRServiceURL),
		Logger:          logger,
		GenerateTimeout: cfg.GenerateTimeout,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       photos.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("photobooth API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
