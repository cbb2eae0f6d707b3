package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecol-app/ecol/internal/config"
	"github.com/ecol-app/ecol/internal/db"
	"github.com/ecol-app/ecol/internal/imagestore/local"
	"github.com/ecol-app/ecol/internal/logging"
	"github.com/ecol-app/ecol/internal/service"
	"github.com/ecol-app/ecol/internal/store"
	"github.com/ecol-app/ecol/internal/web"
	"github.com/ecol-app/ecol/internal/web/templates"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Printf("failed to initialize logger: %v", err)
		return err
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	images, err := local.New(cfg.UploadPath)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return err
	}

	pointService := service.NewPointService(
		store.NewPointStore(database),
		store.NewItemStore(database),
		images,
		cfg.DefaultImage,
		logger,
	)
	server := web.NewServer(pointService, templates.FS, images, web.Options{
		PublicURL:  cfg.PublicURL,
		CORSOrigin: cfg.CORSOrigin,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
