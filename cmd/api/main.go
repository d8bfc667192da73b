package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aidosk/fileharbor/internal/auth"
	"github.com/aidosk/fileharbor/internal/config"
	"github.com/aidosk/fileharbor/internal/file"
	"github.com/aidosk/fileharbor/internal/logger"
	"github.com/aidosk/fileharbor/internal/server"
	"github.com/aidosk/fileharbor/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init()
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx, cfg.Postgres); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.S3)
	if err != nil {
		logg.Fatal("connect object storage", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.S3.Bucket, cfg.S3.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth, logg)

	fileRepo := file.NewRepository(dbPool)
	gateway := file.NewGateway(minioClient, cfg.S3.Bucket)
	fileService := file.NewService(fileRepo, gateway, http.DefaultClient, cfg.S3.PresignTTL, logg)

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		Logger:      logg,
		DB:          dbPool,
		ObjectStore: minioClient,
		AuthService: authService,
		FileService: fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("FileHarbor API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", zap.Error(err))
	}
}
