package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"shelfsync/internal/config"
	"shelfsync/internal/server"
	"shelfsync/internal/util"
	"shelfsync/pkg/library"
	"shelfsync/pkg/session"
	"shelfsync/pkg/storage"
	"shelfsync/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session ttl: %v", err)
	}

	records, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init record store: %v", err)
	}
	blobs, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}

	lib, err := library.New(library.Config{
		Records: records,
		Blobs:   blobs,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to init library: %v", err)
	}

	var tokens session.TokenStore
	switch cfg.SessionBackend {
	case "redis":
		tokens = session.NewRedisTokenStore(cfg.RedisAddr, cfg.RedisPassword, sessionTTL)
	case "jwt":
		tokens, err = session.NewJWTTokenStore(cfg.SessionSecret, sessionTTL)
		if err != nil {
			log.Fatalf("failed to init jwt token store: %v", err)
		}
	default:
		tokens = session.NewMemoryTokenStore(sessionTTL)
	}
	sessions, err := session.NewService(records, tokens, lib.Forget)
	if err != nil {
		log.Fatalf("failed to init session service: %v", err)
	}

	httpServer, err := server.New(server.Config{
		Library:        lib,
		Sessions:       sessions,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("shelfsync server listening", "addr", addr, "sessionBackend", cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
