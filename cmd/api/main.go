package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"datavault/api/internal/app"
	"datavault/api/internal/blob"
	"datavault/api/internal/config"
	"datavault/api/internal/docstore"
	"datavault/api/internal/gate"
	"datavault/api/internal/identity"
	"datavault/api/internal/search"
	"datavault/api/internal/session"
	"datavault/api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: could not load .env: %v", err)
	}
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	redisStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisStore.Close()

	identityService := identity.NewService(dataStore, redisStore, cfg.TokenSecret, cfg.AccessTTL, cfg.RefreshTTL)
	accessGate := gate.New(identityService, gate.Config{
		InvestorCode: cfg.InvestorCode,
		AdminCode:    cfg.AdminCode,
		SharedSecret: cfg.SharedSecret,
		MaxAttempts:  cfg.MaxAttempts,
		Cooldown:     cfg.Cooldown,
	})

	docs := docstore.NewAdapter(dataStore, docstore.NewSnapshot(cfg.SnapshotPath))

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}

	var blobStore app.BlobStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		bucket, err := blob.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object store setup failed: %v", err)
		}
		blobStore = bucket
	} else {
		log.Printf("object storage not configured, uploads disabled")
	}

	service := app.New(cfg, dataStore, docs, accessGate, identityService, meiliClient, blobStore)
	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer service.Close()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("DataVault API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// Push any last edits before the process exits.
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	if err := service.SaveNow(flushCtx); err != nil {
		log.Printf("final save failed: %v", err)
	}
}
