// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the tyre marketplace API server.
// It loads configuration, connects to services, sets up routing, and runs
// the HTTP server next to the seller index reconciler until a shutdown
// signal arrives.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"tyremarket/internal/auth"
	"tyremarket/internal/cache"
	"tyremarket/internal/config"
	"tyremarket/internal/database"
	"tyremarket/internal/handlers"
	"tyremarket/internal/listing"
	"tyremarket/internal/metrics"
	"tyremarket/internal/middleware"
	"tyremarket/internal/router"
	"tyremarket/internal/session"
	"tyremarket/internal/storage"
	"tyremarket/internal/store"
)

func main() {
	// Load configuration from environment variables and an optional .env.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

func run(cfg *config.Config) error {
	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	// Connect to Valkey (token sessions + tyre read cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Metrics registry with the Go runtime collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Image storage: S3-compatible bucket when configured, local disk otherwise.
	var backend storage.Backend
	uploadDir := ""
	if cfg.UseS3() {
		s3, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL, cfg.S3PublicACL)
		if err != nil {
			return err
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		backend = s3
	} else {
		disk, err := storage.NewDisk(cfg.UploadDir)
		if err != nil {
			return err
		}
		slog.Warn("s3 storage not configured, storing images on disk", "dir", disk.Dir())
		backend = disk
		uploadDir = disk.Dir()
	}

	// Initialize data stores.
	tx := database.NewTransactor(db)
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	manufacturerStore := store.NewManufacturerStore(db)
	sellerStore := store.NewSellerStore(db)
	tyreStore := store.NewTyreStore(db)

	svc := listing.NewService(listing.Deps{
		Categories: categoryStore,
		Sellers:    sellerStore,
		Tyres:      tyreStore,
		Images:     storage.NewImages(backend),
		Tx:         tx,
		Cache:      cache.NewTyreCache(valkeyClient, cfg.CacheTTL),
		Metrics:    m,
	})
	reconciler := listing.NewReconciler(sellerStore, tx, cfg.ReconcileInterval, m)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	sessions := session.NewStore(valkeyClient, cfg.JWTTTL)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.TrustedProxies)
	defer loginLimiter.Stop()

	r := router.New(router.Deps{
		Tokens:       tokens,
		Sessions:     sessions,
		LoginLimiter: loginLimiter,
		Metrics:      m,
		Gatherer:     reg,
		Auth:         handlers.NewAuth(userStore, tokens, sessions, m),
		Tyres:        handlers.NewTyres(svc),
		Catalog:      handlers.NewCatalog(categoryStore, manufacturerStore, sellerStore),
		Admin:        handlers.NewAdmin(reconciler),
		UploadDir:    uploadDir,
		CORSOrigins:  cfg.CORSOrigins,
	})

	// Create the HTTP server with sensible timeouts. Reads allow for a
	// 10 MB image upload.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reconciler.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		// Give active requests up to 30 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
