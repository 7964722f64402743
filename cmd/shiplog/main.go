// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Shiplog server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shiplog/internal/cache"
	"shiplog/internal/config"
	"shiplog/internal/database"
	"shiplog/internal/handlers"
	"shiplog/internal/router"
	"shiplog/internal/session"
	"shiplog/internal/store"
	"shiplog/internal/theme"
)

func main() {
	// Structured logger for the whole process.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"themes_dir", cfg.ThemesDir,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + public payload cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark session cookies Secure.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Data stores.
	userStore := store.NewUserStore(db)
	eventStore := store.NewEventStore(db)
	statusStore := store.NewStatusStore(db)
	mappingStore := store.NewMappingStore(db)
	themeSettingStore := store.NewThemeSettingStore(db)
	installedThemeStore := store.NewInstalledThemeStore(db)
	siteSettingStore := store.NewSiteSettingStore(db)

	// Theme engine: installer over the themes root, plus the mapping,
	// settings, and grouping services built on it.
	installer := theme.NewInstaller(cfg.ThemesDir, nil, installedThemeStore, cfg.CatalogURL)
	mapper := theme.NewMapper(statusStore, mappingStore, installer)
	themeSettings := theme.NewSettings(themeSettingStore, installer)
	categorizer := theme.NewCategorizer(eventStore, statusStore, mappingStore, installer)

	// Bootstrap a default theme if none was ever installed. Failure is
	// not fatal: the admin can install a theme through the API.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := installer.EnsureDefault(bootCtx); err != nil {
		slog.Warn("default theme bootstrap failed", "error", err)
	}
	bootCancel()

	// Public payload cache in Valkey.
	publicCache := cache.NewPublicCache(valkeyClient, cache.DefaultPublicTTL)

	// Handler groups.
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	themeHandlers := handlers.NewTheme(installer, mapper, themeSettings, installedThemeStore, publicCache)
	statusHandlers := handlers.NewStatus(statusStore, eventStore, siteSettingStore, publicCache)
	eventHandlers := handlers.NewEvent(eventStore, statusStore, publicCache)
	publicHandlers := handlers.NewPublic(categorizer, themeSettings, installer, publicCache)

	r := router.New(sessionStore, authHandlers, themeHandlers, statusHandlers, eventHandlers, publicHandlers, secureCookies)

	// WriteTimeout must accommodate theme installs that download and
	// unpack large archives.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
