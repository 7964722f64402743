// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"shiplog/internal/cache"
	"shiplog/internal/theme"
)

// Public serves the visitor-facing surface: the grouped changelog
// payload, the theme's public setting values, and the live theme
// bundle's static assets.
type Public struct {
	categorizer *theme.Categorizer
	settings    *theme.Settings
	installer   *theme.Installer
	cache       *cache.PublicCache
}

// NewPublic creates a new Public handler group.
func NewPublic(categorizer *theme.Categorizer, settings *theme.Settings, installer *theme.Installer, publicCache *cache.PublicCache) *Public {
	return &Public{
		categorizer: categorizer,
		settings:    settings,
		installer:   installer,
		cache:       publicCache,
	}
}

// Changelog returns the published events grouped by theme category.
// The payload is cached in Valkey; writes through the admin API
// invalidate it.
func (p *Public) Changelog(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.ChangelogKey(), func() (any, error) {
		return p.categorizer.GroupPublicEvents()
	})
}

// ThemeSettings returns the flat setting-id to value map the theme
// bundle fetches at load time.
func (p *Public) ThemeSettings(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.ThemeSettingsKey(), func() (any, error) {
		return p.settings.PublicValues()
	})
}

// cached serves a JSON payload through the Valkey cache: hit serves
// bytes as-is, miss computes, stores, and serves.
func (p *Public) cached(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	if payload, ok := p.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(payload)
		return
	}

	v, err := build()
	if err != nil {
		respondThemeError(w, err)
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal public payload", "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	p.cache.Set(r.Context(), key, payload)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(payload)
}

// Site serves the live theme bundle's static files. Extensionless paths
// fall back to the bundle's index.html so client-side routing works;
// missing assets and a missing bundle 404.
func (p *Public) Site(w http.ResponseWriter, r *http.Request) {
	if !p.installer.HasBundle() {
		http.NotFound(w, r)
		return
	}

	root := p.installer.CurrentDir()
	reqPath := path.Clean("/" + r.URL.Path)
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	// path.Clean plus the Join below keeps requests inside the bundle.
	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(reqPath, "/")))
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		http.ServeFile(w, r, target)
		return
	}

	if path.Ext(reqPath) != "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(root, "index.html"))
}
