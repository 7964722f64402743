// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shiplog/internal/cache"
	"shiplog/internal/store"
	"shiplog/internal/theme"
)

// Theme groups the admin endpoints for theme installation, category
// mappings, and theme settings.
type Theme struct {
	installer *theme.Installer
	mapper    *theme.Mapper
	settings  *theme.Settings
	records   *store.InstalledThemeStore
	cache     *cache.PublicCache
}

// NewTheme creates a new Theme handler group.
func NewTheme(installer *theme.Installer, mapper *theme.Mapper, settings *theme.Settings, records *store.InstalledThemeStore, publicCache *cache.PublicCache) *Theme {
	return &Theme{
		installer: installer,
		mapper:    mapper,
		settings:  settings,
		records:   records,
		cache:     publicCache,
	}
}

// Install downloads and activates a theme bundle. A failed install rolls
// the previous bundle back; the response reflects which outcome happened.
func (t *Theme) Install(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThemeID    string `json:"theme_id"`
		Version    string `json:"version"`
		ArchiveURL string `json:"archive_url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ThemeID == "" || req.Version == "" || req.ArchiveURL == "" {
		respondError(w, http.StatusBadRequest, "theme_id, version and archive_url are required")
		return
	}

	res, err := t.installer.Install(r.Context(), req.ThemeID, req.Version, req.ArchiveURL)
	if err != nil {
		respondThemeError(w, err)
		return
	}

	// A new bundle means a new manifest: both public payloads are stale.
	t.cache.InvalidateAll(r.Context())

	respondJSON(w, http.StatusOK, res)
}

// Current reports the installed theme record.
func (t *Theme) Current(w http.ResponseWriter, r *http.Request) {
	rec, err := t.records.Get()
	if err != nil {
		slog.Error("read installed theme record", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !rec.Installed() {
		respondError(w, http.StatusNotFound, "no theme installed")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// Manifest returns the live bundle's manifest.
func (t *Theme) Manifest(w http.ResponseWriter, r *http.Request) {
	_, m, err := t.installer.CurrentTheme()
	if err != nil {
		respondThemeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Resync rewrites the installed theme record from the live bundle's
// manifest. Recovery path for a record write that failed after a
// successful install.
func (t *Theme) Resync(w http.ResponseWriter, r *http.Request) {
	rec, err := t.installer.Resync()
	if err != nil {
		respondThemeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// MappingsList reports every status as mapped or unmapped against the
// active theme's categories, with suggestions for the unmapped ones.
func (t *Theme) MappingsList(w http.ResponseWriter, r *http.Request) {
	overview, err := t.mapper.ListMappings()
	if err != nil {
		respondThemeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// MappingSet assigns a status to a theme category.
func (t *Theme) MappingSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StatusID   uuid.UUID `json:"status_id"`
		CategoryID string    `json:"category_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StatusID == uuid.Nil || req.CategoryID == "" {
		respondError(w, http.StatusBadRequest, "status_id and category_id are required")
		return
	}

	row, err := t.mapper.SetMapping(req.StatusID, req.CategoryID)
	if err != nil {
		respondThemeError(w, err)
		return
	}

	t.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, row)
}

// MappingDelete removes a status's category assignment.
func (t *Theme) MappingDelete(w http.ResponseWriter, r *http.Request) {
	statusID, err := uuid.Parse(chi.URLParam(r, "statusID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status id")
		return
	}

	if err := t.mapper.DeleteMapping(statusID); err != nil {
		respondThemeError(w, err)
		return
	}

	t.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// SettingsGet returns the manifest's setting groups with effective values.
func (t *Theme) SettingsGet(w http.ResponseWriter, r *http.Request) {
	themeID, groups, err := t.settings.GetAll()
	if err != nil {
		respondThemeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"theme_id": themeID,
		"groups":   groups,
	})
}

// SettingsPut saves a batch of setting overrides. Unknown keys and
// mistyped values are skipped; the response lists what was saved.
func (t *Theme) SettingsPut(w http.ResponseWriter, r *http.Request) {
	var req map[string]json.RawMessage
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	saved, err := t.settings.UpdateMany(req)
	if err != nil {
		respondThemeError(w, err)
		return
	}

	t.cache.Invalidate(r.Context(), cache.ThemeSettingsKey())
	respondJSON(w, http.StatusOK, map[string]any{"saved": saved})
}
