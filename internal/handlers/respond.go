// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handler groups for the admin JSON
// API and the public theme-served site.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shiplog/internal/theme"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into dst with a size cap and
// strict field checking.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// respondThemeError translates the theme package's error taxonomy into
// HTTP status codes. Unrecognized errors are logged and reported as 500.
func respondThemeError(w http.ResponseWriter, err error) {
	var (
		notFound *theme.NotFoundError
		conflict *theme.ConflictError
		download *theme.DownloadError
		extract  *theme.ExtractError
		backup   *theme.BackupError
		manifest *theme.ManifestError
	)
	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &download):
		respondError(w, http.StatusBadGateway, download.Error())
	case errors.As(err, &extract):
		respondError(w, http.StatusUnprocessableEntity, extract.Error())
	case errors.As(err, &manifest):
		respondError(w, http.StatusUnprocessableEntity, manifest.Error())
	case errors.As(err, &backup):
		slog.Error("theme backup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "theme backup failed")
	default:
		slog.Error("theme operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
