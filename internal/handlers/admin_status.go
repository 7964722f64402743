// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shiplog/internal/cache"
	"shiplog/internal/store"
)

// Status groups the admin endpoints for workflow status management.
// Renames and deletes cascade inside StatusStore transactions; these
// handlers only translate requests and invalidate the public cache,
// since status names are embedded in the cached changelog payload.
type Status struct {
	statuses     *store.StatusStore
	events       *store.EventStore
	siteSettings *store.SiteSettingStore
	cache        *cache.PublicCache
}

// NewStatus creates a new Status handler group.
func NewStatus(statuses *store.StatusStore, events *store.EventStore, siteSettings *store.SiteSettingStore, publicCache *cache.PublicCache) *Status {
	return &Status{
		statuses:     statuses,
		events:       events,
		siteSettings: siteSettings,
		cache:        publicCache,
	}
}

// respondStatusError maps the StatusStore error sentinels to HTTP codes.
func respondStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrStatusNotFound):
		respondError(w, http.StatusNotFound, "status not found")
	case errors.Is(err, store.ErrStatusReserved):
		respondError(w, http.StatusUnprocessableEntity, "reserved statuses cannot be changed")
	case errors.Is(err, store.ErrStatusInUse):
		respondError(w, http.StatusConflict, "status is referenced by events")
	case errors.Is(err, store.ErrDuplicateStatus):
		respondError(w, http.StatusConflict, "status name already in use")
	default:
		slog.Error("status operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// List returns all statuses with their event counts.
func (s *Status) List(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.statuses.List()
	if err != nil {
		slog.Error("list statuses", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type row struct {
		ID          uuid.UUID `json:"id"`
		DisplayName string    `json:"display_name"`
		Slug        string    `json:"slug"`
		SortOrder   int       `json:"sort_order"`
		IsReserved  bool      `json:"is_reserved"`
		EventCount  int       `json:"event_count"`
	}
	out := make([]row, 0, len(statuses))
	for _, st := range statuses {
		count, err := s.events.CountByStatus(st.DisplayName)
		if err != nil {
			slog.Error("count events for status", "status", st.DisplayName, "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out = append(out, row{
			ID:          st.ID,
			DisplayName: st.DisplayName,
			Slug:        st.Slug,
			SortOrder:   st.SortOrder,
			IsReserved:  st.IsReserved,
			EventCount:  count,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Create adds a new workflow status.
func (s *Status) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		respondError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	st, err := s.statuses.Create(name)
	if err != nil {
		respondStatusError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, st)
}

// Rename changes a status's display name, cascading the new name to
// events and the notification trigger list in one transaction.
func (s *Status) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status id")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		respondError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	st, err := s.statuses.Rename(id, name)
	if err != nil {
		respondStatusError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, st)
}

// Reorder updates a status's sort position.
func (s *Status) Reorder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status id")
		return
	}

	var req struct {
		SortOrder int `json:"sort_order"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.statuses.Reorder(id, req.SortOrder); err != nil {
		respondStatusError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Delete removes a status. Blocked while events still reference it;
// category mappings and the trigger-list entry go with it.
func (s *Status) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid status id")
		return
	}

	if err := s.statuses.Delete(id); err != nil {
		respondStatusError(w, err)
		return
	}

	s.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// NotifyList returns the statuses whose events trigger newsletter
// notifications.
func (s *Status) NotifyList(w http.ResponseWriter, r *http.Request) {
	names, err := s.siteSettings.NotifyStatuses()
	if err != nil {
		slog.Error("read notify statuses", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"statuses": names})
}

// NotifySet replaces the notification trigger list. Names that do not
// match an existing status are rejected so the list never drifts from
// the status table.
func (s *Status) NotifySet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Statuses []string `json:"statuses"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	for _, name := range req.Statuses {
		st, err := s.statuses.FindByName(name)
		if err != nil {
			slog.Error("validate notify status", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if st == nil {
			respondError(w, http.StatusUnprocessableEntity, "unknown status: "+name)
			return
		}
	}

	if err := s.siteSettings.SetNotifyStatuses(req.Statuses); err != nil {
		slog.Error("save notify statuses", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"statuses": req.Statuses})
}
