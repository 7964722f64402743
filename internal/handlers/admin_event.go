// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shiplog/internal/cache"
	"shiplog/internal/middleware"
	"shiplog/internal/models"
	"shiplog/internal/store"
)

// Event groups the admin endpoints for changelog events.
type Event struct {
	events   *store.EventStore
	statuses *store.StatusStore
	cache    *cache.PublicCache
}

// NewEvent creates a new Event handler group.
func NewEvent(events *store.EventStore, statuses *store.StatusStore, publicCache *cache.PublicCache) *Event {
	return &Event{
		events:   events,
		statuses: statuses,
		cache:    publicCache,
	}
}

type eventRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Status      string `json:"status"`
	IsPublished bool   `json:"is_published"`
}

// validate checks the payload and resolves the status to its canonical
// display name, so events never reference a name that only differs in
// case from the status table.
func (e *Event) validate(w http.ResponseWriter, req *eventRequest) bool {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return false
	}
	st, err := e.statuses.FindByName(req.Status)
	if err != nil {
		slog.Error("resolve event status", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if st == nil {
		respondError(w, http.StatusUnprocessableEntity, "unknown status: "+req.Status)
		return false
	}
	req.Status = st.DisplayName
	return true
}

// List returns all events, newest first.
func (e *Event) List(w http.ResponseWriter, r *http.Request) {
	events, err := e.events.List()
	if err != nil {
		slog.Error("list events", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Get returns a single event.
func (e *Event) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ev, err := e.events.FindByID(id)
	if err != nil {
		slog.Error("find event", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ev == nil {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

// Create adds a new event authored by the session user.
func (e *Event) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !e.validate(w, &req) {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	ev, err := e.events.Create(&models.Event{
		Title:       req.Title,
		Body:        req.Body,
		Status:      req.Status,
		IsPublished: req.IsPublished,
		AuthorID:    sess.UserID,
	})
	if err != nil {
		slog.Error("create event", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	e.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusCreated, ev)
}

// Update replaces an event's content, status, and publication flag.
func (e *Event) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !e.validate(w, &req) {
		return
	}

	ev, err := e.events.Update(id, req.Title, req.Body, req.Status, req.IsPublished)
	if err != nil {
		slog.Error("update event", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ev == nil {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}

	e.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, ev)
}

// Delete removes an event.
func (e *Event) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := e.events.Delete(id); err != nil {
		slog.Error("delete event", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	e.cache.Invalidate(r.Context(), cache.ChangelogKey())
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}
