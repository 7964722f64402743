// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"shiplog/internal/models"
)

// EventStore handles changelog event database operations.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// eventColumns lists the columns selected in event queries.
const eventColumns = `id, title, body, status, is_published, published_at, author_id, created_at, updated_at`

// scanEvent scans an event row from the result set.
func scanEvent(scanner interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	err := scanner.Scan(&e.ID, &e.Title, &e.Body, &e.Status, &e.IsPublished, &e.PublishedAt, &e.AuthorID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all events, newest first.
func (s *EventStore) List() ([]models.Event, error) {
	rows, err := s.db.Query(`
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var items []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

// ListPublic returns published events excluding those parked in the
// reserved archived status, newest first. Used by the public categorizer.
func (s *EventStore) ListPublic() ([]models.Event, error) {
	rows, err := s.db.Query(`
		SELECT e.id, e.title, e.body, e.status, e.is_published, e.published_at, e.author_id, e.created_at, e.updated_at
		FROM events e
		LEFT JOIN statuses s ON LOWER(s.display_name) = LOWER(e.status)
		WHERE e.is_published = TRUE
		  AND (s.slug IS NULL OR s.slug <> 'archived')
		ORDER BY e.published_at DESC NULLS LAST, e.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	defer rows.Close()

	var items []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan public event: %w", err)
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

// FindByID retrieves an event by its UUID. Returns nil if not found.
func (s *EventStore) FindByID(id uuid.UUID) (*models.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return e, nil
}

// Create inserts a new event and returns it with generated fields.
// published_at is set when the event is created already published.
func (s *EventStore) Create(e *models.Event) (*models.Event, error) {
	row := s.db.QueryRow(`
		INSERT INTO events (title, body, status, is_published, published_at, author_id)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 THEN NOW() ELSE NULL END, $5)
		RETURNING `+eventColumns,
		e.Title, e.Body, e.Status, e.IsPublished, e.AuthorID,
	)
	created, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

// Update modifies an event. Transitioning to published stamps
// published_at if it was never set.
func (s *EventStore) Update(id uuid.UUID, title, body, status string, isPublished bool) (*models.Event, error) {
	row := s.db.QueryRow(`
		UPDATE events SET
			title = $1,
			body = $2,
			status = $3,
			is_published = $4,
			published_at = CASE WHEN $4 AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+eventColumns,
		title, body, status, isPublished, id,
	)
	updated, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// Delete removes an event by ID.
func (s *EventStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// CountByStatus returns how many events reference a status display name.
func (s *EventStore) CountByStatus(name string) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE status = $1`, name).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events by status: %w", err)
	}
	return count, nil
}
