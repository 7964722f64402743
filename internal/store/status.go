// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shiplog/internal/models"
	"shiplog/internal/slug"
)

// Errors returned by StatusStore operations. Handlers map these onto
// HTTP status codes.
var (
	ErrStatusNotFound  = errors.New("status not found")
	ErrStatusReserved  = errors.New("status is reserved")
	ErrStatusInUse     = errors.New("status is referenced by events")
	ErrDuplicateStatus = errors.New("status display name already in use")
)

// StatusStore handles workflow status definitions and the cascades that
// keep status names consistent across events and the newsletter
// automation trigger list. Renames and deletes run the full cascade in a
// single transaction so old names never dangle.
type StatusStore struct {
	db *sql.DB
}

// NewStatusStore creates a new StatusStore.
func NewStatusStore(db *sql.DB) *StatusStore {
	return &StatusStore{db: db}
}

// statusColumns lists the columns selected in status queries.
const statusColumns = `id, display_name, slug, sort_order, is_reserved, created_at, updated_at`

// scanStatus scans a status row from the result set.
func scanStatus(scanner interface{ Scan(...any) error }) (*models.StatusDefinition, error) {
	var st models.StatusDefinition
	err := scanner.Scan(&st.ID, &st.DisplayName, &st.Slug, &st.SortOrder, &st.IsReserved, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// List returns all status definitions ordered by sort order.
func (s *StatusStore) List() ([]models.StatusDefinition, error) {
	rows, err := s.db.Query(`
		SELECT ` + statusColumns + `
		FROM statuses
		ORDER BY sort_order ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var items []models.StatusDefinition
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		items = append(items, *st)
	}
	return items, rows.Err()
}

// FindByID retrieves a status by its UUID. Returns nil if not found.
func (s *StatusStore) FindByID(id uuid.UUID) (*models.StatusDefinition, error) {
	row := s.db.QueryRow(`SELECT `+statusColumns+` FROM statuses WHERE id = $1`, id)
	st, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find status by id: %w", err)
	}
	return st, nil
}

// FindByName retrieves a status by display name, case-insensitively.
// Returns nil if not found.
func (s *StatusStore) FindByName(name string) (*models.StatusDefinition, error) {
	row := s.db.QueryRow(`SELECT `+statusColumns+` FROM statuses WHERE LOWER(display_name) = LOWER($1)`, name)
	st, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find status by name: %w", err)
	}
	return st, nil
}

// Create inserts a new status definition. The slug is generated from the
// display name and the sort order appended after the existing statuses.
func (s *StatusStore) Create(displayName string) (*models.StatusDefinition, error) {
	existing, err := s.FindByName(displayName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateStatus
	}

	row := s.db.QueryRow(`
		INSERT INTO statuses (display_name, slug, sort_order)
		VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM statuses WHERE is_reserved = FALSE))
		RETURNING `+statusColumns,
		displayName, slug.Generate(displayName),
	)
	st, err := scanStatus(row)
	if err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	return st, nil
}

// Reorder updates the sort order of a status.
func (s *StatusStore) Reorder(id uuid.UUID, sortOrder int) error {
	result, err := s.db.Exec(`
		UPDATE statuses SET sort_order = $1, updated_at = NOW() WHERE id = $2
	`, sortOrder, id)
	if err != nil {
		return fmt.Errorf("reorder status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrStatusNotFound
	}
	return nil
}

// Rename changes a status display name and regenerates its slug.
// The same transaction cascades the new name onto every event tagged with
// the old one and rewrites the automation trigger list, so no reference to
// the old name survives the commit.
func (s *StatusStore) Rename(id uuid.UUID, newName string) (*models.StatusDefinition, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+statusColumns+` FROM statuses WHERE id = $1 FOR UPDATE`, id)
	current, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load status: %w", err)
	}
	if current.IsReserved {
		return nil, ErrStatusReserved
	}

	// Uniqueness check, excluding the status itself so case-only renames
	// ("shipped" -> "Shipped") still work.
	var clash bool
	err = tx.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM statuses WHERE LOWER(display_name) = LOWER($1) AND id <> $2)
	`, newName, id).Scan(&clash)
	if err != nil {
		return nil, fmt.Errorf("check duplicate status: %w", err)
	}
	if clash {
		return nil, ErrDuplicateStatus
	}

	row = tx.QueryRow(`
		UPDATE statuses SET display_name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+statusColumns,
		newName, slug.Generate(newName), id,
	)
	updated, err := scanStatus(row)
	if err != nil {
		return nil, fmt.Errorf("rename status: %w", err)
	}

	// Cascade 1: events tagged with the old display name.
	if _, err := tx.Exec(`
		UPDATE events SET status = $1, updated_at = NOW() WHERE status = $2
	`, newName, current.DisplayName); err != nil {
		return nil, fmt.Errorf("cascade rename to events: %w", err)
	}

	// Cascade 2: the automation trigger list, which references statuses
	// by display name.
	if err := rewriteNotifyList(tx, current.DisplayName, newName); err != nil {
		return nil, fmt.Errorf("cascade rename to trigger list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rename: %w", err)
	}
	return updated, nil
}

// Delete removes a status definition. Deletion is rejected while any
// event still references the status; otherwise its category mapping and
// trigger-list entry are removed in the same transaction.
func (s *StatusStore) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+statusColumns+` FROM statuses WHERE id = $1 FOR UPDATE`, id)
	current, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return ErrStatusNotFound
	}
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	if current.IsReserved {
		return ErrStatusReserved
	}

	var refs int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM events WHERE status = $1`, current.DisplayName).Scan(&refs); err != nil {
		return fmt.Errorf("count referencing events: %w", err)
	}
	if refs > 0 {
		return ErrStatusInUse
	}

	if _, err := tx.Exec(`DELETE FROM category_mappings WHERE status_id = $1`, id); err != nil {
		return fmt.Errorf("delete status mapping: %w", err)
	}

	if err := rewriteNotifyList(tx, current.DisplayName, ""); err != nil {
		return fmt.Errorf("strip status from trigger list: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM statuses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// rewriteNotifyList replaces oldName with newName in the notify_statuses
// site setting inside the given transaction. An empty newName strips the
// entry. A missing or malformed list is left untouched.
func rewriteNotifyList(tx *sql.Tx, oldName, newName string) error {
	var raw string
	err := tx.QueryRow(`SELECT value FROM site_settings WHERE key = $1 FOR UPDATE`, NotifyStatusesKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil
	}

	changed := false
	out := names[:0]
	for _, n := range names {
		if strings.EqualFold(n, oldName) {
			changed = true
			if newName != "" {
				out = append(out, newName)
			}
			continue
		}
		out = append(out, n)
	}
	if !changed {
		return nil
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		UPDATE site_settings SET value = $1, updated_at = NOW() WHERE key = $2
	`, string(encoded), NotifyStatusesKey)
	return err
}
