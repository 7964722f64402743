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

// MappingStore handles status-to-category mapping rows. Mapping rows do
// not carry a foreign key to statuses: a row whose status was deleted is
// an orphan, detected and purged lazily by the mapper on read.
type MappingStore struct {
	db *sql.DB
}

// NewMappingStore creates a new MappingStore.
func NewMappingStore(db *sql.DB) *MappingStore {
	return &MappingStore{db: db}
}

// mappingColumns lists the columns selected in mapping queries.
const mappingColumns = `id, status_id, theme_id, category_id, created_at`

// scanMapping scans a mapping row from the result set.
func scanMapping(scanner interface{ Scan(...any) error }) (*models.CategoryMapping, error) {
	var m models.CategoryMapping
	err := scanner.Scan(&m.ID, &m.StatusID, &m.ThemeID, &m.CategoryID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByTheme returns every mapping row for a theme, including orphans.
func (s *MappingStore) ListByTheme(themeID string) ([]models.CategoryMapping, error) {
	rows, err := s.db.Query(`
		SELECT `+mappingColumns+`
		FROM category_mappings
		WHERE theme_id = $1
		ORDER BY created_at ASC
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var items []models.CategoryMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// FindByStatus returns the mapping for a status under a theme, or nil.
func (s *MappingStore) FindByStatus(statusID uuid.UUID, themeID string) (*models.CategoryMapping, error) {
	row := s.db.QueryRow(`
		SELECT `+mappingColumns+`
		FROM category_mappings
		WHERE status_id = $1 AND theme_id = $2
	`, statusID, themeID)
	m, err := scanMapping(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mapping by status: %w", err)
	}
	return m, nil
}

// FindByCategory returns all mapping rows pointing at a category for a
// theme. Callers must check each row's status for liveness before treating
// it as a conflict.
func (s *MappingStore) FindByCategory(themeID, categoryID string) ([]models.CategoryMapping, error) {
	rows, err := s.db.Query(`
		SELECT `+mappingColumns+`
		FROM category_mappings
		WHERE theme_id = $1 AND category_id = $2
	`, themeID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find mappings by category: %w", err)
	}
	defer rows.Close()

	var items []models.CategoryMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Upsert creates or redirects the mapping for a status under a theme.
func (s *MappingStore) Upsert(statusID uuid.UUID, themeID, categoryID string) (*models.CategoryMapping, error) {
	row := s.db.QueryRow(`
		INSERT INTO category_mappings (status_id, theme_id, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (status_id, theme_id)
		DO UPDATE SET category_id = EXCLUDED.category_id
		RETURNING `+mappingColumns,
		statusID, themeID, categoryID,
	)
	m, err := scanMapping(row)
	if err != nil {
		return nil, fmt.Errorf("upsert mapping: %w", err)
	}
	return m, nil
}

// DeleteByStatus removes the mapping for a status under a theme.
// Idempotent: deleting a mapping that doesn't exist is not an error.
func (s *MappingStore) DeleteByStatus(statusID uuid.UUID, themeID string) error {
	_, err := s.db.Exec(`
		DELETE FROM category_mappings WHERE status_id = $1 AND theme_id = $2
	`, statusID, themeID)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}

// DeleteByID removes a single mapping row.
func (s *MappingStore) DeleteByID(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM category_mappings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mapping by id: %w", err)
	}
	return nil
}

// PurgeOrphans deletes mapping rows whose status no longer exists.
// Returns the number of rows removed.
func (s *MappingStore) PurgeOrphans(themeID string) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM category_mappings
		WHERE theme_id = $1
		  AND status_id NOT IN (SELECT id FROM statuses)
	`, themeID)
	if err != nil {
		return 0, fmt.Errorf("purge orphaned mappings: %w", err)
	}
	purged, _ := result.RowsAffected()
	return purged, nil
}
