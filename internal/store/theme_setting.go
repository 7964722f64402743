// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ThemeSettingStore persists admin-chosen values for manifest-declared
// theme settings. Values are stored as strings; the theme settings
// service decodes them per the manifest's declared types.
type ThemeSettingStore struct {
	db *sql.DB
}

// NewThemeSettingStore creates a new ThemeSettingStore.
func NewThemeSettingStore(db *sql.DB) *ThemeSettingStore {
	return &ThemeSettingStore{db: db}
}

// ListByTheme returns all stored setting values for a theme as a map of
// setting id to raw string value.
func (s *ThemeSettingStore) ListByTheme(themeID string) (map[string]string, error) {
	rows, err := s.db.Query(`
		SELECT setting_id, value FROM theme_settings WHERE theme_id = $1
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("list theme settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var id, val string
		if err := rows.Scan(&id, &val); err != nil {
			return nil, fmt.Errorf("scan theme setting: %w", err)
		}
		values[id] = val
	}
	return values, rows.Err()
}

// Upsert stores a single setting value for a theme.
func (s *ThemeSettingStore) Upsert(themeID, settingID, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO theme_settings (theme_id, setting_id, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (theme_id, setting_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, themeID, settingID, value, time.Now())
	if err != nil {
		return fmt.Errorf("upsert theme setting: %w", err)
	}
	return nil
}

// UpsertMany stores multiple setting values in a single transaction.
func (s *ThemeSettingStore) UpsertMany(themeID string, values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO theme_settings (theme_id, setting_id, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (theme_id, setting_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for id, val := range values {
		if _, err := stmt.Exec(themeID, id, val, now); err != nil {
			return fmt.Errorf("upsert theme setting %q: %w", id, err)
		}
	}

	return tx.Commit()
}
