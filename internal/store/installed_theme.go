// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"shiplog/internal/models"
)

// InstalledThemeStore manages the singleton record of the live theme
// bundle. The row is created lazily on first access; an empty theme_id
// means no theme has ever been installed.
type InstalledThemeStore struct {
	db *sql.DB
}

// NewInstalledThemeStore creates a new InstalledThemeStore.
func NewInstalledThemeStore(db *sql.DB) *InstalledThemeStore {
	return &InstalledThemeStore{db: db}
}

// Get returns the singleton record, creating it if it doesn't exist yet.
func (s *InstalledThemeStore) Get() (*models.InstalledTheme, error) {
	if _, err := s.db.Exec(`
		INSERT INTO installed_theme (id) VALUES (1) ON CONFLICT (id) DO NOTHING
	`); err != nil {
		return nil, fmt.Errorf("ensure installed theme row: %w", err)
	}

	var t models.InstalledTheme
	err := s.db.QueryRow(`
		SELECT theme_id, theme_version, updated_at FROM installed_theme WHERE id = 1
	`).Scan(&t.ThemeID, &t.ThemeVersion, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		// Row vanished between the upsert and the read; treat as empty.
		return &models.InstalledTheme{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get installed theme: %w", err)
	}
	return &t, nil
}

// Set records a newly installed theme id and version.
func (s *InstalledThemeStore) Set(themeID, version string) error {
	_, err := s.db.Exec(`
		INSERT INTO installed_theme (id, theme_id, theme_version, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id)
		DO UPDATE SET theme_id = EXCLUDED.theme_id, theme_version = EXCLUDED.theme_version, updated_at = NOW()
	`, themeID, version)
	if err != nil {
		return fmt.Errorf("set installed theme: %w", err)
	}
	return nil
}
