// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// InstalledTheme is the singleton record of which theme bundle is live.
// It is created lazily on first access and mutated only by a successful
// install (or the explicit resync operation). The bundle on disk is
// authoritative; this row is bookkeeping.
type InstalledTheme struct {
	ThemeID      string    `json:"theme_id"`
	ThemeVersion string    `json:"theme_version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Installed reports whether a theme has ever been recorded.
func (t *InstalledTheme) Installed() bool {
	return t != nil && t.ThemeID != ""
}

// CategoryMapping assigns a workflow status to one of the installed theme's
// display categories. One row per mapped status per theme; a row whose
// status no longer exists is an orphan and is purged lazily on read.
type CategoryMapping struct {
	ID         uuid.UUID `json:"id"`
	StatusID   uuid.UUID `json:"status_id"`
	ThemeID    string    `json:"theme_id"`
	CategoryID string    `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThemeSettingValue is an admin-chosen override for a manifest-declared
// setting. Values are stored as strings and decoded per the manifest's
// declared type at the service boundary.
type ThemeSettingValue struct {
	ThemeID   string    `json:"theme_id"`
	SettingID string    `json:"setting_id"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
