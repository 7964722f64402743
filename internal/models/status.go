// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusDefinition is an admin-managed workflow state assignable to events
// (e.g. "Proposed", "Shipped"). The ID is stable; the display name is
// mutable but unique case-insensitively, and the slug is regenerated on
// every rename. Reserved statuses are seeded by the system and cannot be
// deleted or renamed.
type StatusDefinition struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sort_order"`
	IsReserved  bool      `json:"is_reserved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Reserved status slugs seeded by the initial migration. Events in the
// archived status are excluded from public listings.
const (
	StatusSlugBacklog  = "backlog"
	StatusSlugArchived = "archived"
)
