// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"fmt"
	"strings"

	"shiplog/internal/models"
)

// PublicEventSource yields the events eligible for the public changelog.
type PublicEventSource interface {
	ListPublic() ([]models.Event, error)
}

// PublicChangelog is the payload the public site renders: published
// events grouped under the active theme's category ids. Every declared
// category appears, empty or not, so the theme can render stable
// sections.
type PublicChangelog struct {
	ThemeID    string                    `json:"theme_id"`
	ThemeName  string                    `json:"theme_name"`
	Categories map[string][]models.Event `json:"categories"`
}

// Categorizer assembles the public changelog by routing published events
// through the status-to-category mappings. Events whose status is
// unmapped, or mapped to a category the manifest no longer declares,
// are silently omitted from the public payload.
type Categorizer struct {
	events   PublicEventSource
	statuses StatusDirectory
	mappings MappingRepo
	themes   ManifestSource
}

func NewCategorizer(events PublicEventSource, statuses StatusDirectory, mappings MappingRepo, themes ManifestSource) *Categorizer {
	return &Categorizer{events: events, statuses: statuses, mappings: mappings, themes: themes}
}

// GroupPublicEvents builds the grouped payload for the active theme.
func (c *Categorizer) GroupPublicEvents() (*PublicChangelog, error) {
	themeID, manifest, err := c.themes.CurrentTheme()
	if err != nil {
		return nil, err
	}

	statuses, err := c.statuses.List()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	rows, err := c.mappings.ListByTheme(themeID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	// Resolve each live status's display name to its category, dropping
	// mappings whose category the manifest does not declare.
	categoryByStatus := make(map[string]string, len(rows))
	nameByID := make(map[string]string, len(statuses))
	for _, s := range statuses {
		nameByID[s.ID.String()] = strings.ToLower(s.DisplayName)
	}
	for _, row := range rows {
		name, ok := nameByID[row.StatusID.String()]
		if !ok {
			continue // orphan, purged on the next admin read
		}
		if manifest.Category(row.CategoryID) == nil {
			continue
		}
		categoryByStatus[name] = row.CategoryID
	}

	out := &PublicChangelog{
		ThemeID:    themeID,
		ThemeName:  manifest.Name,
		Categories: make(map[string][]models.Event, len(manifest.Categories)),
	}
	for _, cat := range manifest.Categories {
		out.Categories[cat.ID] = []models.Event{}
	}

	events, err := c.events.ListPublic()
	if err != nil {
		return nil, fmt.Errorf("list public events: %w", err)
	}
	for _, ev := range events {
		catID, ok := categoryByStatus[strings.ToLower(ev.Status)]
		if !ok {
			continue
		}
		out.Categories[catID] = append(out.Categories[catID], ev)
	}
	return out, nil
}
