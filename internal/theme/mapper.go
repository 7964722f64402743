// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"fmt"

	"github.com/google/uuid"

	"shiplog/internal/models"
)

// StatusDirectory is the subset of the status store the mapper reads.
type StatusDirectory interface {
	List() ([]models.StatusDefinition, error)
	FindByID(id uuid.UUID) (*models.StatusDefinition, error)
}

// MappingRepo is the mapping persistence surface the mapper drives.
type MappingRepo interface {
	ListByTheme(themeID string) ([]models.CategoryMapping, error)
	FindByCategory(themeID, categoryID string) ([]models.CategoryMapping, error)
	Upsert(statusID uuid.UUID, themeID, categoryID string) (*models.CategoryMapping, error)
	DeleteByStatus(statusID uuid.UUID, themeID string) error
	DeleteByID(id uuid.UUID) error
	PurgeOrphans(themeID string) (int64, error)
}

// ManifestSource yields the active theme id and its manifest.
type ManifestSource interface {
	CurrentTheme() (string, *Manifest, error)
}

// MappedStatus is one status with a live assignment to a theme category.
type MappedStatus struct {
	MappingID     uuid.UUID `json:"mapping_id"`
	StatusID      uuid.UUID `json:"status_id"`
	StatusName    string    `json:"status_name"`
	CategoryID    string    `json:"category_id"`
	CategoryLabel string    `json:"category_label"`
}

// UnmappedStatus is a status without an assignment, carrying a suggested
// category when one of the manifest's categories looks like a match.
type UnmappedStatus struct {
	StatusID          uuid.UUID `json:"status_id"`
	StatusName        string    `json:"status_name"`
	SuggestedCategory string    `json:"suggested_category,omitempty"`
}

// MappingOverview is the full mapping picture for the active theme.
type MappingOverview struct {
	ThemeID    string           `json:"theme_id"`
	Categories []Category       `json:"categories"`
	Mapped     []MappedStatus   `json:"mapped"`
	Unmapped   []UnmappedStatus `json:"unmapped"`
}

// Mapper maintains the status-to-category assignments for the active
// theme. Mappings may outlive the statuses they reference; the mapper
// treats such orphans as absent and purges them opportunistically on
// read, so a deleted status never blocks a later reassignment.
type Mapper struct {
	statuses StatusDirectory
	mappings MappingRepo
	themes   ManifestSource
}

func NewMapper(statuses StatusDirectory, mappings MappingRepo, themes ManifestSource) *Mapper {
	return &Mapper{statuses: statuses, mappings: mappings, themes: themes}
}

// ListMappings reports every status as mapped or unmapped against the
// active theme's categories. Orphaned mapping rows are purged as a side
// effect; rows pointing at categories the manifest no longer declares are
// reported as unmapped but kept (a theme update may bring the category
// back).
func (m *Mapper) ListMappings() (*MappingOverview, error) {
	themeID, manifest, err := m.themes.CurrentTheme()
	if err != nil {
		return nil, err
	}

	statuses, err := m.statuses.List()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	if _, err := m.mappings.PurgeOrphans(themeID); err != nil {
		return nil, fmt.Errorf("purge orphan mappings: %w", err)
	}

	rows, err := m.mappings.ListByTheme(themeID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	byStatus := make(map[uuid.UUID]models.CategoryMapping, len(rows))
	for _, row := range rows {
		byStatus[row.StatusID] = row
	}

	overview := &MappingOverview{
		ThemeID:    themeID,
		Categories: manifest.Categories,
		Mapped:     []MappedStatus{},
		Unmapped:   []UnmappedStatus{},
	}
	for _, s := range statuses {
		row, ok := byStatus[s.ID]
		if ok {
			if cat := manifest.Category(row.CategoryID); cat != nil {
				overview.Mapped = append(overview.Mapped, MappedStatus{
					MappingID:     row.ID,
					StatusID:      s.ID,
					StatusName:    s.DisplayName,
					CategoryID:    cat.ID,
					CategoryLabel: cat.Label,
				})
				continue
			}
		}
		overview.Unmapped = append(overview.Unmapped, UnmappedStatus{
			StatusID:          s.ID,
			StatusName:        s.DisplayName,
			SuggestedCategory: SuggestCategory(s.DisplayName, manifest.Categories),
		})
	}
	return overview, nil
}

// SetMapping assigns a status to a category of the active theme,
// replacing any previous assignment of that status. For single-status
// categories it rejects the assignment with a ConflictError when another
// live status already holds the category; orphaned holders are purged
// instead of counting as occupants.
func (m *Mapper) SetMapping(statusID uuid.UUID, categoryID string) (*models.CategoryMapping, error) {
	themeID, manifest, err := m.themes.CurrentTheme()
	if err != nil {
		return nil, err
	}

	status, err := m.statuses.FindByID(statusID)
	if err != nil {
		return nil, fmt.Errorf("find status: %w", err)
	}
	if status == nil {
		return nil, &NotFoundError{Resource: "status", ID: statusID.String()}
	}

	cat := manifest.Category(categoryID)
	if cat == nil {
		return nil, &NotFoundError{Resource: "category", ID: categoryID}
	}

	if !cat.AllowMultiple {
		holders, err := m.mappings.FindByCategory(themeID, categoryID)
		if err != nil {
			return nil, fmt.Errorf("check category occupancy: %w", err)
		}
		for _, h := range holders {
			if h.StatusID == statusID {
				continue
			}
			holder, err := m.statuses.FindByID(h.StatusID)
			if err != nil {
				return nil, fmt.Errorf("check category occupancy: %w", err)
			}
			if holder == nil {
				// The occupant's status was deleted; the stale row must
				// not block this assignment.
				if err := m.mappings.DeleteByID(h.ID); err != nil {
					return nil, fmt.Errorf("purge orphan mapping: %w", err)
				}
				continue
			}
			return nil, &ConflictError{CategoryID: categoryID, StatusName: holder.DisplayName}
		}
	}

	row, err := m.mappings.Upsert(statusID, themeID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	return row, nil
}

// DeleteMapping removes a status's assignment for the active theme.
// Deleting a mapping that does not exist is not an error.
func (m *Mapper) DeleteMapping(statusID uuid.UUID) error {
	themeID, _, err := m.themes.CurrentTheme()
	if err != nil {
		return err
	}
	if err := m.mappings.DeleteByStatus(statusID, themeID); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}
