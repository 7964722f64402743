// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// SettingRepo is the setting persistence surface the settings service
// drives. Values cross this boundary as strings; typing lives above it.
type SettingRepo interface {
	ListByTheme(themeID string) (map[string]string, error)
	UpsertMany(themeID string, values map[string]string) error
}

// ResolvedSetting is one manifest-declared setting with its effective
// value: the stored override when present and well-formed, the manifest
// default otherwise.
type ResolvedSetting struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Type        SettingType `json:"type"`
	Options     []string    `json:"options,omitempty"`
	Value       Value       `json:"value"`
	IsDefault   bool        `json:"is_default"`
}

// ResolvedGroup mirrors a manifest setting group with resolved values.
type ResolvedGroup struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Settings []ResolvedSetting `json:"settings"`
}

// Settings resolves the active theme's configurable values against the
// manifest schema. The manifest is the source of truth for which settings
// exist and how they are typed; stored rows for settings the manifest no
// longer declares are ignored.
type Settings struct {
	repo   SettingRepo
	themes ManifestSource
}

func NewSettings(repo SettingRepo, themes ManifestSource) *Settings {
	return &Settings{repo: repo, themes: themes}
}

// GetAll returns every manifest-declared setting group with effective
// values for the active theme.
func (s *Settings) GetAll() (string, []ResolvedGroup, error) {
	themeID, manifest, err := s.themes.CurrentTheme()
	if err != nil {
		return "", nil, err
	}

	stored, err := s.repo.ListByTheme(themeID)
	if err != nil {
		return "", nil, fmt.Errorf("list theme settings: %w", err)
	}

	groups := make([]ResolvedGroup, 0, len(manifest.SettingGroups))
	for _, g := range manifest.SettingGroups {
		rg := ResolvedGroup{ID: g.ID, Label: g.Label, Settings: make([]ResolvedSetting, 0, len(g.Settings))}
		for _, def := range g.Settings {
			rg.Settings = append(rg.Settings, resolveSetting(def, stored))
		}
		groups = append(groups, rg)
	}
	return themeID, groups, nil
}

func resolveSetting(def Setting, stored map[string]string) ResolvedSetting {
	rs := ResolvedSetting{
		ID:          def.ID,
		Label:       def.Label,
		Description: def.Description,
		Type:        def.Type,
		Options:     def.Options,
		IsDefault:   true,
	}
	if raw, ok := stored[def.ID]; ok {
		if v, err := ParseStored(def.Type, raw); err == nil {
			rs.Value = v
			rs.IsDefault = false
			return rs
		}
		slog.Warn("stored theme setting does not match manifest type, using default",
			"setting", def.ID, "type", def.Type)
	}
	rs.Value = DefaultValue(&def)
	return rs
}

// UpdateMany persists a batch of setting overrides for the active theme.
// Keys the manifest does not declare and values that fail type validation
// are skipped with a warning rather than failing the batch; the saved
// setting ids are returned.
func (s *Settings) UpdateMany(input map[string]json.RawMessage) ([]string, error) {
	themeID, manifest, err := s.themes.CurrentTheme()
	if err != nil {
		return nil, err
	}

	encoded := make(map[string]string, len(input))
	saved := make([]string, 0, len(input))
	for id, raw := range input {
		def := manifest.Setting(id)
		if def == nil {
			slog.Warn("ignoring unknown theme setting", "setting", id)
			continue
		}
		v, err := ParseJSON(def.Type, raw)
		if err != nil {
			slog.Warn("ignoring theme setting with invalid value", "setting", id, "error", err)
			continue
		}
		encoded[id] = v.Encode()
		saved = append(saved, id)
	}

	if len(encoded) == 0 {
		return saved, nil
	}
	if err := s.repo.UpsertMany(themeID, encoded); err != nil {
		return nil, fmt.Errorf("save theme settings: %w", err)
	}
	return saved, nil
}

// PublicValues returns the flat id-to-value map the public site consumes:
// every declared setting with its effective typed value, no schema or
// grouping.
func (s *Settings) PublicValues() (map[string]Value, error) {
	themeID, manifest, err := s.themes.CurrentTheme()
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.ListByTheme(themeID)
	if err != nil {
		return nil, fmt.Errorf("list theme settings: %w", err)
	}

	out := make(map[string]Value)
	for _, g := range manifest.SettingGroups {
		for _, def := range g.Settings {
			out[def.ID] = resolveSetting(def, stored).Value
		}
	}
	return out, nil
}
