// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme implements the theme installation engine and the
// status-to-category mapping layer: downloading and atomically swapping
// versioned front-end bundles, reading their manifests, persisting
// admin-chosen settings, and grouping public events by the installed
// theme's display categories.
package theme

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// ManifestFilename is the manifest file expected at a bundle's root.
const ManifestFilename = "manifest.json"

// SettingType enumerates the value types a manifest may declare for a
// setting.
type SettingType string

const (
	SettingBoolean SettingType = "boolean"
	SettingNumber  SettingType = "number"
	SettingString  SettingType = "string"
	SettingSelect  SettingType = "select"
	SettingArray   SettingType = "array"
	SettingObject  SettingType = "object"
)

// valid reports whether the type is one the engine knows how to decode.
func (t SettingType) valid() bool {
	switch t {
	case SettingBoolean, SettingNumber, SettingString, SettingSelect, SettingArray, SettingObject:
		return true
	}
	return false
}

// Category is a named bucket the themed front end groups events into.
type Category struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	AllowMultiple bool   `json:"allowMultipleStatuses"`
}

// Setting is a single configurable value declared by the manifest.
// Default is kept raw; it is decoded against Type on demand.
type Setting struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Type        SettingType     `json:"type"`
	Default     json.RawMessage `json:"default,omitempty"`
	Options     []string        `json:"options,omitempty"`
}

// SettingGroup is an ordered section of settings in the admin UI.
type SettingGroup struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Settings []Setting `json:"settings"`
}

// Manifest is the theme-provided metadata read from the installed
// bundle. It is never cached across installs — every caller re-reads it
// from disk so a concurrent install is reflected by the next read.
type Manifest struct {
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	Categories    []Category     `json:"categories"`
	SettingGroups []SettingGroup `json:"settingGroups,omitempty"`
}

// Category returns the category with the given id, or nil.
func (m *Manifest) Category(id string) *Category {
	for i := range m.Categories {
		if m.Categories[i].ID == id {
			return &m.Categories[i]
		}
	}
	return nil
}

// Setting returns the declared setting with the given id, or nil.
func (m *Manifest) Setting(id string) *Setting {
	for gi := range m.SettingGroups {
		for si := range m.SettingGroups[gi].Settings {
			if m.SettingGroups[gi].Settings[si].ID == id {
				return &m.SettingGroups[gi].Settings[si]
			}
		}
	}
	return nil
}

// LoadManifest reads and validates the manifest at the root of a theme
// bundle directory. It fails with ManifestError if the file is missing or
// malformed.
func LoadManifest(themePath string) (*Manifest, error) {
	path := filepath.Join(themePath, ManifestFilename)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}

	if m.Name == "" || m.Version == "" {
		return nil, &ManifestError{Path: path, Err: errors.New("missing name or version")}
	}
	for _, c := range m.Categories {
		if c.ID == "" {
			return nil, &ManifestError{Path: path, Err: errors.New("category without id")}
		}
	}
	for _, g := range m.SettingGroups {
		for _, s := range g.Settings {
			if s.ID == "" {
				return nil, &ManifestError{Path: path, Err: errors.New("setting without id")}
			}
			if !s.Type.valid() {
				return nil, &ManifestError{Path: path, Err: errors.New("setting " + s.ID + ": unknown type " + string(s.Type))}
			}
		}
	}

	return &m, nil
}
