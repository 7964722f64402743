// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL-safe identifiers from human-entered names,
// primarily status display names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// invalidChars matches anything that can't appear in a slug.
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multiHyphen collapses consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// Generate creates a slug from the given name: lowercase, letters and
// digits only, words joined by single hyphens.
// Example: "In Progress!" → "in-progress"
func Generate(s string) string {
	s = invalidChars.ReplaceAllString(strings.ToLower(s), "")
	s = strings.Join(strings.Fields(s), "-")
	s = multiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
