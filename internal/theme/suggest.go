// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggestMaxDistance is the largest edit distance still considered a
// plausible fuzzy match ("Shiped" -> "shipped").
const suggestMaxDistance = 3

// SuggestCategory returns the id of the manifest category that best
// matches a status display name, or "" when nothing plausible matches.
// It is a best-effort hint for the admin mapping screen only and never
// participates in conflict or uniqueness decisions.
func SuggestCategory(statusName string, categories []Category) string {
	name := strings.ToLower(strings.TrimSpace(statusName))
	if name == "" || len(categories) == 0 {
		return ""
	}

	// Exact match on id or label.
	for _, c := range categories {
		if name == strings.ToLower(c.ID) || name == strings.ToLower(c.Label) {
			return c.ID
		}
	}

	// Substring containment either way ("In Progress" vs "progress").
	for _, c := range categories {
		for _, cand := range []string{strings.ToLower(c.ID), strings.ToLower(c.Label)} {
			if cand == "" {
				continue
			}
			if strings.Contains(cand, name) || strings.Contains(name, cand) {
				return c.ID
			}
		}
	}

	// Shared word between the status name and the category label/id.
	tokens := strings.Fields(name)
	for _, c := range categories {
		candTokens := strings.Fields(strings.ToLower(c.Label))
		candTokens = append(candTokens, strings.FieldsFunc(strings.ToLower(c.ID), func(r rune) bool {
			return r == '-' || r == '_'
		})...)
		for _, tok := range tokens {
			for _, cand := range candTokens {
				if tok == cand {
					return c.ID
				}
			}
		}
	}

	// Fuzzy fallback for typos and near-misses.
	best := ""
	bestDist := suggestMaxDistance + 1
	for _, c := range categories {
		for _, cand := range []string{strings.ToLower(c.ID), strings.ToLower(c.Label)} {
			if cand == "" {
				continue
			}
			if d := levenshtein.ComputeDistance(name, cand); d < bestDist {
				bestDist = d
				best = c.ID
			}
		}
	}
	return best
}
