// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import "fmt"

// DownloadError reports a failed archive or catalog fetch: a transport
// failure or a non-2xx response. Nothing on disk has been touched when
// this error is returned.
type DownloadError struct {
	URL    string
	Status int // HTTP status code, 0 for transport failures
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractError reports a corrupt archive, a path-traversal attempt, a
// missing build root, or a failure while applying the extracted bundle.
// The live bundle has been rolled back when this error surfaces.
type ExtractError struct {
	Reason string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract theme: %s: %v", e.Reason, e.Err)
	}
	return "extract theme: " + e.Reason
}

func (e *ExtractError) Unwrap() error { return e.Err }

// BackupError reports a filesystem failure while snapshotting the live
// bundle, before any destructive step. The install aborts entirely.
type BackupError struct {
	Err error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup live theme: %v", e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// ManifestError reports a missing or malformed manifest on an otherwise
// installed bundle.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("theme manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown status, category, or theme reference.
type NotFoundError struct {
	Resource string // "status", "category", "theme"
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError reports an exclusive-category violation: the target
// category disallows multiple statuses and another live status already
// holds it. Orphaned mappings never cause this error — they are purged
// during the conflict check.
type ConflictError struct {
	CategoryID string
	StatusName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("category %q already mapped to status %q", e.CategoryID, e.StatusName)
}
