// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/singleflight"

	"shiplog/internal/models"
)

const (
	currentDirName = "current"
	backupDirName  = "backup"

	// FallbackThemeID marks the synthetic record written when no theme
	// could be bootstrapped. No assets exist; public pages 404 until an
	// admin installs a real theme.
	FallbackThemeID      = "fallback"
	FallbackThemeVersion = "0.0.0"
)

// RecordStore is the subset of the installed-theme store the installer
// needs for its best-effort bookkeeping.
type RecordStore interface {
	Get() (*models.InstalledTheme, error)
	Set(themeID, version string) error
}

// InstallResult reports the outcome of a successful install.
type InstallResult struct {
	Success    bool   `json:"success"`
	IsUpdate   bool   `json:"is_update"`
	OldVersion string `json:"old_version,omitempty"`
	NewVersion string `json:"new_version"`
	ThemeID    string `json:"theme_id"`
}

// Installer owns the theme storage root: the live bundle under current/,
// the transient backup/ snapshot, and uuid-suffixed scratch directories
// used during extraction. All destructive work is serialized through a
// mutex scoped to the root; concurrent Install calls additionally collapse
// into one attempt via singleflight. Reads of the live bundle are never
// blocked — they observe whichever bundle is current.
type Installer struct {
	root       string
	client     *http.Client
	records    RecordStore
	catalogURL string

	mu    sync.Mutex
	group singleflight.Group
}

// NewInstaller creates an Installer over the given storage root.
// client may be nil, in which case a client with a generous timeout
// (archives can be large) is used. catalogURL may be empty to disable
// the default-theme bootstrap download.
func NewInstaller(root string, client *http.Client, records RecordStore, catalogURL string) *Installer {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Installer{
		root:       root,
		client:     client,
		records:    records,
		catalogURL: catalogURL,
	}
}

// CurrentDir returns the path of the live bundle directory.
func (ins *Installer) CurrentDir() string {
	return filepath.Join(ins.root, currentDirName)
}

func (ins *Installer) backupDir() string {
	return filepath.Join(ins.root, backupDirName)
}

// HasBundle reports whether a live bundle directory exists.
func (ins *Installer) HasBundle() bool {
	return dirExists(ins.CurrentDir())
}

// CurrentTheme returns the recorded theme id together with the live
// bundle's manifest, re-read from disk on every call.
func (ins *Installer) CurrentTheme() (string, *Manifest, error) {
	rec, err := ins.records.Get()
	if err != nil {
		return "", nil, err
	}
	if !rec.Installed() || rec.ThemeID == FallbackThemeID {
		return "", nil, &NotFoundError{Resource: "theme"}
	}
	m, err := LoadManifest(ins.CurrentDir())
	if err != nil {
		return "", nil, err
	}
	return rec.ThemeID, m, nil
}

// Install downloads the archive at archiveURL and swaps it in as the live
// bundle, backing up and restoring the previous bundle on any failure.
// Concurrent calls against the same storage root share a single attempt.
func (ins *Installer) Install(ctx context.Context, themeID, version, archiveURL string) (*InstallResult, error) {
	v, err, _ := ins.group.Do(ins.root, func() (any, error) {
		return ins.install(ctx, themeID, version, archiveURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*InstallResult), nil
}

func (ins *Installer) install(ctx context.Context, themeID, version, archiveURL string) (*InstallResult, error) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	if err := os.MkdirAll(ins.root, 0o755); err != nil {
		return nil, &BackupError{Err: err}
	}

	// Step 1: download to a private scratch file. Nothing on disk besides
	// the scratch file is touched until the download has fully succeeded.
	archivePath, err := ins.download(ctx, archiveURL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(archivePath)

	// Read the prior record up front for the isUpdate/oldVersion report.
	var oldVersion string
	isUpdate := false
	if rec, err := ins.records.Get(); err != nil {
		slog.Warn("read installed theme record", "error", err)
	} else if rec.Installed() && rec.ThemeID == themeID && rec.ThemeVersion != "" {
		isUpdate = true
		oldVersion = rec.ThemeVersion
	}

	current := ins.CurrentDir()
	backup := ins.backupDir()

	// Step 2: snapshot the live bundle, replacing any stale backup.
	// A first install has nothing to back up.
	hadCurrent := dirExists(current)
	if hadCurrent {
		if err := os.RemoveAll(backup); err != nil {
			return nil, &BackupError{Err: err}
		}
		if err := copyDir(current, backup); err != nil {
			return nil, &BackupError{Err: err}
		}
	}

	// Steps 3-5: extract to scratch, locate the publishable root, swap it
	// into place. Any failure restores the snapshot before surfacing.
	if err := ins.applyArchive(archivePath); err != nil {
		ins.rollback(hadCurrent)
		return nil, err
	}

	// Step 7: the swap succeeded. Discard the snapshot and persist the
	// bookkeeping. The bundle on disk is authoritative — a record write
	// failure is logged, never rolled back.
	if hadCurrent {
		if err := os.RemoveAll(backup); err != nil {
			slog.Warn("discard theme backup", "error", err)
		}
	}
	if err := ins.records.Set(themeID, version); err != nil {
		slog.Warn("persist installed theme record; bundle remains live, use resync to reconcile",
			"theme", themeID, "version", version, "error", err)
	}

	slog.Info("theme installed", "theme", themeID, "version", version, "update", isUpdate)
	return &InstallResult{
		Success:    true,
		IsUpdate:   isUpdate,
		OldVersion: oldVersion,
		NewVersion: version,
		ThemeID:    themeID,
	}, nil
}

// applyArchive extracts the downloaded archive into a scratch directory,
// finds the publishable root inside it, and moves it into the live slot.
func (ins *Installer) applyArchive(archivePath string) error {
	extractDir := filepath.Join(ins.root, "extract_"+uuid.NewString())
	defer os.RemoveAll(extractDir)

	if err := extractZip(archivePath, extractDir); err != nil {
		return err
	}

	pubRoot, err := findPublishableRoot(extractDir)
	if err != nil {
		return err
	}

	// The swap. Removing the live directory and renaming the new tree in
	// keeps the inconsistency window to a remove plus a same-filesystem
	// rename.
	current := ins.CurrentDir()
	if err := os.RemoveAll(current); err != nil {
		return &ExtractError{Reason: "clear live bundle", Err: err}
	}
	if err := os.Rename(pubRoot, current); err != nil {
		// Rename can fail across filesystems; fall back to a copy.
		if copyErr := copyDir(pubRoot, current); copyErr != nil {
			return &ExtractError{Reason: "apply bundle", Err: copyErr}
		}
	}
	return nil
}

// rollback restores the pre-install bundle from the backup snapshot.
// Called on any failure after the snapshot was taken; the caller must
// observe the old bundle still serving traffic.
func (ins *Installer) rollback(hadCurrent bool) {
	current := ins.CurrentDir()
	backup := ins.backupDir()

	if err := os.RemoveAll(current); err != nil {
		slog.Error("rollback: clear partial bundle", "error", err)
	}
	if !hadCurrent {
		return
	}
	if err := os.Rename(backup, current); err != nil {
		if copyErr := copyDir(backup, current); copyErr != nil {
			slog.Error("rollback: restore backup", "error", copyErr)
			return
		}
		os.RemoveAll(backup)
	}
	slog.Info("theme install rolled back to previous bundle")
}

// download fetches the archive to a scratch file under the storage root
// and returns its path. Fails with DownloadError on transport errors or
// non-2xx responses.
func (ins *Installer) download(ctx context.Context, archiveURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", &DownloadError{URL: archiveURL, Err: err}
	}

	resp, err := ins.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: archiveURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{URL: archiveURL, Status: resp.StatusCode}
	}

	f, err := os.CreateTemp(ins.root, "archive_*.zip")
	if err != nil {
		return "", &DownloadError{URL: archiveURL, Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", &DownloadError{URL: archiveURL, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", &DownloadError{URL: archiveURL, Err: err}
	}
	return f.Name(), nil
}

// Resync re-reads the live bundle's manifest and rewrites the installed
// theme record from it. Manual recovery path for the case where the swap
// succeeded but the record write failed.
func (ins *Installer) Resync() (*models.InstalledTheme, error) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	m, err := LoadManifest(ins.CurrentDir())
	if err != nil {
		return nil, err
	}
	if err := ins.records.Set(m.Name, m.Version); err != nil {
		return nil, fmt.Errorf("resync installed theme record: %w", err)
	}
	return ins.records.Get()
}

// catalogTheme mirrors one entry of the remote catalog listing.
type catalogTheme struct {
	ID         string `json:"id"`
	Version    string `json:"version"`
	ArchiveURL string `json:"archiveUrl"`
	Default    bool   `json:"default"`
}

// EnsureDefault bootstraps a first theme at service start. If no theme
// was ever installed and no local bundle exists, it fetches the remote
// catalog's default theme and installs it. When the catalog is
// unreachable or empty it degrades gracefully: a synthetic fallback
// id/version is recorded without installing assets, and public pages
// 404 until an admin installs a real theme.
func (ins *Installer) EnsureDefault(ctx context.Context) error {
	rec, err := ins.records.Get()
	if err != nil {
		return err
	}
	if rec.Installed() || ins.HasBundle() {
		return nil
	}

	if ins.catalogURL != "" {
		picked, err := ins.defaultFromCatalog(ctx)
		if err != nil {
			slog.Warn("theme catalog lookup failed", "error", err)
		} else if picked != nil {
			if _, err := ins.Install(ctx, picked.ID, picked.Version, picked.ArchiveURL); err != nil {
				slog.Warn("default theme install failed", "theme", picked.ID, "error", err)
			} else {
				return nil
			}
		}
	}

	if ins.HasBundle() {
		return nil
	}
	if err := ins.records.Set(FallbackThemeID, FallbackThemeVersion); err != nil {
		return fmt.Errorf("record fallback theme: %w", err)
	}
	slog.Warn("no theme available; public pages will 404 until a theme is installed")
	return nil
}

// defaultFromCatalog queries the catalog for its default theme, falling
// back to the first listed entry. Returns nil when the catalog is empty.
func (ins *Installer) defaultFromCatalog(ctx context.Context) (*catalogTheme, error) {
	u, err := url.Parse(ins.catalogURL)
	if err != nil {
		return nil, &DownloadError{URL: ins.catalogURL, Err: err}
	}
	q := u.Query()
	q.Set("default", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &DownloadError{URL: u.String(), Err: err}
	}
	resp, err := ins.client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DownloadError{URL: u.String(), Status: resp.StatusCode}
	}

	var themes []catalogTheme
	if err := json.NewDecoder(resp.Body).Decode(&themes); err != nil {
		return nil, &DownloadError{URL: u.String(), Err: err}
	}
	if len(themes) == 0 {
		return nil, nil
	}
	for i := range themes {
		if themes[i].Default {
			return &themes[i], nil
		}
	}
	return &themes[0], nil
}

// extractZip unpacks the archive into dst, rejecting any entry whose
// resolved path would escape the extraction root.
func extractZip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return &ExtractError{Reason: "open archive", Err: err}
	}
	defer r.Close()

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return &ExtractError{Reason: "create extraction root", Err: err}
	}

	for _, f := range r.File {
		target, err := securePath(dst, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &ExtractError{Reason: "create directory " + f.Name, Err: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return &ExtractError{Reason: "create parent of " + f.Name, Err: err}
		}

		rc, err := f.Open()
		if err != nil {
			return &ExtractError{Reason: "read entry " + f.Name, Err: err}
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o200)
		if err != nil {
			rc.Close()
			return &ExtractError{Reason: "write entry " + f.Name, Err: err}
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return &ExtractError{Reason: "write entry " + f.Name, Err: err}
		}
	}
	return nil
}

// securePath resolves an archive entry name inside root, failing if the
// entry would land outside it. The path-traversal guard is non-negotiable:
// archives are untrusted input.
func securePath(root, name string) (string, error) {
	cleaned := filepath.Join(root, filepath.FromSlash(name))
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(os.PathSeparator)) {
		return "", &ExtractError{Reason: fmt.Sprintf("entry %q escapes extraction root", name)}
	}
	return cleaned, nil
}

// buildDirNames are directory names recognized as build output roots.
var buildDirNames = map[string]bool{"build": true, "dist": true}

// assetDirNames are directory names that mark a tree as real front-end
// build output when found next to an index.html.
var assetDirNames = []string{"assets", "static", "_app", "js"}

// findPublishableRoot locates the directory inside an extracted archive
// that holds the actual site: a directory named build or dist containing
// recognizable artifacts, or the archive root itself if it qualifies.
func findPublishableRoot(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if buildDirNames[d.Name()] && hasBuildArtifacts(path) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", &ExtractError{Reason: "scan extracted archive", Err: err}
	}
	if found != "" {
		return found, nil
	}
	if hasBuildArtifacts(root) {
		return root, nil
	}
	return "", &ExtractError{Reason: "no build directory found"}
}

// hasBuildArtifacts reports whether dir looks like front-end build
// output: an index.html plus an app-asset directory.
func hasBuildArtifacts(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, "index.html")); err != nil || info.IsDir() {
		return false
	}
	for _, name := range assetDirNames {
		if dirExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyDir recursively copies the tree at src into dst, preserving file
// modes.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
