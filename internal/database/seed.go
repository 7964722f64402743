package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default admin user plus a handful of workflow statuses and
// sample changelog events if none exist. The admin will be prompted to set
// up 2FA on first login (totp_enabled = false).
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, "admin@shiplog.local", string(hash), "Admin", "admin", false).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// Default workflow statuses alongside the reserved ones from the
	// migration.
	statuses := []struct {
		name  string
		slug  string
		order int
	}{
		{"Proposed", "proposed", 1},
		{"In Progress", "in-progress", 2},
		{"Shipped", "shipped", 3},
	}
	for _, s := range statuses {
		if _, err := db.Exec(`
			INSERT INTO statuses (display_name, slug, sort_order)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, s.name, s.slug, s.order); err != nil {
			return fmt.Errorf("seed insert status %q: %w", s.name, err)
		}
	}

	// A couple of sample events so the public changelog isn't empty in dev.
	events := []struct {
		title  string
		body   string
		status string
	}{
		{"Dark mode", "The public site now respects your system color scheme.", "Shipped"},
		{"CSV export", "Export your full timeline as CSV from the admin panel.", "In Progress"},
		{"Webhooks", "Notify external systems when an event ships.", "Proposed"},
	}
	for _, e := range events {
		if _, err := db.Exec(`
			INSERT INTO events (title, body, status, is_published, published_at, author_id)
			VALUES ($1, $2, $3, TRUE, NOW(), $4)
		`, e.title, e.body, e.status, adminID); err != nil {
			return fmt.Errorf("seed insert event %q: %w", e.title, err)
		}
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@shiplog.local",
		"password", "admin",
	)

	return nil
}
