// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"shiplog/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "shiplog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "shiplog")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUserID returns an existing user ID, creating a throwaway author if
// the database has none.
func testUserID(t *testing.T, db *sql.DB) string {
	t.Helper()
	var id string
	err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		err = db.QueryRow(`
			INSERT INTO users (email, password_hash, display_name, role)
			VALUES ('store-test@shiplog.local', 'x', 'Store Test', 'editor')
			ON CONFLICT (email) DO UPDATE SET display_name = EXCLUDED.display_name
			RETURNING id
		`).Scan(&id)
	}
	if err != nil {
		t.Fatalf("test user: %v", err)
	}
	return id
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanStatuses removes test statuses by display name. Call in t.Cleanup().
func cleanStatuses(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM category_mappings WHERE status_id IN (SELECT id FROM statuses WHERE display_name = $1)", name)
		db.Exec("DELETE FROM statuses WHERE display_name = $1", name)
	}
}

// cleanEvents removes test events by title. Call in t.Cleanup().
func cleanEvents(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec("DELETE FROM events WHERE title = $1", title)
	}
}

// cleanMappings removes test mappings by theme id. Call in t.Cleanup().
func cleanMappings(t *testing.T, db *sql.DB, themeIDs ...string) {
	t.Helper()
	for _, themeID := range themeIDs {
		db.Exec("DELETE FROM category_mappings WHERE theme_id = $1", themeID)
	}
}

// cleanThemeSettings removes test setting values by theme id. Call in t.Cleanup().
func cleanThemeSettings(t *testing.T, db *sql.DB, themeIDs ...string) {
	t.Helper()
	for _, themeID := range themeIDs {
		db.Exec("DELETE FROM theme_settings WHERE theme_id = $1", themeID)
	}
}
