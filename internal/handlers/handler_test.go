// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"shiplog/internal/cache"
	"shiplog/internal/database"
	"shiplog/internal/middleware"
	"shiplog/internal/models"
	"shiplog/internal/session"
	"shiplog/internal/store"
	"shiplog/internal/theme"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "shiplog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "shiplog")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "public:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Sessions      *session.Store
	UserStore     *store.UserStore
	StatusStore   *store.StatusStore
	EventStore    *store.EventStore
	MappingStore  *store.MappingStore
	SettingStore  *store.ThemeSettingStore
	SiteSettings  *store.SiteSettingStore
	Records       *store.InstalledThemeStore
	Installer     *theme.Installer
	Cache         *cache.PublicCache
	ThemesRoot    string
	Auth          *Auth
	Theme         *Theme
	Status        *Status
	Event         *Event
	Public        *Public
}

// newTestEnv creates a complete test environment with all handler
// dependencies. The theme storage root is a per-test temp directory; the
// installed-theme record lives in the shared database and is reset on
// cleanup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	statusStore := store.NewStatusStore(db)
	eventStore := store.NewEventStore(db)
	mappingStore := store.NewMappingStore(db)
	settingStore := store.NewThemeSettingStore(db)
	siteSettings := store.NewSiteSettingStore(db)
	records := store.NewInstalledThemeStore(db)

	themesRoot := t.TempDir()
	installer := theme.NewInstaller(themesRoot, nil, records, "")
	mapper := theme.NewMapper(statusStore, mappingStore, installer)
	settings := theme.NewSettings(settingStore, installer)
	categorizer := theme.NewCategorizer(eventStore, statusStore, mappingStore, installer)

	publicCache := cache.NewPublicCache(vk, 1*time.Minute)

	return &testEnv{
		DB:           db,
		Valkey:       vk,
		Sessions:     sessions,
		UserStore:    userStore,
		StatusStore:  statusStore,
		EventStore:   eventStore,
		MappingStore: mappingStore,
		SettingStore: settingStore,
		SiteSettings: siteSettings,
		Records:      records,
		Installer:    installer,
		Cache:        publicCache,
		ThemesRoot:   themesRoot,
		Auth:         NewAuth(sessions, userStore),
		Theme:        NewTheme(installer, mapper, settings, records, publicCache),
		Status:       NewStatus(statusStore, eventStore, siteSettings, publicCache),
		Event:        NewEvent(eventStore, statusStore, publicCache),
		Public:       NewPublic(categorizer, settings, installer, publicCache),
	}
}

// testBundleManifest is the manifest used by installTestBundle.
const testBundleManifest = `{
	"name": "aurora",
	"version": "1.4.0",
	"categories": [
		{"id": "in-progress", "label": "In Progress", "allowMultipleStatuses": true},
		{"id": "shipped", "label": "Shipped"},
		{"id": "up-next", "label": "Up Next"}
	],
	"settingGroups": [
		{
			"id": "branding",
			"label": "Branding",
			"settings": [
				{"id": "accent_color", "label": "Accent color", "type": "string", "default": "\"#ff0066\""},
				{"id": "show_dates", "label": "Show dates", "type": "boolean", "default": "true"}
			]
		}
	]
}`

// installTestBundle materializes a live bundle on disk and records it as
// installed, bypassing the download path. Cleanup clears the record and
// the mapping and setting rows the test may have created.
func installTestBundle(t *testing.T, env *testEnv) {
	t.Helper()

	current := env.Installer.CurrentDir()
	if err := os.MkdirAll(filepath.Join(current, "assets"), 0o755); err != nil {
		t.Fatalf("create bundle dirs: %v", err)
	}
	files := map[string]string{
		"manifest.json":  testBundleManifest,
		"index.html":     "<!doctype html><title>aurora</title>",
		"assets/app.js":  "console.log('aurora');",
		"assets/app.css": "body{margin:0}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(current, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write bundle file %s: %v", name, err)
		}
	}

	if err := env.Records.Set("aurora", "1.4.0"); err != nil {
		t.Fatalf("record test theme: %v", err)
	}

	t.Cleanup(func() {
		env.Records.Set("", "")
		env.DB.Exec("DELETE FROM category_mappings WHERE theme_id = 'aurora'")
		env.DB.Exec("DELETE FROM theme_settings WHERE theme_id = 'aurora'")
	})
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// testAuthorID returns a valid user ID for event creation.
func testAuthorID(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		err = db.QueryRow(`
			INSERT INTO users (email, password_hash, display_name, role)
			VALUES ('handler-test@shiplog.local', 'x', 'Handler Test', 'editor')
			ON CONFLICT (email) DO UPDATE SET display_name = EXCLUDED.display_name
			RETURNING id
		`).Scan(&id)
	}
	if err != nil {
		t.Fatalf("test author: %v", err)
	}
	return id
}

// mustStatus creates a status for a test, cleaning it up afterwards.
func mustStatus(t *testing.T, env *testEnv, name string) uuid.UUID {
	t.Helper()
	st, err := env.StatusStore.Create(name)
	if err != nil {
		t.Fatalf("create status %q: %v", name, err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM category_mappings WHERE status_id = $1", st.ID)
		env.DB.Exec("DELETE FROM events WHERE status = $1", name)
		env.DB.Exec("DELETE FROM statuses WHERE id = $1", st.ID)
	})
	return st.ID
}

// eventFixture builds an event ready for EventStore.Create.
func eventFixture(title, status string, authorID uuid.UUID, published bool) *models.Event {
	return &models.Event{
		Title:       title,
		Body:        "body for " + title,
		Status:      status,
		IsPublished: published,
		AuthorID:    authorID,
	}
}

// cleanEvents removes test events by title.
func cleanEvents(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec("DELETE FROM events WHERE title = $1", title)
	}
}
