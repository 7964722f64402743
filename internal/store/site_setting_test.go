package store

import (
	"testing"

	"github.com/google/uuid"
)

func TestSiteSettingStoreGetFallback(t *testing.T) {
	db := testDB(t)
	s := NewSiteSettingStore(db)

	key := "test_missing_" + uuid.NewString()[:8]
	val, err := s.Get(key, "fallback-value")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "fallback-value" {
		t.Errorf("missing key: got %q, want fallback", val)
	}

	// A stored empty string also falls back.
	t.Cleanup(func() { db.Exec("DELETE FROM site_settings WHERE key = $1", key) })
	if err := s.Set(key, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, err = s.Get(key, "fallback-value")
	if err != nil {
		t.Fatalf("Get empty: %v", err)
	}
	if val != "fallback-value" {
		t.Errorf("empty value: got %q, want fallback", val)
	}
}

func TestSiteSettingStoreSetAndAll(t *testing.T) {
	db := testDB(t)
	s := NewSiteSettingStore(db)

	key := "test_set_" + uuid.NewString()[:8]
	t.Cleanup(func() { db.Exec("DELETE FROM site_settings WHERE key = $1", key) })

	if err := s.Set(key, "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(key, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	val, err := s.Get(key, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("value: got %q, want %q", val, "second")
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all[key] != "second" {
		t.Errorf("All[%s]: got %q", key, all[key])
	}
}

func TestSiteSettingStoreSetMany(t *testing.T) {
	db := testDB(t)
	s := NewSiteSettingStore(db)

	prefix := "test_many_" + uuid.NewString()[:8]
	keyA := prefix + "_a"
	keyB := prefix + "_b"
	t.Cleanup(func() {
		db.Exec("DELETE FROM site_settings WHERE key IN ($1, $2)", keyA, keyB)
	})

	if err := s.SetMany(map[string]string{keyA: "1", keyB: "2"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	for key, want := range map[string]string{keyA: "1", keyB: "2"} {
		got, err := s.Get(key, "")
		if err != nil {
			t.Fatalf("Get %s: %v", key, err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", key, got, want)
		}
	}
}

func TestSiteSettingStoreNotifyStatuses(t *testing.T) {
	db := testDB(t)
	s := NewSiteSettingStore(db)

	var before string
	db.QueryRow("SELECT value FROM site_settings WHERE key = $1", NotifyStatusesKey).Scan(&before)
	t.Cleanup(func() {
		if before == "" {
			db.Exec("DELETE FROM site_settings WHERE key = $1", NotifyStatusesKey)
		} else {
			s.Set(NotifyStatusesKey, before)
		}
	})

	if err := s.SetNotifyStatuses([]string{"Shipped", "In Progress"}); err != nil {
		t.Fatalf("SetNotifyStatuses: %v", err)
	}
	names, err := s.NotifyStatuses()
	if err != nil {
		t.Fatalf("NotifyStatuses: %v", err)
	}
	if len(names) != 2 || names[0] != "Shipped" || names[1] != "In Progress" {
		t.Errorf("names: got %v", names)
	}

	// nil is stored as an empty list, not null.
	if err := s.SetNotifyStatuses(nil); err != nil {
		t.Fatalf("SetNotifyStatuses nil: %v", err)
	}
	names, err = s.NotifyStatuses()
	if err != nil {
		t.Fatalf("NotifyStatuses empty: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Errorf("empty list: got %v", names)
	}

	// A malformed stored value degrades to an empty list.
	if err := s.Set(NotifyStatusesKey, "{not json"); err != nil {
		t.Fatalf("set malformed: %v", err)
	}
	names, err = s.NotifyStatuses()
	if err != nil {
		t.Fatalf("NotifyStatuses malformed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("malformed value: got %v, want empty", names)
	}
}
