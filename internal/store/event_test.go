package store

import (
	"testing"

	"github.com/google/uuid"

	"shiplog/internal/models"
)

func TestEventStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	authorID := uuid.MustParse(testUserID(t, db))

	t.Cleanup(func() { cleanEvents(t, db, "Event Create Draft", "Event Create Published") })

	draft, err := s.Create(&models.Event{
		Title: "Event Create Draft", Body: "draft body", Status: "In Progress", AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.IsPublished {
		t.Error("draft should not be published")
	}
	if draft.PublishedAt != nil {
		t.Error("draft should have no published_at")
	}

	pub, err := s.Create(&models.Event{
		Title: "Event Create Published", Body: "live body", Status: "Shipped",
		IsPublished: true, AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create published: %v", err)
	}
	if pub.PublishedAt == nil {
		t.Error("published event should be stamped at creation")
	}
}

func TestEventStorePublishStampsOnce(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	authorID := uuid.MustParse(testUserID(t, db))

	t.Cleanup(func() { cleanEvents(t, db, "Event Stamp Once") })

	ev, err := s.Create(&models.Event{
		Title: "Event Stamp Once", Body: "x", Status: "In Progress", AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	published, err := s.Update(ev.ID, ev.Title, ev.Body, ev.Status, true)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.PublishedAt == nil {
		t.Fatal("publishing should stamp published_at")
	}
	first := *published.PublishedAt

	// Unpublish then republish: the original timestamp survives.
	if _, err := s.Update(ev.ID, ev.Title, ev.Body, ev.Status, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	again, err := s.Update(ev.ID, ev.Title, ev.Body, ev.Status, true)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again.PublishedAt == nil || !again.PublishedAt.Equal(first) {
		t.Errorf("published_at changed on republish: got %v, want %v", again.PublishedAt, first)
	}
}

func TestEventStoreListPublic(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	statuses := NewStatusStore(db)
	authorID := uuid.MustParse(testUserID(t, db))

	t.Cleanup(func() {
		cleanEvents(t, db, "Public Visible", "Public Draft", "Public Archived")
	})

	archived, err := statuses.FindByName("Archived")
	if err != nil {
		t.Fatalf("find archived: %v", err)
	}
	if archived == nil {
		t.Skip("skipping: reserved archived status not seeded")
	}

	if _, err := s.Create(&models.Event{
		Title: "Public Visible", Body: "x", Status: "Shipped",
		IsPublished: true, AuthorID: authorID,
	}); err != nil {
		t.Fatalf("create visible: %v", err)
	}
	if _, err := s.Create(&models.Event{
		Title: "Public Draft", Body: "x", Status: "Shipped", AuthorID: authorID,
	}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := s.Create(&models.Event{
		Title: "Public Archived", Body: "x", Status: archived.DisplayName,
		IsPublished: true, AuthorID: authorID,
	}); err != nil {
		t.Fatalf("create archived: %v", err)
	}

	items, err := s.ListPublic()
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}

	seen := map[string]bool{}
	for _, e := range items {
		seen[e.Title] = true
	}
	if !seen["Public Visible"] {
		t.Error("published event missing from public list")
	}
	if seen["Public Draft"] {
		t.Error("draft leaked into public list")
	}
	if seen["Public Archived"] {
		t.Error("archived event leaked into public list")
	}
}

func TestEventStoreFindAndDelete(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	authorID := uuid.MustParse(testUserID(t, db))

	t.Cleanup(func() { cleanEvents(t, db, "Event Find Delete") })

	ev, err := s.Create(&models.Event{
		Title: "Event Find Delete", Body: "x", Status: "Up Next", AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := s.FindByID(ev.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Title != ev.Title {
		t.Errorf("FindByID: got %+v", found)
	}

	missing, err := s.FindByID(uuid.New())
	if err != nil {
		t.Fatalf("FindByID missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}

	if err := s.Delete(ev.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := s.FindByID(ev.ID)
	if err != nil {
		t.Fatalf("FindByID after delete: %v", err)
	}
	if gone != nil {
		t.Error("event should be gone")
	}
}

func TestEventStoreCountByStatus(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	authorID := uuid.MustParse(testUserID(t, db))

	status := "Event Count Status " + uuid.NewString()[:8]
	t.Cleanup(func() { cleanEvents(t, db, "Event Count A", "Event Count B") })

	count, err := s.CountByStatus(status)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh status count: got %d, want 0", count)
	}

	for _, title := range []string{"Event Count A", "Event Count B"} {
		if _, err := s.Create(&models.Event{Title: title, Body: "x", Status: status, AuthorID: authorID}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	count, err = s.CountByStatus(status)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}
}
