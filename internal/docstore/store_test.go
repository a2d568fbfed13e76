package docstore

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumecheck/internal/database"
	"resumecheck/internal/resume"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.ResumeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func sampleResume(id, ownerID string) *resume.Resume {
	fb := resume.PlaceholderFeedback()
	fb.OverallScore = 77
	fb.ATS.Score = 70
	fb.ATS.Tips = []resume.Tip{{Type: resume.TipGood, Tip: "Readable layout"}}
	return &resume.Resume{
		ID:             id,
		OwnerID:        ownerID,
		CompanyName:    "Acme",
		JobTitle:       "Backend Engineer",
		JobDescription: "Build APIs in Go",
		ResumePath:     "resumes/" + ownerID + "/" + id + ".pdf",
		ImagePath:      "resumes/" + ownerID + "/" + id + ".png",
		Status:         resume.StatusDraft,
		Feedback:       fb,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := sampleResume("r1", "user-1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerID != "user-1" || got.CompanyName != "Acme" || got.Status != resume.StatusDraft {
		t.Fatalf("got %+v", got)
	}
	if got.Feedback.OverallScore != 77 {
		t.Fatalf("feedback score = %v, want 77", got.Feedback.OverallScore)
	}
	if len(got.Feedback.ATS.Tips) != 1 || got.Feedback.ATS.Tips[0].Type != resume.TipGood {
		t.Fatalf("feedback tips = %+v", got.Feedback.ATS.Tips)
	}
}

func TestPutUpsertsOnSameID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft := sampleResume("r1", "user-1")
	if err := store.Put(ctx, draft); err != nil {
		t.Fatalf("Put draft: %v", err)
	}

	final := sampleResume("r1", "user-1")
	final.Status = resume.StatusAnalyzed
	final.Feedback.OverallScore = 91
	if err := store.Put(ctx, final); err != nil {
		t.Fatalf("Put final: %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != resume.StatusAnalyzed || got.Feedback.OverallScore != 91 {
		t.Fatalf("second write did not win: %+v", got)
	}

	all, err := store.Query(ctx, "user-1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1 after upsert", len(all))
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQueryScopedToOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, r := range []*resume.Resume{
		sampleResume("r1", "user-1"),
		sampleResume("r2", "user-1"),
		sampleResume("r3", "user-2"),
	} {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put %s: %v", r.ID, err)
		}
	}

	mine, err := store.Query(ctx, "user-1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("records = %d, want 2", len(mine))
	}
	ids := map[string]bool{}
	for _, r := range mine {
		if r.OwnerID != "user-1" {
			t.Fatalf("foreign record leaked: %+v", r)
		}
		ids[r.ID] = true
	}
	if !ids["r1"] || !ids["r2"] {
		t.Fatalf("ids = %v", ids)
	}

	empty, err := store.Query(ctx, "user-3")
	if err != nil {
		t.Fatalf("Query empty owner: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("records = %d, want 0", len(empty))
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleResume("r1", "user-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after delete", err)
	}

	// Deleting a missing id is not an error.
	if err := store.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete missing id: %v", err)
	}
}
