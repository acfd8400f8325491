package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPaper(arxivID string) Paper {
	published := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	return Paper{
		Title:        "Paper " + arxivID,
		ArxivID:      arxivID,
		Published:    published,
		Updated:      published.Add(24 * time.Hour),
		Summary:      "An abstract for " + arxivID,
		Authors:      []string{"Ada Lovelace", "Alan Turing"},
		Categories:   []string{"cs.CL", "cs.LG"},
		PDFLink:      "http://arxiv.org/pdf/" + arxivID,
		AbstractLink: "http://arxiv.org/abs/" + arxivID,
		ArxivLink:    "http://arxiv.org/abs/" + arxivID,
	}
}

func TestInsertPapers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	n, err := db.InsertPapers(ctx, []Paper{testPaper("2401.00001v1"), testPaper("2401.00002v1")})
	if err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}

	count, err := db.CountPapers(ctx)
	if err != nil {
		t.Fatalf("CountPapers failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestInsertPapersSkipsDuplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertPapers(ctx, []Paper{testPaper("2401.00001v1")}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Replaying the same batch must be a no-op, not a duplicate row.
	n, err := db.InsertPapers(ctx, []Paper{testPaper("2401.00001v1"), testPaper("2401.00003v1")})
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted %d on replay, want 1", n)
	}

	count, _ := db.CountPapers(ctx)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestPaperRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := testPaper("2401.00001v1")
	if _, err := db.InsertPapers(ctx, []Paper{want}); err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}

	papers, err := db.RecentPapers(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPapers failed: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}

	got := papers[0]
	if got.ID == 0 {
		t.Error("expected assigned id")
	}
	if got.Title != want.Title || got.ArxivID != want.ArxivID || got.Summary != want.Summary {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Ada Lovelace" {
		t.Errorf("Authors = %v", got.Authors)
	}
	if len(got.Categories) != 2 || got.Categories[1] != "cs.LG" {
		t.Errorf("Categories = %v", got.Categories)
	}
	if !got.Published.Equal(want.Published) || !got.Updated.Equal(want.Updated) {
		t.Errorf("times: published %v updated %v", got.Published, got.Updated)
	}
	if got.Published.After(got.Updated) {
		t.Error("published should not be after updated")
	}
}

func TestPapersByIDsPreservesOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	batch := []Paper{testPaper("a"), testPaper("b"), testPaper("c")}
	if _, err := db.InsertPapers(ctx, batch); err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}

	all, err := db.RecentPapers(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPapers failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d papers", len(all))
	}

	// Request in reverse id order and expect that order back.
	ids := []int64{all[0].ID, all[2].ID, all[1].ID}
	got, err := db.PapersByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("PapersByIDs failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d papers, want 3", len(got))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Errorf("position %d: id = %d, want %d", i, got[i].ID, id)
		}
	}

	// Unknown ids are silently absent.
	got, err = db.PapersByIDs(ctx, []int64{all[0].ID, 9999})
	if err != nil {
		t.Fatalf("PapersByIDs failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d papers, want 1", len(got))
	}
}

func TestAllPapers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	batch := []Paper{testPaper("a"), testPaper("b"), testPaper("c")}
	if _, err := db.InsertPapers(ctx, batch); err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}

	all, err := db.AllPapers(ctx)
	if err != nil {
		t.Fatalf("AllPapers failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d papers, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("ids not ascending: %d after %d", all[i].ID, all[i-1].ID)
		}
	}
}

func TestSummariesForIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	withSummary := testPaper("2401.00001v1")
	noSummary := testPaper("2401.00002v1")
	noSummary.Summary = ""

	if _, err := db.InsertPapers(ctx, []Paper{withSummary, noSummary}); err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}

	summaries, err := db.SummariesForIndex(ctx)
	if err != nil {
		t.Fatalf("SummariesForIndex failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].Summary != withSummary.Summary {
		t.Errorf("summary = %q", summaries[0].Summary)
	}
}

func TestSaveUnsavePaper(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.InsertPapers(ctx, []Paper{testPaper("2401.00001v1")}); err != nil {
		t.Fatalf("InsertPapers failed: %v", err)
	}
	papers, _ := db.RecentPapers(ctx, 1)
	paperID := papers[0].ID

	userID, err := db.EnsureUser(ctx, "ada")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	// EnsureUser is idempotent.
	again, err := db.EnsureUser(ctx, "ada")
	if err != nil {
		t.Fatalf("EnsureUser (repeat) failed: %v", err)
	}
	if again != userID {
		t.Errorf("user id changed: %d vs %d", again, userID)
	}

	if err := db.SavePaper(ctx, userID, paperID); err != nil {
		t.Fatalf("SavePaper failed: %v", err)
	}

	saved, err := db.SavedPapers(ctx, userID)
	if err != nil {
		t.Fatalf("SavedPapers failed: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != paperID {
		t.Errorf("saved = %+v", saved)
	}

	if err := db.UnsavePaper(ctx, userID, paperID); err != nil {
		t.Fatalf("UnsavePaper failed: %v", err)
	}
	saved, _ = db.SavedPapers(ctx, userID)
	if len(saved) != 0 {
		t.Errorf("expected no saved papers, got %d", len(saved))
	}
}
