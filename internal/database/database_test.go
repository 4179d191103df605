package database

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"linemark/internal/urlnorm"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testArticle(owner, url string) NewArticle {
	return NewArticle{
		OwnerID:        owner,
		URL:            url,
		URLFingerprint: urlnorm.Fingerprint(url),
		Title:          "Test Article",
		Category:       "General",
		WordCount:      1000,
		ReadingTime:    5,
		Score:          500,
		FetchStatus:    "ok",
	}
}

func TestInsertOrGetCreates(t *testing.T) {
	db := openTestDB(t)

	a, created, err := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true for first insert")
	}
	if a.ID == "" {
		t.Error("expected non-empty article ID")
	}
	if a.Stage != StageInbox {
		t.Errorf("expected stage inbox, got %q", a.Stage)
	}
	if a.CreatedAt == "" || a.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
	if a.CreatedAt > a.UpdatedAt {
		t.Errorf("created_at %q after updated_at %q", a.CreatedAt, a.UpdatedAt)
	}
}

func TestInsertOrGetDeduplicates(t *testing.T) {
	db := openTestDB(t)
	na := testArticle("U1", "https://example.com/post")

	first, created, err := db.InsertOrGetArticle(na)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}

	na.Title = "Different Title"
	second, created, err := db.InsertOrGetArticle(na)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false for duplicate")
	}
	if second.ID != first.ID {
		t.Errorf("expected same article, got %q vs %q", second.ID, first.ID)
	}
	if second.Title != "Test Article" {
		t.Errorf("duplicate submission must not mutate the record, got title %q", second.Title)
	}
}

func TestInsertOrGetConcurrentSameURL(t *testing.T) {
	db := openTestDB(t)

	const n = 8
	ids := make([]string, n)
	createdCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, created, err := db.InsertOrGetArticle(testArticle("U1", "https://example.com/race"))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			ids[i] = a.ID
			if created {
				createdCount++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one creation, got %d", createdCount)
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Errorf("expected all callers to see one article, got %q vs %q", id, ids[0])
		}
	}
}

func TestSameURLDifferentOwners(t *testing.T) {
	db := openTestDB(t)

	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))
	b, created, err := db.InsertOrGetArticle(testArticle("U2", "https://example.com/post"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("same URL under a different owner should create a new record")
	}
	if a.ID == b.ID {
		t.Error("owners must not share article records")
	}
}

func TestUpdateStage(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))

	if err := db.UpdateStage("U1", a.ID, StageReading, 640); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := db.GetArticle("U1", a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Stage != StageReading {
		t.Errorf("expected stage reading, got %q", got.Stage)
	}
	if got.Score != 640 {
		t.Errorf("expected score 640, got %d", got.Score)
	}
	if got.CreatedAt > got.UpdatedAt {
		t.Errorf("created_at %q after updated_at %q", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpdateStageUnknownArticle(t *testing.T) {
	db := openTestDB(t)
	err := db.UpdateStage("U1", "no-such-id", StageReading, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStageWrongOwner(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))

	err := db.UpdateStage("U2", a.ID, StageReading, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign owner, got %v", err)
	}

	got, _ := db.GetArticle("U1", a.ID)
	if got.Stage != StageInbox {
		t.Errorf("foreign owner's call must not apply, stage is %q", got.Stage)
	}
}

func TestUpdateStageRejectsUnknownValue(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))
	db.UpdateStage("U1", a.ID, StageReviewing, 0)

	err := db.UpdateStage("U1", a.ID, Stage("archived"), 0)
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}

	got, _ := db.GetArticle("U1", a.ID)
	if got.Stage != StageReviewing {
		t.Errorf("rejected stage must not partially apply, stage is %q", got.Stage)
	}
}

func TestParseStage(t *testing.T) {
	for _, valid := range []string{"inbox", "reading", "reviewing", "completed"} {
		if _, err := ParseStage(valid); err != nil {
			t.Errorf("ParseStage(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "archived", "Inbox", "done", "INBOX"} {
		if _, err := ParseStage(invalid); !errors.Is(err, ErrInvalidStage) {
			t.Errorf("ParseStage(%q): expected ErrInvalidStage, got %v", invalid, err)
		}
	}
}

func TestSetArchived(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/post"))

	if err := db.SetArchived("U1", a.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := db.GetArticle("U1", a.ID)
	if !got.Archived {
		t.Error("expected archived=true")
	}
	if got.Stage != StageInbox {
		t.Error("archiving must not change the stage")
	}

	if err := db.SetArchived("U1", a.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = db.GetArticle("U1", a.ID)
	if got.Archived {
		t.Error("expected archived=false after unarchive")
	}
}

func TestQueryArticlesOwnerIsolation(t *testing.T) {
	db := openTestDB(t)
	db.InsertOrGetArticle(testArticle("U1", "https://example.com/a"))
	db.InsertOrGetArticle(testArticle("U1", "https://example.com/b"))
	db.InsertOrGetArticle(testArticle("U2", "https://example.com/c"))

	articles, err := db.QueryArticles("U1", Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	for _, a := range articles {
		if a.OwnerID != "U1" {
			t.Errorf("query leaked article owned by %q", a.OwnerID)
		}
	}
}

func TestQueryArticlesFilters(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/a"))
	b, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/b"))
	db.UpdateStage("U1", a.ID, StageReading, 600)
	db.SetArchived("U1", b.ID, true)

	reading := StageReading
	got, err := db.QueryArticles("U1", Filter{Stage: &reading})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("stage filter: expected only article %q, got %d rows", a.ID, len(got))
	}

	active := false
	got, err = db.QueryArticles("U1", Filter{Archived: &active})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("archived filter: expected only article %q, got %d rows", a.ID, len(got))
	}
}

func TestQueryArticlesOrderedByScore(t *testing.T) {
	db := openTestDB(t)
	low := testArticle("U1", "https://example.com/low")
	low.Score = 100
	high := testArticle("U1", "https://example.com/high")
	high.Score = 900
	db.InsertOrGetArticle(low)
	db.InsertOrGetArticle(high)

	got, err := db.QueryArticles("U1", Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Score < got[1].Score {
		t.Errorf("expected score-descending order, got %v", got)
	}
}

func TestUpdateExtraction(t *testing.T) {
	db := openTestDB(t)
	na := testArticle("U1", "https://example.com/post")
	na.FetchStatus = "failed"
	na.FetchReason = "unreachable"
	a, _, _ := db.InsertOrGetArticle(na)

	e := Extraction{
		Title:       "Recovered Title",
		Author:      "Jane Writer",
		Description: "Now reachable",
		Category:    "Technology",
		WordCount:   800,
		ReadingTime: 4,
		Score:       700,
		FetchStatus: "ok",
	}
	if err := db.UpdateExtraction("U1", a.ID, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := db.GetArticle("U1", a.ID)
	if got.Title != "Recovered Title" || got.FetchStatus != "ok" || got.FetchReason != "" {
		t.Errorf("extraction writeback incomplete: %+v", got)
	}
	if got.CreatedAt != a.CreatedAt {
		t.Error("re-extraction must not change created_at")
	}
	if got.Stage != a.Stage {
		t.Error("re-extraction must not change the stage")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	a, _, _ := db.InsertOrGetArticle(testArticle("U1", "https://example.com/a"))
	db.InsertOrGetArticle(testArticle("U1", "https://example.com/b"))
	db.InsertOrGetArticle(testArticle("U2", "https://example.com/c"))
	db.UpdateStage("U1", a.ID, StageCompleted, 0)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 3 {
		t.Errorf("expected 3 articles, got %d", stats.TotalArticles)
	}
	if stats.Owners != 2 {
		t.Errorf("expected 2 owners, got %d", stats.Owners)
	}
	if stats.ByStage[StageCompleted] != 1 {
		t.Errorf("expected 1 completed, got %d", stats.ByStage[StageCompleted])
	}
	if stats.ByStage[StageInbox] != 2 {
		t.Errorf("expected 2 inbox, got %d", stats.ByStage[StageInbox])
	}
}
