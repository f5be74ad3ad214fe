package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/UKHO/kluster/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	db, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(path string, uniqueID int64) *JournalRecord {
	added := time.Date(2020, 3, 17, 12, 0, 0, 0, time.UTC)
	return &JournalRecord{
		Path:       path,
		FileName:   filepath.Base(path),
		Category:   "multibeam",
		FormatType: "kongsberg_kmall",
		SizeKB:     1024,
		ModifiedAt: added.Add(-time.Hour),
		CreatedAt:  added.Add(-2 * time.Hour),
		AddedAt:    added,
		UniqueID:   uniqueID,
	}
}

func TestJournalSaveAndGetRecord(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	want := testRecord("/raw/line1.kmall", 0)
	if err := j.SaveRecord(want); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	got, err := j.GetRecord("/raw/line1.kmall")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.FileName != "line1.kmall" {
		t.Errorf("file name = %q, want line1.kmall", got.FileName)
	}
	if got.Category != "multibeam" || got.FormatType != "kongsberg_kmall" {
		t.Errorf("category/format = %q/%q", got.Category, got.FormatType)
	}
	if got.SizeKB != 1024 {
		t.Errorf("size = %v, want 1024", got.SizeKB)
	}
	if !got.AddedAt.Equal(want.AddedAt) {
		t.Errorf("added at = %v, want %v", got.AddedAt, want.AddedAt)
	}
	if got.UniqueID != 0 {
		t.Errorf("unique id = %d, want 0", got.UniqueID)
	}
}

func TestJournalGetRecordAbsent(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	got, err := j.GetRecord("/never/added.all")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown path, got %+v", got)
	}
}

func TestJournalSaveRecordReplaces(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	rec := testRecord("/raw/line1.kmall", 3)
	if err := j.SaveRecord(rec); err != nil {
		t.Fatal(err)
	}
	rec.SizeKB = 2048
	if err := j.SaveRecord(rec); err != nil {
		t.Fatal(err)
	}

	records, err := j.ListRecords("")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after replace, got %d", len(records))
	}
	if records[0].SizeKB != 2048 {
		t.Errorf("size after replace = %v, want 2048", records[0].SizeKB)
	}
}

func TestJournalListRecordsByCategory(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	mbes := testRecord("/raw/line1.kmall", 0)
	nav := testRecord("/nav/sbet.out", 1)
	nav.Category = "navigation"
	nav.FormatType = "POSPac sbet"

	for _, rec := range []*JournalRecord{mbes, nav} {
		if err := j.SaveRecord(rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := j.ListRecords("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	// Ordered by unique id
	if all[0].Path != "/raw/line1.kmall" || all[1].Path != "/nav/sbet.out" {
		t.Errorf("unexpected order: %q, %q", all[0].Path, all[1].Path)
	}

	navOnly, err := j.ListRecords("navigation")
	if err != nil {
		t.Fatal(err)
	}
	if len(navOnly) != 1 || navOnly[0].Path != "/nav/sbet.out" {
		t.Errorf("category filter returned %+v", navOnly)
	}
}

func TestJournalDeleteRecord(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	if err := j.SaveRecord(testRecord("/raw/line1.kmall", 0)); err != nil {
		t.Fatal(err)
	}
	if err := j.DeleteRecord("/raw/line1.kmall"); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	got, err := j.GetRecord("/raw/line1.kmall")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("record still present after delete")
	}

	// Deleting an unknown path is a no-op
	if err := j.DeleteRecord("/never/added.all"); err != nil {
		t.Fatalf("delete of unknown path failed: %v", err)
	}
}

func TestJournalNextUniqueID(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	id, err := j.NextUniqueID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Errorf("fresh journal next id = %d, want 0", id)
	}

	if err := j.SetNextUniqueID(42); err != nil {
		t.Fatal(err)
	}
	id, err = j.NextUniqueID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Errorf("next id = %d, want 42", id)
	}

	// High-water mark only moves forward in practice, but Set is a plain
	// overwrite; the caller owns the monotonicity
	if err := j.SetNextUniqueID(43); err != nil {
		t.Fatal(err)
	}
	id, _ = j.NextUniqueID()
	if id != 43 {
		t.Errorf("next id after update = %d, want 43", id)
	}
}

func TestJournalActionLog(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db)

	base := time.Date(2020, 3, 17, 12, 0, 0, 0, time.UTC)
	entries := []*ActionLogEntry{
		{ID: "a1", ActionType: "multibeam", Destination: "/proj/em710_241", ExecutedAt: base, Succeeded: true},
		{ID: "a2", ActionType: "navigation", Destination: "em710_241_03_17_2020", ExecutedAt: base.Add(time.Minute), Succeeded: false, Error: "sbet unreadable"},
	}
	for _, e := range entries {
		if err := j.LogAction(e); err != nil {
			t.Fatalf("LogAction failed: %v", err)
		}
	}

	got, err := j.ListActions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("order = %q, %q; want a1, a2", got[0].ID, got[1].ID)
	}
	if !got[0].Succeeded || got[0].Error != "" {
		t.Errorf("first entry = %+v, want success with empty error", got[0])
	}
	if got[1].Succeeded || got[1].Error != "sbet unreadable" {
		t.Errorf("second entry = %+v, want failure with message", got[1])
	}
	if !got[1].ExecutedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("executed at = %v", got[1].ExecutedAt)
	}
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	root := t.TempDir()

	db, err := Open(root, logger)
	if err != nil {
		t.Fatal(err)
	}
	j := NewJournal(db)
	if err := j.SaveRecord(testRecord("/raw/line1.kmall", 0)); err != nil {
		t.Fatal(err)
	}
	if err := j.SetNextUniqueID(1); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(root, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	j = NewJournal(db)

	rec, err := j.GetRecord("/raw/line1.kmall")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.UniqueID != 0 {
		t.Fatalf("record after reopen = %+v", rec)
	}
	id, err := j.NextUniqueID()
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("next id after reopen = %d, want 1", id)
	}
}
