package journal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tsfix/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTest(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"), testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLatest(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for i, orig := range []string{"v1", "v2"} {
		err := s.Record(ctx, domain.JournalEntry{
			Path:       "/src/server.ts",
			Fixer:      "types",
			Changes:    i + 1,
			Original:   orig,
			ResultHash: HashContent(orig + "!"),
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	e, err := s.Latest(ctx, "/src/server.ts")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if e.Original != "v2" || e.Changes != 2 || e.Fixer != "types" {
		t.Fatalf("unexpected latest entry: %+v", e)
	}
	if e.ResultHash != HashContent("v2!") {
		t.Fatalf("unexpected hash: %q", e.ResultHash)
	}
}

func TestLatest_NoEntry(t *testing.T) {
	s := openTest(t)
	_, err := s.Latest(context.Background(), "/never/seen.ts")
	if !errors.Is(err, ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry, got %v", err)
	}
}

func TestList_NewestFirstAndLimit(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, p := range []string{"a.ts", "b.ts", "c.ts"} {
		if err := s.Record(ctx, domain.JournalEntry{Path: p, Fixer: "addtool", Original: p, ResultHash: "h"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "c.ts" || entries[1].Path != "b.ts" {
		t.Fatalf("expected newest first, got %s, %s", entries[0].Path, entries[1].Path)
	}
	if entries[0].Original != "" {
		t.Fatal("List should not load original content")
	}
}

func TestDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.Record(ctx, domain.JournalEntry{Path: "a.ts", Fixer: "types", Original: "old", ResultHash: "h"})

	e, err := s.Latest(ctx, "a.ts")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Latest(ctx, "a.ts"); !errors.Is(err, ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry after delete, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	s.Record(ctx, domain.JournalEntry{Path: "old.ts", Fixer: "types", Original: "x", ResultHash: "h",
		CreatedAt: time.Now().AddDate(0, 0, -40)})
	s.Record(ctx, domain.JournalEntry{Path: "new.ts", Fixer: "types", Original: "y", ResultHash: "h"})

	n, err := s.Prune(ctx, 30)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned row, got %d", n)
	}
	if _, err := s.Latest(ctx, "new.ts"); err != nil {
		t.Fatalf("recent entry should survive: %v", err)
	}
}

func TestPrune_ZeroKeepsAll(t *testing.T) {
	s := openTest(t)
	n, err := s.Prune(context.Background(), 0)
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", n, err)
	}
}

func TestHashContent(t *testing.T) {
	if HashContent("a") == HashContent("b") {
		t.Fatal("different content must hash differently")
	}
	if len(HashContent("")) != 64 {
		t.Fatal("expected hex sha256")
	}
}
