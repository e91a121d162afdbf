package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"packmule/internal/catalog"
	"packmule/internal/config"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(dir, "dl")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.LinkCache.Path = filepath.Join(dir, "cache", "links.json")

	store, err := catalog.Open(&cfg)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordProcessedUpserts(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	if err := store.RecordProcessed(ctx, "animals", "Animals", 3, "/dl/animals.zip"); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.RecordProcessed(ctx, "animals", "Animals v2", 4, "/dl/animals.zip"); err != nil {
		t.Fatalf("second record: %v", err)
	}

	rec, err := store.Get(ctx, "animals")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.TimesProcessed != 2 {
		t.Fatalf("expected 2 processings, got %d", rec.TimesProcessed)
	}
	if rec.Title != "Animals v2" || rec.StickerCount != 4 {
		t.Fatalf("latest run must win: %+v", rec)
	}
	if rec.FirstProcessed.After(rec.LastProcessed) {
		t.Fatal("first_processed must not trail last_processed")
	}
}

func TestSetLink(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	if err := store.SetLink(ctx, "ghost", "x"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown pack, got %v", err)
	}

	if err := store.RecordProcessed(ctx, "animals", "Animals", 3, "/dl/animals.zip"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.SetLink(ctx, "animals", "https://signal.art/addstickers/#pack_id=a&pack_key=b"); err != nil {
		t.Fatalf("set link: %v", err)
	}

	rec, err := store.Get(ctx, "animals")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Link == "" {
		t.Fatal("expected link recorded")
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if err := store.RecordProcessed(ctx, name, name, 1, "/dl/"+name+".zip"); err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Name != "third" {
		t.Fatalf("expected newest first, got %q", records[0].Name)
	}
}

func TestGetUnknownPack(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
