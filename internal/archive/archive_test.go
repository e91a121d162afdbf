package archive_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"packmule/internal/archive"
	"packmule/internal/logging"
)

func seedPackDir(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	sort.Strings(names)
	return names
}

func TestArchiveContainsPackFilesAtRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	packDir := filepath.Join(root, "P")
	seedPackDir(t, packDir, map[string]string{
		"000.webp":      "a",
		"001.webp":      "b",
		"002.webp":      "c",
		"metadata.json": `{"title":"T","name":"P"}`,
	})

	archiver := archive.NewArchiver(1, logging.NewNop())
	archivePath := filepath.Join(root, "P.zip")
	if err := archiver.Archive(context.Background(), packDir, archivePath); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	got := archiveNames(t, archivePath)
	want := []string{"000.webp", "001.webp", "002.webp", "metadata.json"}
	if len(got) != len(want) {
		t.Fatalf("unexpected entries: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestArchiveOverwritesPriorArchive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	packDir := filepath.Join(root, "P")
	seedPackDir(t, packDir, map[string]string{"000.webp": "a"})

	archiver := archive.NewArchiver(1, logging.NewNop())
	archivePath := filepath.Join(root, "P.zip")
	if err := archiver.Archive(context.Background(), packDir, archivePath); err != nil {
		t.Fatalf("first archive: %v", err)
	}

	seedPackDir(t, packDir, map[string]string{"001.webp": "b"})
	if err := archiver.Archive(context.Background(), packDir, archivePath); err != nil {
		t.Fatalf("second archive: %v", err)
	}

	got := archiveNames(t, archivePath)
	if len(got) != 2 {
		t.Fatalf("expected rebuilt archive with 2 entries, got %v", got)
	}
}

func TestConcurrentArchivesShareTheWorkerPool(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archiver := archive.NewArchiver(1, logging.NewNop())

	done := make(chan error, 2)
	for _, name := range []string{"P1", "P2"} {
		packDir := filepath.Join(root, name)
		seedPackDir(t, packDir, map[string]string{"000.webp": name})
		go func(dir, out string) {
			done <- archiver.Archive(context.Background(), dir, out)
		}(packDir, filepath.Join(root, name+".zip"))
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("archive %d: %v", i, err)
		}
	}
	for _, name := range []string{"P1.zip", "P2.zip"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
