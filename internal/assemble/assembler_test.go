package assemble_test

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"packmule/internal/archive"
	"packmule/internal/assemble"
	"packmule/internal/config"
	"packmule/internal/fetch"
	"packmule/internal/logging"
	"packmule/internal/pack"
	"packmule/internal/services"
)

type fakeSource struct {
	pack *pack.RemotePack
	err  error
}

func (f *fakeSource) PackBySetName(setName string) (*pack.RemotePack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pack, nil
}

type serverResolver struct {
	baseURL string
}

func (r *serverResolver) ResolveURL(ctx context.Context, fileRef string) (string, error) {
	return r.baseURL + "/" + fileRef, nil
}

func newAssembler(t *testing.T, source assemble.Source) (*assemble.Assembler, string) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes-for-" + r.URL.Path[1:]))
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = root
	cfg.Paths.MinFreeMiB = 0

	fetcher := fetch.NewFetcher(&serverResolver{baseURL: server.URL}, logging.NewNop())
	archiver := archive.NewArchiver(2, logging.NewNop())
	return assemble.NewAssembler(&cfg, source, fetcher, archiver, nil, logging.NewNop()), root
}

func animalsPack() *pack.RemotePack {
	return &pack.RemotePack{
		Name:  "animals",
		Title: "Animals",
		Slots: []pack.RemoteSlot{
			{FileRef: "dog", Emoji: "🐶", Format: pack.FormatStatic},
			{FileRef: "cat", Emoji: "🐱", Format: pack.FormatStatic},
		},
		ThumbRef: "thumbref",
	}
}

func TestAssembleProducesArchiveAndDescriptor(t *testing.T) {
	t.Parallel()

	assembler, root := newAssembler(t, &fakeSource{pack: animalsPack()})

	outcome, err := assembler.Assemble(context.Background(), "animals", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if outcome.Stickers != 2 {
		t.Fatalf("stickers = %d, want 2", outcome.Stickers)
	}

	layout, err := pack.LayoutFor(root, "animals")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if outcome.ArchivePath != layout.ArchivePath() {
		t.Fatalf("archive path = %q, want %q", outcome.ArchivePath, layout.ArchivePath())
	}

	descriptor, err := pack.ReadDescriptor(layout.DescriptorPath())
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	if descriptor.Title != "Animals" || descriptor.Name != "animals" {
		t.Fatalf("descriptor = %+v", descriptor)
	}
	if descriptor.Emojis["000"] != "🐶" || descriptor.Emojis["001"] != "🐱" {
		t.Fatalf("emoji map = %v", descriptor.Emojis)
	}

	reader, err := zip.OpenReader(outcome.ArchivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	names := make(map[string]bool, len(reader.File))
	for _, f := range reader.File {
		names[f.Name] = true
	}
	for _, want := range []string{"000.webp", "001.webp", "thumb.webp", "metadata.json"} {
		if !names[want] {
			t.Fatalf("archive missing %s, has %v", want, names)
		}
	}
}

func TestAssembleFailsWithoutPackIdentity(t *testing.T) {
	t.Parallel()

	assembler, _ := newAssembler(t, &fakeSource{})
	_, err := assembler.Assemble(context.Background(), "  ", nil)
	if !errors.Is(err, services.ErrNotInPack) {
		t.Fatalf("expected ErrNotInPack, got %v", err)
	}
}

func TestAssemblePreservesAuthorAcrossRuns(t *testing.T) {
	t.Parallel()

	assembler, root := newAssembler(t, &fakeSource{pack: animalsPack()})

	if _, err := assembler.Assemble(context.Background(), "animals", nil); err != nil {
		t.Fatalf("first assemble: %v", err)
	}

	layout, _ := pack.LayoutFor(root, "animals")
	if err := pack.SetAuthor(layout.DescriptorPath(), "Jo"); err != nil {
		t.Fatalf("set author: %v", err)
	}

	if _, err := assembler.Assemble(context.Background(), "animals", nil); err != nil {
		t.Fatalf("second assemble: %v", err)
	}

	descriptor, err := pack.ReadDescriptor(layout.DescriptorPath())
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	if descriptor.Author != "Jo" {
		t.Fatalf("author = %q, want Jo after re-assembly", descriptor.Author)
	}
}

func TestAssembleSkipsExistingAssets(t *testing.T) {
	t.Parallel()

	assembler, root := newAssembler(t, &fakeSource{pack: animalsPack()})

	first, err := assembler.Assemble(context.Background(), "animals", nil)
	if err != nil {
		t.Fatalf("first assemble: %v", err)
	}
	if len(first.Report.Downloaded) != 3 {
		t.Fatalf("first run downloaded = %d, want 3", len(first.Report.Downloaded))
	}

	second, err := assembler.Assemble(context.Background(), "animals", nil)
	if err != nil {
		t.Fatalf("second assemble: %v", err)
	}
	if len(second.Report.Downloaded) != 0 {
		t.Fatalf("second run downloaded = %d, want 0", len(second.Report.Downloaded))
	}
	if len(second.Report.Skipped) != 3 {
		t.Fatalf("second run skipped = %d, want 3", len(second.Report.Skipped))
	}

	layout, _ := pack.LayoutFor(root, "animals")
	if _, err := os.Stat(layout.ThumbPath()); err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
}

func TestAssembleReportsStageProgress(t *testing.T) {
	t.Parallel()

	assembler, _ := newAssembler(t, &fakeSource{pack: animalsPack()})

	var stages []assemble.Stage
	_, err := assembler.Assemble(context.Background(), "animals", func(stage assemble.Stage) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []assemble.Stage{assemble.StageResolving, assemble.StageDownloading, assemble.StageArchiving}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i, s := range want {
		if stages[i] != s {
			t.Fatalf("stages = %v, want %v", stages, want)
		}
	}
}

func TestAssemblePropagatesSourceFailure(t *testing.T) {
	t.Parallel()

	boom := services.Wrap(services.ErrResolution, "telegram", "get-sticker-set", "fetch sticker set", errors.New("timeout"))
	assembler, _ := newAssembler(t, &fakeSource{err: boom})
	_, err := assembler.Assemble(context.Background(), "animals", nil)
	if !errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}
