package republish_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"packmule/internal/linkcache"
	"packmule/internal/logging"
	"packmule/internal/pack"
	"packmule/internal/republish"
	"packmule/internal/services"
	"packmule/internal/userstate"
)

type fakeClient struct {
	receipt  republish.Receipt
	err      error
	uploads  int
	lastPack *republish.Pack
}

func (f *fakeClient) UploadPack(ctx context.Context, p *republish.Pack) (republish.Receipt, error) {
	f.uploads++
	f.lastPack = p
	if f.err != nil {
		return republish.Receipt{}, f.err
	}
	return f.receipt, nil
}

func writePackDir(t *testing.T, root, name string, descriptor pack.Descriptor, withThumb bool) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir pack dir: %v", err)
	}
	for i := range len(descriptor.Emojis) {
		path := filepath.Join(dir, pack.SlotKey(i)+".webp")
		if err := os.WriteFile(path, []byte("image-"+pack.SlotKey(i)), 0o644); err != nil {
			t.Fatalf("write slot: %v", err)
		}
	}
	if withThumb {
		if err := os.WriteFile(pack.ThumbPathIn(dir), []byte("thumb-bytes"), 0o644); err != nil {
			t.Fatalf("write thumb: %v", err)
		}
	}
	if err := pack.WriteDescriptor(pack.DescriptorPathIn(dir), descriptor); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return dir
}

func newPipeline(t *testing.T, client republish.Client) (*republish.Pipeline, *linkcache.Cache, *userstate.Service) {
	t.Helper()
	cache := linkcache.NewCache(filepath.Join(t.TempDir(), "links.json"), logging.NewNop())
	state := userstate.NewService(true)
	return republish.NewPipeline(client, cache, state, nil, logging.NewNop()), cache, state
}

func TestRepublishUploadsAndCachesLink(t *testing.T) {
	t.Parallel()

	client := &fakeClient{receipt: republish.Receipt{PackID: "abc123", PackKey: "def456"}}
	pipeline, cache, _ := newPipeline(t, client)

	dir := writePackDir(t, t.TempDir(), "animals", pack.Descriptor{
		Title:  "Animals",
		Name:   "animals",
		Author: "Jo",
		Emojis: map[string]string{"000": "🐶", "001": "🐱"},
	}, true)

	result, err := pipeline.Republish(context.Background(), 7, dir)
	if err != nil {
		t.Fatalf("Republish: %v", err)
	}
	wantLink := "https://signal.art/addstickers/#pack_id=abc123&pack_key=def456"
	if result.Link != wantLink {
		t.Fatalf("link = %q, want %q", result.Link, wantLink)
	}
	if result.Suspended {
		t.Fatal("unexpected suspension")
	}
	if client.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", client.uploads)
	}
	if got := len(client.lastPack.Stickers); got != 2 {
		t.Fatalf("uploaded stickers = %d, want 2", got)
	}
	if client.lastPack.Stickers[0].Emoji != "🐶" {
		t.Fatalf("first emoji = %q, want 🐶", client.lastPack.Stickers[0].Emoji)
	}
	if string(client.lastPack.Cover) != "thumb-bytes" {
		t.Fatalf("cover = %q, want thumbnail bytes", client.lastPack.Cover)
	}
	if cached, ok := cache.Lookup("animals"); !ok || cached != wantLink {
		t.Fatalf("cache entry = %q/%v, want %q", cached, ok, wantLink)
	}
}

func TestRepublishShortCircuitsThroughCache(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("must not be called")}
	pipeline, cache, _ := newPipeline(t, client)
	if err := cache.Store("animals", "https://signal.art/addstickers/#pack_id=x&pack_key=y"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	result, err := pipeline.Republish(context.Background(), 7, filepath.Join(t.TempDir(), "animals"))
	if err != nil {
		t.Fatalf("Republish: %v", err)
	}
	if !result.Cached {
		t.Fatal("expected cached result")
	}
	if result.Link != "https://signal.art/addstickers/#pack_id=x&pack_key=y" {
		t.Fatalf("link = %q", result.Link)
	}
	if client.uploads != 0 {
		t.Fatalf("uploads = %d, want 0", client.uploads)
	}
}

func TestRepublishSuspendsWithoutAuthor(t *testing.T) {
	t.Parallel()

	client := &fakeClient{receipt: republish.Receipt{PackID: "a", PackKey: "b"}}
	pipeline, _, state := newPipeline(t, client)

	dir := writePackDir(t, t.TempDir(), "animals", pack.Descriptor{
		Title:  "Animals",
		Name:   "animals",
		Emojis: map[string]string{"000": "🐶"},
	}, false)

	result, err := pipeline.Republish(context.Background(), 7, dir)
	if err != nil {
		t.Fatalf("Republish: %v", err)
	}
	if !result.Suspended {
		t.Fatal("expected suspended result")
	}
	if client.uploads != 0 {
		t.Fatalf("uploads = %d, want 0", client.uploads)
	}
	if cont, ok := state.PeekContinuation(7); !ok || cont.PackDir != dir {
		t.Fatalf("continuation = %+v/%v, want pack dir %s", cont, ok, dir)
	}
}

func TestResumeRecordsAuthorAndUploadsOnce(t *testing.T) {
	t.Parallel()

	client := &fakeClient{receipt: republish.Receipt{PackID: "a", PackKey: "b"}}
	pipeline, _, state := newPipeline(t, client)

	dir := writePackDir(t, t.TempDir(), "animals", pack.Descriptor{
		Title:  "Animals",
		Name:   "animals",
		Emojis: map[string]string{"000": "🐶"},
	}, false)

	if result, err := pipeline.Republish(context.Background(), 7, dir); err != nil || !result.Suspended {
		t.Fatalf("expected suspension, got %+v, %v", result, err)
	}

	result, resumed, err := pipeline.Resume(context.Background(), 7, "Jo")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !resumed {
		t.Fatal("expected a pending continuation")
	}
	if result.Link == "" || result.Suspended {
		t.Fatalf("unexpected result %+v", result)
	}
	if client.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", client.uploads)
	}
	if client.lastPack.Author != "Jo" {
		t.Fatalf("author = %q, want Jo", client.lastPack.Author)
	}

	descriptor, err := pack.ReadDescriptor(pack.DescriptorPathIn(dir))
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	if descriptor.Author != "Jo" {
		t.Fatalf("descriptor author = %q, want Jo", descriptor.Author)
	}

	if _, resumed, _ := pipeline.Resume(context.Background(), 7, "again"); resumed {
		t.Fatal("continuation should be cleared after resume")
	}
}

func TestResumeClearsContinuationEvenWhenUploadFails(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("remote down")}
	pipeline, cache, state := newPipeline(t, client)

	dir := writePackDir(t, t.TempDir(), "animals", pack.Descriptor{
		Name:   "animals",
		Emojis: map[string]string{"000": "🐶"},
	}, false)
	state.SetContinuation(7, userstate.Continuation{PackDir: dir})

	_, resumed, err := pipeline.Resume(context.Background(), 7, "Jo")
	if !resumed {
		t.Fatal("expected a pending continuation")
	}
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if _, ok := state.PeekContinuation(7); ok {
		t.Fatal("continuation should be cleared before the upload attempt")
	}
	if _, ok := cache.Lookup("animals"); ok {
		t.Fatal("cache must stay untouched on upload failure")
	}
}

func TestRepublishDuplicatesFirstSlotWhenThumbnailMissing(t *testing.T) {
	t.Parallel()

	client := &fakeClient{receipt: republish.Receipt{PackID: "a", PackKey: "b"}}
	pipeline, _, _ := newPipeline(t, client)

	dir := writePackDir(t, t.TempDir(), "animals", pack.Descriptor{
		Title:  "Animals",
		Name:   "animals",
		Author: "Jo",
		Emojis: map[string]string{"000": "🐶", "001": "🐱"},
	}, false)

	if _, err := pipeline.Republish(context.Background(), 7, dir); err != nil {
		t.Fatalf("Republish: %v", err)
	}
	if string(client.lastPack.Cover) != "image-000" {
		t.Fatalf("cover = %q, want first slot bytes", client.lastPack.Cover)
	}
}
