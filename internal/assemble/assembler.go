package assemble

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"packmule/internal/archive"
	"packmule/internal/catalog"
	"packmule/internal/config"
	"packmule/internal/fetch"
	"packmule/internal/logging"
	"packmule/internal/pack"
	"packmule/internal/preflight"
	"packmule/internal/services"
)

// Source resolves a sticker set name into the full remote pack model.
// Implemented by the source platform client.
type Source interface {
	PackBySetName(setName string) (*pack.RemotePack, error)
}

// Stage labels the coarse phases of an assembly run, reported through the
// optional progress callback so the requester can be kept informed.
type Stage string

const (
	StageResolving   Stage = "resolving"
	StageDownloading Stage = "downloading"
	StageArchiving   Stage = "archiving"
)

// ProgressFunc receives stage transitions during Assemble. May be nil.
type ProgressFunc func(stage Stage)

// Outcome reports one completed assembly run.
type Outcome struct {
	Name        string
	Title       string
	PackDir     string
	ArchivePath string
	Stickers    int
	Report      fetch.Report
}

// Assembler orchestrates the per-pack pipeline: resolve the pack, fetch
// missing assets, write the metadata descriptor, and produce the archive.
type Assembler struct {
	source     Source
	fetcher    *fetch.Fetcher
	archiver   *archive.Archiver
	catalog    *catalog.Store
	space      *preflight.Space
	root       string
	minFreeMiB int64
	logger     *slog.Logger
}

// NewAssembler wires the assembly pipeline. catalog may be nil; processed
// packs are then not recorded in the history catalog.
func NewAssembler(cfg *config.Config, source Source, fetcher *fetch.Fetcher, archiver *archive.Archiver, cat *catalog.Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		source:     source,
		fetcher:    fetcher,
		archiver:   archiver,
		catalog:    cat,
		space:      preflight.NewSpace(),
		root:       cfg.Paths.DownloadDir,
		minFreeMiB: cfg.Paths.MinFreeMiB,
		logger:     logging.NewComponentLogger(logger, "assemble"),
	}
}

// Assemble runs the pipeline for one sticker set and returns the archive
// location. A sticker without a parent pack fails with ErrNotInPack before
// any disk or network work. Partially downloaded state from a failed run is
// left in place; the next run resumes by fetching only the gaps.
func (a *Assembler) Assemble(ctx context.Context, setName string, progress ProgressFunc) (*Outcome, error) {
	setName = strings.TrimSpace(setName)
	if setName == "" {
		return nil, services.Wrap(services.ErrNotInPack, "assemble", "resolve", "sticker has no parent pack", nil)
	}
	log := a.logger.With(logging.FieldPack, setName)
	report := func(stage Stage) {
		if progress != nil {
			progress(stage)
		}
	}

	if err := a.space.CheckFree(a.root, a.minFreeMiB); err != nil {
		return nil, services.Wrap(services.ErrTransient, "assemble", "preflight", "free space check", err)
	}

	report(StageResolving)
	remote, err := a.source.PackBySetName(setName)
	if err != nil {
		return nil, err
	}
	log.Info("resolved pack",
		logging.String("title", remote.Title),
		logging.Int("stickers", len(remote.Slots)))

	layout, err := pack.LayoutFor(a.root, remote.Name)
	if err != nil {
		return nil, services.Wrap(services.ErrResolution, "assemble", "layout", "derive pack layout", err)
	}
	if err := os.MkdirAll(layout.Dir(), 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "assemble", "mkdir", "create pack directory", err)
	}

	emojis := make(map[string]string, len(remote.Slots))
	items := make([]fetch.Item, 0, len(remote.Slots)+1)
	for i, slot := range remote.Slots {
		emojis[pack.SlotKey(i)] = slot.Emoji
		items = append(items, fetch.Item{
			FileRef:  slot.FileRef,
			DestPath: layout.SlotPath(i, slot.Format),
		})
	}
	if remote.ThumbRef != "" {
		items = append(items, fetch.Item{FileRef: remote.ThumbRef, DestPath: layout.ThumbPath()})
	}

	report(StageDownloading)
	fetchReport, err := a.fetcher.FetchMissing(ctx, items)
	if err != nil {
		return nil, err
	}

	descriptor := pack.Descriptor{
		Title:  remote.Title,
		Name:   remote.Name,
		Emojis: emojis,
	}
	if err := pack.WriteDescriptor(layout.DescriptorPath(), descriptor); err != nil {
		return nil, services.Wrap(services.ErrTransient, "assemble", "descriptor", "write pack metadata", err)
	}

	report(StageArchiving)
	archivePath := layout.ArchivePath()
	if err := a.archiver.Archive(ctx, layout.Dir(), archivePath); err != nil {
		return nil, err
	}

	if a.catalog != nil {
		if err := a.catalog.RecordProcessed(ctx, remote.Name, remote.Title, len(remote.Slots), archivePath); err != nil {
			log.Warn("failed to record pack in catalog", logging.Error(err))
		}
	}

	log.Info("pack assembled",
		logging.String("archive", archivePath),
		logging.Int("downloaded", len(fetchReport.Downloaded)),
		logging.Int("skipped", len(fetchReport.Skipped)),
		logging.Int("failed", len(fetchReport.Failed)))

	return &Outcome{
		Name:        remote.Name,
		Title:       remote.Title,
		PackDir:     layout.Dir(),
		ArchivePath: archivePath,
		Stickers:    len(remote.Slots),
		Report:      fetchReport,
	}, nil
}
