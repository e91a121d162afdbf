package republish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"packmule/internal/catalog"
	"packmule/internal/linkcache"
	"packmule/internal/logging"
	"packmule/internal/pack"
	"packmule/internal/services"
	"packmule/internal/userstate"
)

// Result describes the outcome of a republish attempt. Exactly one of Link
// or Suspended is meaningful: a suspended run has no link yet and is waiting
// for the user to supply an author name.
type Result struct {
	Pack      string
	Link      string
	Suspended bool
	Cached    bool
}

// Pipeline converts an on-disk pack into the destination platform's
// representation, uploads it, and caches the shareable deep link.
type Pipeline struct {
	client  Client
	cache   *linkcache.Cache
	state   *userstate.Service
	catalog *catalog.Store
	logger  *slog.Logger
}

// NewPipeline wires the republish pipeline. catalog may be nil; link
// bookkeeping in the history catalog is then skipped.
func NewPipeline(client Client, cache *linkcache.Cache, state *userstate.Service, cat *catalog.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		client:  client,
		cache:   cache,
		state:   state,
		catalog: cat,
		logger:  logging.NewComponentLogger(logger, "republish"),
	}
}

// Republish publishes the pack at packDir to the destination platform. The
// link cache is consulted first: a cached pack never touches the remote
// platform again. When the descriptor carries no author, the flow suspends
// and a continuation is recorded against userID.
func (p *Pipeline) Republish(ctx context.Context, userID int64, packDir string) (Result, error) {
	packName := filepath.Base(packDir)
	log := p.logger.With(logging.FieldPack, packName, logging.FieldUserID, userID)

	if link, ok := p.cache.Lookup(packName); ok {
		log.Info("republish short-circuited by cache", logging.String("link", link))
		return Result{Pack: packName, Link: link, Cached: true}, nil
	}

	descriptor, err := pack.ReadDescriptor(pack.DescriptorPathIn(packDir))
	if err != nil {
		return Result{}, services.Wrap(services.ErrUpload, "republish", "read-descriptor", "read pack metadata", err)
	}

	if strings.TrimSpace(descriptor.Author) == "" {
		p.state.SetContinuation(userID, userstate.Continuation{PackDir: packDir})
		log.Info("suspending republish awaiting author")
		return Result{Pack: packName, Suspended: true}, nil
	}

	return p.upload(ctx, log, packDir, packName, descriptor)
}

// Resume completes a suspended republish with the author the user supplied.
// The continuation is cleared before any side effect, so a failure during
// the resumed upload cannot replay from the same message. Returns false when
// the user has no pending continuation.
func (p *Pipeline) Resume(ctx context.Context, userID int64, author string) (Result, bool, error) {
	cont, ok := p.state.TakeContinuation(userID)
	if !ok {
		return Result{}, false, nil
	}

	if err := pack.SetAuthor(pack.DescriptorPathIn(cont.PackDir), author); err != nil {
		return Result{}, true, services.Wrap(services.ErrUpload, "republish", "set-author", "record author", err)
	}

	result, err := p.Republish(ctx, userID, cont.PackDir)
	return result, true, err
}

func (p *Pipeline) upload(ctx context.Context, log *slog.Logger, packDir, packName string, descriptor pack.Descriptor) (Result, error) {
	outbound, err := buildPack(packDir, descriptor)
	if err != nil {
		return Result{}, services.Wrap(services.ErrUpload, "republish", "build-pack", "assemble destination pack", err)
	}

	receipt, err := p.client.UploadPack(ctx, outbound)
	if err != nil {
		return Result{}, services.Wrap(services.ErrUpload, "republish", "upload", "upload pack "+packName, err)
	}

	link := DeepLink(receipt)
	if err := p.cache.Store(packName, link); err != nil {
		log.Warn("republished but failed to cache link", logging.Error(err))
	}
	if p.catalog != nil {
		if err := p.catalog.SetLink(ctx, packName, link); err != nil && !errors.Is(err, catalog.ErrNotFound) {
			log.Warn("failed to record link in catalog", logging.Error(err))
		}
	}

	log.Info("pack republished",
		logging.Int("stickers", len(outbound.Stickers)),
		logging.String("link", link))
	return Result{Pack: packName, Link: link}, nil
}

// DeepLink composes the shareable install URL from an upload receipt.
func DeepLink(r Receipt) string {
	return fmt.Sprintf("https://signal.art/addstickers/#pack_id=%s&pack_key=%s", r.PackID, r.PackKey)
}

// buildPack loads slot images in order, pairs them with descriptor emojis,
// and picks a cover: the downloaded thumbnail when present, otherwise the
// first slot image duplicated.
func buildPack(packDir string, descriptor pack.Descriptor) (*Pack, error) {
	entries, err := os.ReadDir(packDir)
	if err != nil {
		return nil, fmt.Errorf("read pack directory: %w", err)
	}

	var slotFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isSlotFile(entry.Name()) {
			slotFiles = append(slotFiles, entry.Name())
		}
	}
	if len(slotFiles) == 0 {
		return nil, fmt.Errorf("pack directory %s has no sticker images", packDir)
	}
	sort.Strings(slotFiles)

	outbound := &Pack{
		Title:    displayTitle(descriptor),
		Author:   descriptor.Author,
		Stickers: make([]Sticker, 0, len(slotFiles)),
	}
	for _, name := range slotFiles {
		image, err := os.ReadFile(filepath.Join(packDir, name))
		if err != nil {
			return nil, fmt.Errorf("read slot image %s: %w", name, err)
		}
		slotKey := strings.TrimSuffix(name, filepath.Ext(name))
		outbound.Stickers = append(outbound.Stickers, Sticker{
			Emoji: descriptor.Emojis[slotKey],
			Image: image,
		})
	}

	cover, err := os.ReadFile(pack.ThumbPathIn(packDir))
	if err != nil {
		cover = outbound.Stickers[0].Image
	}
	outbound.Cover = cover
	return outbound, nil
}

// isSlotFile matches the zero-padded slot layout: a three-digit stem plus a
// format extension.
func isSlotFile(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if len(stem) != 3 {
		return false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// displayTitle returns the descriptor title, falling back to a humanized
// form of the pack name when the source platform reported none.
func displayTitle(descriptor pack.Descriptor) string {
	if title := strings.TrimSpace(descriptor.Title); title != "" {
		return title
	}
	humanized := strings.NewReplacer("_", " ", "-", " ").Replace(descriptor.Name)
	return cases.Title(language.Und).String(humanized)
}
