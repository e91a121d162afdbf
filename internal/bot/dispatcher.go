package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"packmule/internal/assemble"
	"packmule/internal/logging"
	"packmule/internal/notifications"
	"packmule/internal/republish"
	"packmule/internal/services"
	"packmule/internal/userstate"
)

const (
	greeting = "Hi! Send me a sticker and I'll download its whole pack " +
		"and send it back as a zip. Use /toggle to also republish packs " +
		"to Signal."
	authorPrompt = "Who made this pack? Reply with the author name to " +
		"finish republishing."
)

// progressNotices are the stage replies sent while a pack is assembling.
var progressNotices = map[assemble.Stage]string{
	assemble.StageResolving:   "Gathering pack info…",
	assemble.StageDownloading: "Downloading stickers…",
	assemble.StageArchiving:   "Creating the archive…",
}

// Transport is the outbound message surface the dispatcher needs.
type Transport interface {
	SendText(chatID int64, text string) error
	SendDocument(chatID int64, path string) error
}

// Assembler runs the download-and-archive pipeline for one sticker set.
type Assembler interface {
	Assemble(ctx context.Context, setName string, progress assemble.ProgressFunc) (*assemble.Outcome, error)
}

// Republisher runs and resumes the destination platform pipeline.
type Republisher interface {
	Republish(ctx context.Context, userID int64, packDir string) (republish.Result, error)
	Resume(ctx context.Context, userID int64, author string) (republish.Result, bool, error)
}

// Dispatcher routes inbound updates to the pack pipeline. Each update is
// handled on its own goroutine; a failure in one pipeline never affects
// another or crashes the process.
type Dispatcher struct {
	transport   Transport
	assembler   Assembler
	republisher Republisher
	state       *userstate.Service
	notifier    notifications.Service
	logger      *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher wires the update router.
func NewDispatcher(transport Transport, assembler Assembler, republisher Republisher, state *userstate.Service, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Dispatcher{
		transport:   transport,
		assembler:   assembler,
		republisher: republisher,
		state:       state,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "bot"),
	}
}

// Run consumes updates until the channel closes or the context is
// cancelled, then waits for in-flight handlers to drain.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Dispatch(ctx, update)
			}()
		}
	}
}

// Dispatch routes one update. Exported for tests; Run calls it per update.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	correlationID := uuid.NewString()
	log := d.logger.With(
		logging.FieldCorrelationID, correlationID,
		logging.FieldUserID, msg.From.ID)
	ctx = services.WithRequestID(services.WithUserID(ctx, msg.From.ID), correlationID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", logging.Any("panic", r))
			d.reply(log, msg.Chat.ID, services.UserMessage(services.ErrTransient))
		}
	}()

	switch {
	case msg.IsCommand():
		d.handleCommand(ctx, log, msg)
	case msg.Sticker != nil:
		d.handleSticker(ctx, log, msg)
	default:
		d.handleText(ctx, log, msg)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		d.reply(log, msg.Chat.ID, greeting)
	case "toggle":
		enabled, err := d.state.Toggle(msg.From.ID)
		if err != nil {
			d.reply(log, msg.Chat.ID, services.UserMessage(err))
			return
		}
		if enabled {
			d.reply(log, msg.Chat.ID, "Republish mode is on: packs will also be uploaded to Signal.")
		} else {
			d.reply(log, msg.Chat.ID, "Republish mode is off: packs are download-only.")
		}
	default:
		d.reply(log, msg.Chat.ID, "I don't know that command. Send a sticker, or /toggle.")
	}
}

func (d *Dispatcher) handleSticker(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	setName := msg.Sticker.SetName
	log = log.With(logging.FieldPack, setName)

	outcome, err := d.assembler.Assemble(ctx, setName, func(stage assemble.Stage) {
		if notice, ok := progressNotices[stage]; ok {
			d.reply(log, msg.Chat.ID, notice)
		}
	})
	if err != nil {
		log.Error("pack assembly failed", logging.Error(err))
		d.notifyError(ctx, err, "pack "+setName)
		d.reply(log, msg.Chat.ID, services.UserMessage(err))
		return
	}

	if err := d.transport.SendDocument(msg.Chat.ID, outcome.ArchivePath); err != nil {
		log.Error("archive delivery failed", logging.Error(err))
		d.reply(log, msg.Chat.ID, services.UserMessage(err))
		return
	}
	if failed := len(outcome.Report.Failed); failed > 0 {
		d.reply(log, msg.Chat.ID, fmt.Sprintf("Heads up: %d sticker(s) failed to download and are missing from the archive. Send the sticker again later to fill the gaps.", failed))
	}
	if err := d.notifier.NotifyPackArchived(ctx, outcome.Name, outcome.Stickers); err != nil {
		log.Warn("archive notification failed", logging.Error(err))
	}

	if !d.state.RepublishEnabled(msg.From.ID) {
		return
	}
	d.runRepublish(ctx, log, msg.Chat.ID, msg.From.ID, outcome.PackDir)
}

func (d *Dispatcher) handleText(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	if _, pending := d.state.PeekContinuation(msg.From.ID); !pending {
		d.reply(log, msg.Chat.ID, "Send me a sticker to get started, or /help for details.")
		return
	}

	author := strings.TrimSpace(msg.Text)
	if author == "" {
		d.reply(log, msg.Chat.ID, authorPrompt)
		return
	}

	result, resumed, err := d.republisher.Resume(ctx, msg.From.ID, author)
	if !resumed {
		// Lost a race with another message holding the continuation.
		return
	}
	if err != nil {
		log.Error("resumed republish failed", logging.Error(err))
		d.notifyError(ctx, err, "republish resume")
		d.reply(log, msg.Chat.ID, services.UserMessage(err))
		return
	}
	d.deliverLink(ctx, log, msg.Chat.ID, result)
}

func (d *Dispatcher) runRepublish(ctx context.Context, log *slog.Logger, chatID, userID int64, packDir string) {
	result, err := d.republisher.Republish(ctx, userID, packDir)
	if err != nil {
		log.Error("republish failed", logging.Error(err))
		d.notifyError(ctx, err, "republish")
		d.reply(log, chatID, services.UserMessage(err))
		return
	}
	if result.Suspended {
		d.reply(log, chatID, authorPrompt)
		return
	}
	d.deliverLink(ctx, log, chatID, result)
}

func (d *Dispatcher) deliverLink(ctx context.Context, log *slog.Logger, chatID int64, result republish.Result) {
	if result.Link == "" {
		return
	}
	if result.Cached {
		d.reply(log, chatID, "Already republished: "+result.Link)
		return
	}
	d.reply(log, chatID, "Republished! Install it here: "+result.Link)
	if err := d.notifier.NotifyPackRepublished(ctx, result.Pack, result.Link); err != nil {
		log.Warn("republish notification failed", logging.Error(err))
	}
}

func (d *Dispatcher) reply(log *slog.Logger, chatID int64, text string) {
	if err := d.transport.SendText(chatID, text); err != nil {
		log.Error("reply failed", logging.Error(err))
	}
}

func (d *Dispatcher) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := d.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		d.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
