package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"packmule/internal/config"
	"packmule/internal/logging"
	"packmule/internal/pack"
	"packmule/internal/services"
)

// Client wraps the Bot API with the narrow surface the dispatcher and fetch
// pipeline need: update polling, pack resolution, and outbound replies.
type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	logger      *slog.Logger
}

// New authenticates against the Bot API using the configured token.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Telegram.BotToken)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "telegram", "new", "bot token is not configured", nil)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "telegram", "new", "authenticate bot", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "telegram")
	logger.Info("authenticated", logging.String("bot_username", api.Self.UserName))
	return &Client{api: api, pollTimeout: cfg.Telegram.PollTimeout, logger: logger}, nil
}

// Updates opens the long-poll update channel.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	return c.api.GetUpdatesChan(u)
}

// StopPolling tears down the update channel.
func (c *Client) StopPolling() {
	c.api.StopReceivingUpdates()
}

// PackBySetName fetches the full sticker set and maps it into the internal
// pack model.
func (c *Client) PackBySetName(setName string) (*pack.RemotePack, error) {
	set, err := c.api.GetStickerSet(tgbotapi.GetStickerSetConfig{Name: setName})
	if err != nil {
		return nil, services.Wrap(services.ErrResolution, "telegram", "get-sticker-set", "fetch sticker set "+setName, err)
	}

	remote := &pack.RemotePack{
		Name:  set.Name,
		Title: set.Title,
		Slots: make([]pack.RemoteSlot, 0, len(set.Stickers)),
	}
	if set.Thumbnail != nil {
		remote.ThumbRef = set.Thumbnail.FileID
	}
	for _, sticker := range set.Stickers {
		remote.Slots = append(remote.Slots, pack.RemoteSlot{
			FileRef: sticker.FileID,
			Emoji:   sticker.Emoji,
			Format:  formatOf(sticker),
		})
	}
	return remote, nil
}

// ResolveURL exchanges an opaque file reference for a short-lived download
// URL. Satisfies the fetch resolver contract. The Bot API client has no
// context plumbing, so cancellation is only honored between calls.
func (c *Client) ResolveURL(ctx context.Context, fileRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	url, err := c.api.GetFileDirectURL(fileRef)
	if err != nil {
		return "", services.Wrap(services.ErrResolution, "telegram", "resolve-url", "resolve file "+fileRef, err)
	}
	return url, nil
}

// SendText posts a plain text message to the chat.
func (c *Client) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		return services.Wrap(services.ErrTransient, "telegram", "send-text", "send message", err)
	}
	return nil
}

// SendDocument uploads a local file to the chat as a document attachment.
func (c *Client) SendDocument(chatID int64, path string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	if _, err := c.api.Send(doc); err != nil {
		return services.Wrap(services.ErrTransient, "telegram", "send-document", "send document "+path, err)
	}
	return nil
}

func formatOf(sticker tgbotapi.Sticker) pack.Format {
	switch {
	case sticker.IsAnimated:
		return pack.FormatAnimated
	case sticker.IsVideo:
		return pack.FormatVideo
	default:
		return pack.FormatStatic
	}
}
