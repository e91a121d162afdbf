package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"packmule/internal/config"
)

const userAgent = "Packmule/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyPackArchived(ctx context.Context, packName string, stickers int) error
	NotifyPackRepublished(ctx context.Context, packName, link string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sendErrors: cfg.Notifications.Errors,
		sendPacks:  cfg.Notifications.Packs,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendErrors bool
	sendPacks  bool
}

func (n *ntfyService) NotifyPackArchived(ctx context.Context, packName string, stickers int) error {
	if !n.sendPacks {
		return nil
	}
	packName = strings.TrimSpace(packName)
	data := payload{
		title:   "Packmule - Pack Archived",
		message: fmt.Sprintf("📦 Archived %s (%d stickers)", packName, stickers),
		tags:    []string{"packmule", "pack", "archived"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPackRepublished(ctx context.Context, packName, link string) error {
	if !n.sendPacks {
		return nil
	}
	packName = strings.TrimSpace(packName)
	link = strings.TrimSpace(link)
	message := fmt.Sprintf("🔁 Republished %s", packName)
	if link != "" {
		message = fmt.Sprintf("%s\n%s", message, link)
	}
	data := payload{
		title:    "Packmule - Pack Republished",
		message:  message,
		tags:     []string{"packmule", "pack", "republished"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Packmule - Error",
		message:  builder.String(),
		tags:     []string{"packmule", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Packmule - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"packmule", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNop returns a notifier that silently discards every event.
func NewNop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) NotifyPackArchived(context.Context, string, int) error      { return nil }
func (noopService) NotifyPackRepublished(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
