package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofrs/flock"

	"packmule/internal/bot"
	"packmule/internal/catalog"
	"packmule/internal/config"
	"packmule/internal/logging"
)

// UpdateSource provides the inbound update stream. Implemented by the
// source platform client.
type UpdateSource interface {
	Updates() tgbotapi.UpdatesChannel
	StopPolling()
}

// Daemon owns the long-running bot process and enforces single-instance
// execution via a file lock next to the logs.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	source     UpdateSource
	dispatcher *bot.Dispatcher
	catalog    *catalog.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized dependencies. catalog may be nil.
func New(cfg *config.Config, source UpdateSource, dispatcher *bot.Dispatcher, cat *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || source == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config, update source, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "packmuled.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		source:     source,
		dispatcher: dispatcher,
		catalog:    cat,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and begins consuming updates.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another packmule daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	updates := d.source.Updates()
	go func() {
		defer close(d.done)
		if err := d.dispatcher.Run(d.ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("dispatcher stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("packmule daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts update consumption, waits for in-flight handlers, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.source.StopPolling()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("packmule daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.catalog != nil {
		return d.catalog.Close()
	}
	return nil
}

// Running reports whether the daemon is consuming updates.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the single-instance lock location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
