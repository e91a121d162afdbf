package linkcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"packmule/internal/logging"
)

// Entry is one cached republish link.
type Entry struct {
	Pack string
	Link string
}

// Cache provides thread-safe access to the pack→link mapping. Mutations hold
// one lock across load-state, mutate, and save, so concurrent pipelines
// cannot lose each other's entries.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates a cache backed by the given file. If path is empty, the
// cache is non-functional (all operations become no-ops). A malformed cache
// file is treated as empty: the mapping is rebuildable, losing it costs one
// redundant upload per pack, and refusing to start would cost the whole bot.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "linkcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]string),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load link cache, starting empty",
			logging.String(logging.FieldEventType, "linkcache_load_failed"),
			logging.Error(err))
	}

	return c
}

// Lookup returns the cached link for the given pack name if present.
func (c *Cache) Lookup(pack string) (string, bool) {
	pack = strings.TrimSpace(pack)
	if pack == "" || c.path == "" {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	link, found := c.entries[pack]
	return link, found
}

// Store records a pack's link and persists the cache.
func (c *Cache) Store(pack, link string) error {
	pack = strings.TrimSpace(pack)
	if pack == "" {
		return errors.New("pack name cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[pack] = link

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached republish link",
		logging.String(logging.FieldPack, pack),
		logging.String("link", link))
	return nil
}

// List returns all entries sorted by pack name.
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for pack, link := range c.entries {
		entries = append(entries, Entry{Pack: pack, Link: link})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Pack < entries[j].Pack
	})
	return entries
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cleared link cache")
	return nil
}

// Count returns the number of cached links.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]string, len(entries))
	for pack, link := range entries {
		if strings.TrimSpace(pack) != "" {
			c.entries[pack] = link
		}
	}

	c.logger.Debug("loaded link cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache to disk atomically.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
