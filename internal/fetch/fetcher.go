package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"packmule/internal/logging"
	"packmule/internal/services"
)

// Resolver converts an opaque remote file reference into a short-lived
// download URL. Implemented by the source platform client.
type Resolver interface {
	ResolveURL(ctx context.Context, fileRef string) (string, error)
}

// Item pairs a remote file reference with its destination path.
type Item struct {
	FileRef  string
	DestPath string
}

// Report summarizes one FetchMissing run. Paths are destination paths.
type Report struct {
	Downloaded []string
	Skipped    []string
	Failed     []string
}

// Fetcher downloads missing pack assets over one shared connection pool.
type Fetcher struct {
	resolver Resolver
	client   *http.Client
	logger   *slog.Logger
}

// NewFetcher constructs a fetcher. The HTTP client is shared across all
// downloads so the connection pool provides practical backpressure.
func NewFetcher(resolver Resolver, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		resolver: resolver,
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   logging.NewComponentLogger(logger, "fetch"),
	}
}

// FetchMissing downloads every item whose destination does not already
// exist. URL resolution fans out first; any resolution failure aborts the
// whole fetch. Downloads then fan out; a per-item failure is logged and
// leaves that slot without a file, without aborting siblings.
func (f *Fetcher) FetchMissing(ctx context.Context, items []Item) (Report, error) {
	var report Report

	pending := make([]Item, 0, len(items))
	for _, item := range items {
		if _, err := os.Stat(item.DestPath); err == nil {
			report.Skipped = append(report.Skipped, item.DestPath)
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return report, nil
	}

	urls, err := f.resolveAll(ctx, pending)
	if err != nil {
		return report, err
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := range pending {
		wg.Add(1)
		go func(item Item, url string) {
			defer wg.Done()
			if err := f.download(ctx, url, item.DestPath); err != nil {
				f.logger.Warn("slot download failed",
					logging.String(logging.FieldEventType, "download_failed"),
					logging.String("dest", item.DestPath),
					logging.Error(err))
				mu.Lock()
				report.Failed = append(report.Failed, item.DestPath)
				mu.Unlock()
				return
			}
			mu.Lock()
			report.Downloaded = append(report.Downloaded, item.DestPath)
			mu.Unlock()
		}(pending[i], urls[i])
	}
	wg.Wait()

	sort.Strings(report.Downloaded)
	sort.Strings(report.Failed)
	return report, nil
}

// resolveAll resolves every pending item's URL concurrently. Results keep
// the input order. The first resolution error wins and fails the batch.
func (f *Fetcher) resolveAll(ctx context.Context, pending []Item) ([]string, error) {
	urls := make([]string, len(pending))
	errs := make([]error, len(pending))

	var wg sync.WaitGroup
	for i := range pending {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = f.resolver.ResolveURL(ctx, pending[i].FileRef)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, services.Wrap(services.ErrResolution, "fetch", "resolve", pending[i].FileRef, err)
		}
	}
	return urls, nil
}

func (f *Fetcher) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := destPath + ".part"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy body: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
