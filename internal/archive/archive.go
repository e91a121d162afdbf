package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"packmule/internal/logging"
)

// Archiver compresses pack directories into zip files. Compression runs
// under a bounded pool of worker slots so a large pack being zipped never
// stalls other in-flight pipelines.
type Archiver struct {
	slots  chan struct{}
	logger *slog.Logger
}

// NewArchiver constructs an archiver with the given number of concurrent
// compression slots. Workers below 1 are clamped to 1.
func NewArchiver(workers int, logger *slog.Logger) *Archiver {
	if workers < 1 {
		workers = 1
	}
	return &Archiver{
		slots:  make(chan struct{}, workers),
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Archive compresses packDir's files into archivePath. The archive root is
// the directory's contents, not the directory itself. Any prior archive at
// archivePath is overwritten: the archive is a derived artifact.
func (a *Archiver) Archive(ctx context.Context, packDir, archivePath string) error {
	select {
	case a.slots <- struct{}{}:
		defer func() { <-a.slots }()
	case <-ctx.Done():
		return ctx.Err()
	}

	entries, err := os.ReadDir(packDir)
	if err != nil {
		return fmt.Errorf("read pack directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	tmpPath := archivePath + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(packDir, name), name); err != nil {
			zw.Close()
			out.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("add %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename archive: %w", err)
	}

	a.logger.Debug("pack archived",
		logging.String("dir", packDir),
		logging.String("archive", archivePath),
		logging.Int("files", len(names)))
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
