package pack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const descriptorFilename = "metadata.json"

// DescriptorPathIn returns the descriptor location inside an arbitrary pack
// directory, for callers that hold a directory rather than a Layout.
func DescriptorPathIn(dir string) string {
	return filepath.Join(dir, descriptorFilename)
}

// Descriptor is the on-disk metadata record owned by a pack directory.
// Emoji keys are slot keys; JSON map keys marshal sorted, which keeps the
// zero-padded keys in slot order.
type Descriptor struct {
	Title  string            `json:"title"`
	Name   string            `json:"name"`
	Emojis map[string]string `json:"emojis"`
	Author string            `json:"author,omitempty"`
}

// ReadDescriptor loads the descriptor from the pack directory's layout.
// A missing file returns fs.ErrNotExist.
func ReadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse descriptor %s: %w", path, err)
	}
	return d, nil
}

// WriteDescriptor persists the descriptor, merging with any existing record:
// fields already on disk but absent from d are preserved, in particular a
// previously recorded author.
func WriteDescriptor(path string, d Descriptor) error {
	existing, err := ReadDescriptor(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err == nil {
		if strings.TrimSpace(d.Author) == "" {
			d.Author = existing.Author
		}
		if strings.TrimSpace(d.Title) == "" {
			d.Title = existing.Title
		}
		if strings.TrimSpace(d.Name) == "" {
			d.Name = existing.Name
		}
		if len(d.Emojis) == 0 {
			d.Emojis = existing.Emojis
		}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename descriptor: %w", err)
	}
	return nil
}

// SetAuthor mutates the descriptor file in place, adding the author without
// rewriting other fields.
func SetAuthor(path, author string) error {
	d, err := ReadDescriptor(path)
	if err != nil {
		return err
	}
	d.Author = strings.TrimSpace(author)
	return WriteDescriptor(path, d)
}
