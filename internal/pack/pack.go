package pack

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a sticker's media format on the source platform.
type Format string

const (
	FormatStatic   Format = "static"
	FormatAnimated Format = "animated"
	FormatVideo    Format = "video"
)

// Ext returns the on-disk file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatAnimated:
		return ".tgs"
	case FormatVideo:
		return ".webm"
	default:
		return ".webp"
	}
}

// RemoteSlot describes one sticker inside a remote pack: an opaque file
// reference resolvable to a transient URL, plus its emoji.
type RemoteSlot struct {
	FileRef string
	Emoji   string
	Format  Format
}

// RemotePack is a pack as reported by the source platform.
type RemotePack struct {
	Name     string
	Title    string
	Slots    []RemoteSlot
	ThumbRef string // optional
}

// SlotKey renders the zero-based slot index as the fixed-width key used for
// filenames and descriptor entries. Width 3 keeps lexical and numeric order
// aligned.
func SlotKey(index int) string {
	return fmt.Sprintf("%03d", index)
}

// Layout resolves on-disk locations for one pack under the download root.
type Layout struct {
	Root string
	Name string
}

// Dir returns the pack directory.
func (l Layout) Dir() string {
	return filepath.Join(l.Root, l.Name)
}

// SlotPath returns the file path for a slot's image.
func (l Layout) SlotPath(index int, format Format) string {
	return filepath.Join(l.Dir(), SlotKey(index)+format.Ext())
}

// ThumbPath returns the pack thumbnail path.
func (l Layout) ThumbPath() string {
	return ThumbPathIn(l.Dir())
}

// ThumbPathIn returns the thumbnail location inside an arbitrary pack
// directory.
func ThumbPathIn(dir string) string {
	return filepath.Join(dir, "thumb.webp")
}

// DescriptorPath returns the metadata descriptor path.
func (l Layout) DescriptorPath() string {
	return filepath.Join(l.Dir(), descriptorFilename)
}

// ArchivePath returns the derived archive location: a sibling of the pack
// directory named after the pack.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.Root, l.Name+".zip")
}

// LayoutFor builds a layout for the named pack. The name comes from the
// source platform and is already filesystem-safe, but reject anything that
// could escape the root.
func LayoutFor(root, name string) (Layout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Layout{}, fmt.Errorf("pack name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return Layout{}, fmt.Errorf("invalid pack name %q", name)
	}
	return Layout{Root: root, Name: name}, nil
}
