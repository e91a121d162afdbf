package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"packmule/internal/pack"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WritePackDir materializes a pack directory with the given slot count, a
// thumbnail, and a descriptor, mirroring what a completed assembly run
// leaves on disk.
func WritePackDir(t testing.TB, root string, descriptor pack.Descriptor, slots int) string {
	t.Helper()

	layout, err := pack.LayoutFor(root, descriptor.Name)
	if err != nil {
		t.Fatalf("layout for %s: %v", descriptor.Name, err)
	}
	for i := 0; i < slots; i++ {
		WriteFile(t, layout.SlotPath(i, pack.FormatStatic), 64)
	}
	WriteFile(t, layout.ThumbPath(), 64)
	if err := pack.WriteDescriptor(layout.DescriptorPath(), descriptor); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return layout.Dir()
}
