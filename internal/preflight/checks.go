package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Result captures the outcome of one preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// statfsFunc reports (freeBytes, totalBytes) for a path. Injectable for tests.
type statfsFunc func(path string) (uint64, uint64, error)

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return stat.Bavail * bsize, stat.Blocks * bsize, nil
}

// CheckDirectoryAccess verifies the directory exists and is fully accessible.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("stat failed: %v", err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: "not a directory"}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("access denied: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "accessible"}
}

// Space guards pipeline runs against a full download filesystem.
type Space struct {
	statfs statfsFunc
}

// NewSpace constructs a free-space checker.
func NewSpace() *Space {
	return &Space{statfs: realStatfs}
}

// CheckFree returns an error when the filesystem holding path has fewer than
// minFreeMiB mebibytes available. minFreeMiB <= 0 disables the check.
func (s *Space) CheckFree(path string, minFreeMiB int64) error {
	if minFreeMiB <= 0 {
		return nil
	}
	free, _, err := s.statfs(path)
	if err != nil {
		return fmt.Errorf("statfs %s: %w", path, err)
	}
	needed := uint64(minFreeMiB) * 1024 * 1024
	if free < needed {
		return fmt.Errorf("insufficient free space on %s: %d MiB available, %d MiB required",
			path, free/(1024*1024), minFreeMiB)
	}
	return nil
}
