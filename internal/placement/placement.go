package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxMoveAttempts bounds how often Move re-resolves after losing a race for a name.
const maxMoveAttempts = 64

// ErrContended is returned when every resolved name was taken before the move landed.
var ErrContended = errors.New("destination names kept colliding")

// Resolve returns candidate when nothing exists at that path, otherwise the
// first free sibling named {stem}_{n}{ext} for n = 1, 2, ...
func Resolve(candidate string) string {
	if !exists(candidate) {
		return candidate
	}
	dir := filepath.Dir(candidate)
	stem, ext := splitName(filepath.Base(candidate))
	for n := 1; ; n++ {
		next := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(next) {
			return next
		}
	}
}

// Move relocates src to the resolved form of candidate and returns the path it
// landed at. A name claimed by someone else between resolution and the rename
// restarts resolution. Cross-device moves fail; there is no copy fallback.
func Move(src, candidate string) (string, error) {
	for attempt := 0; attempt < maxMoveAttempts; attempt++ {
		dst := Resolve(candidate)
		err := renameNoReplace(src, dst)
		if err == nil {
			return dst, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("move %s: %w", src, ErrContended)
}

// Restore moves dst back to src, failing with fs.ErrExist if src is occupied.
func Restore(dst, src string) error {
	if _, err := os.Lstat(dst); err != nil {
		return err
	}
	return renameNoReplace(dst, src)
}

// IsCrossDevice reports whether err came from moving across filesystems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// splitName follows the usual convention that a leading dot belongs to the
// name, so ".env" has no extension while "archive.tar.gz" has ".gz".
func splitName(base string) (string, string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || strings.Trim(stem, ".") == "" {
		return base, ""
	}
	return stem, ext
}

func linkRename(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
