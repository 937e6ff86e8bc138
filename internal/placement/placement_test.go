package placement_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"twinkle/internal/placement"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveReturnsCandidateWhenFree(t *testing.T) {
	candidate := filepath.Join(t.TempDir(), "report.pdf")
	if got := placement.Resolve(candidate); got != candidate {
		t.Fatalf("Resolve = %q, want %q", got, candidate)
	}
	if got := placement.Resolve(candidate); got != candidate {
		t.Fatalf("second Resolve = %q, want %q", got, candidate)
	}
}

func TestResolveAppendsAscendingSuffixes(t *testing.T) {
	dir := t.TempDir()
	candidate := filepath.Join(dir, "photo.png")
	writeFile(t, candidate, "a")

	if got, want := placement.Resolve(candidate), filepath.Join(dir, "photo_1.png"); got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
	writeFile(t, filepath.Join(dir, "photo_1.png"), "b")
	if got, want := placement.Resolve(candidate), filepath.Join(dir, "photo_2.png"); got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveNameShapes(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"archive.tar.gz", "archive.tar_1.gz"},
		{"README", "README_1"},
		{".env", ".env_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tt.name), "x")
			got := placement.Resolve(filepath.Join(dir, tt.name))
			if want := filepath.Join(dir, tt.want); got != want {
				t.Fatalf("Resolve = %q, want %q", got, want)
			}
		})
	}
}

func TestMoveNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "photo.png")
	existing := filepath.Join(dir, "out", "photo.png")
	writeFile(t, src, "new")
	writeFile(t, existing, "old")

	final, err := placement.Move(src, existing)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if want := filepath.Join(dir, "out", "photo_1.png"); final != want {
		t.Fatalf("Move landed at %q, want %q", final, want)
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Fatalf("existing file clobbered: %q", data)
	}
	if data, _ := os.ReadFile(final); string(data) != "new" {
		t.Fatalf("moved content = %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err=%v", err)
	}
}

func TestMoveMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := placement.Move(filepath.Join(dir, "gone.txt"), filepath.Join(dir, "out.txt"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestConcurrentMovesGetDistinctNames(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out", "doc.txt")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	const workers = 8
	sources := make([]string, workers)
	for i := range sources {
		sources[i] = filepath.Join(dir, "in", string(rune('a'+i)), "doc.txt")
		writeFile(t, sources[i], string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	for i := range sources {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = placement.Move(sources[i], target)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, final := range results {
		if errs[i] != nil {
			t.Fatalf("Move %d: %v", i, errs[i])
		}
		if seen[final] {
			t.Fatalf("two moves landed at %q", final)
		}
		seen[final] = true
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("expected %d files, got %d", workers, len(entries))
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	writeFile(t, src, "pdf-bytes")
	if err := os.MkdirAll(filepath.Join(dir, "Organized", "PDFs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	final, err := placement.Move(src, filepath.Join(dir, "Organized", "PDFs", "report.pdf"))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := placement.Restore(final, src); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if data, _ := os.ReadFile(src); string(data) != "pdf-bytes" {
		t.Fatalf("restored content = %q", data)
	}
}

func TestRestoreRefusesToClobber(t *testing.T) {
	dir := t.TempDir()
	moved := filepath.Join(dir, "Organized", "a.txt")
	original := filepath.Join(dir, "a.txt")
	writeFile(t, moved, "moved")
	writeFile(t, original, "newcomer")

	err := placement.Restore(moved, original)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected exist error, got %v", err)
	}
	if data, _ := os.ReadFile(original); string(data) != "newcomer" {
		t.Fatalf("original path clobbered: %q", data)
	}
}

func TestRestoreMissingDestination(t *testing.T) {
	dir := t.TempDir()
	err := placement.Restore(filepath.Join(dir, "nope"), filepath.Join(dir, "back"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
