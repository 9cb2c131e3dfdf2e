package walker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/repotxt/internal/source/local"
	"github.com/temirov/repotxt/internal/source/sourcetest"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/walker"
)

func paths(entries []types.Entry) []string {
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, walker.FormatEntry(entry))
	}
	return result
}

func TestTraverseEmitsDepthFirstNameOrder(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{
		"README.md":       "Hi",
		"src/a.py":        "print(1)",
		"src/lib/util.py": "pass",
		"logo.png":        "\x89PNG",
		"docs/guide.md":   "guide",
	})

	entries, err := walker.Traverse(context.Background(), memory)
	if err != nil {
		t.Fatalf("Traverse error: %v", err)
	}
	expected := []string{
		"/README.md",
		"/docs/",
		"/docs/guide.md",
		"/logo.png",
		"/src/",
		"/src/a.py",
		"/src/lib/",
		"/src/lib/util.py",
	}
	got := paths(entries)
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for index := range expected {
		if got[index] != expected[index] {
			t.Fatalf("line %d: expected %q, got %q (all: %v)", index, expected[index], got[index], got)
		}
	}
}

func TestTraverseCountsFilesAndDirectoriesOnce(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{
		"a/b/c/one.txt": "1",
		"a/two.txt":     "2",
		"d/three.txt":   "3",
		"four.txt":      "4",
	})

	entries, err := walker.Traverse(context.Background(), memory)
	if err != nil {
		t.Fatalf("Traverse error: %v", err)
	}
	files, directories := 0, 0
	for _, entry := range entries {
		if entry.IsDirectory() {
			directories++
		} else {
			files++
		}
	}
	if files != 4 || directories != 4 {
		t.Fatalf("expected 4 files and 4 directories, got %d and %d", files, directories)
	}
	for directory, calls := range memory.ListCalls {
		if calls != 1 {
			t.Fatalf("directory %q listed %d times", directory, calls)
		}
	}
}

func TestTraverseExpandsRepeatedDirectoryOnce(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"src/a.py": "x"})
	memory.ExtraEntries = map[string][]types.Entry{
		"src": {{Path: "src", Name: "loop", Kind: types.EntryDirectory}},
	}

	entries, err := walker.Traverse(context.Background(), memory)
	if err != nil {
		t.Fatalf("Traverse error: %v", err)
	}
	if memory.ListCalls["src"] != 1 {
		t.Fatalf("expected src to be listed once, got %d", memory.ListCalls["src"])
	}
	if len(entries) != 2 {
		t.Fatalf("expected src and src/a.py only, got %v", paths(entries))
	}
}

func TestWalkAbortsOnListingFailure(t *testing.T) {
	listingFailure := errors.New("access denied")
	memory := sourcetest.NewMemory("proj", map[string]string{
		"ok/a.txt":     "a",
		"broken/b.txt": "b",
	})
	memory.ListErrors = map[string]error{"broken": listingFailure}

	entries, err := walker.Traverse(context.Background(), memory)
	if !errors.Is(err, listingFailure) {
		t.Fatalf("expected listing failure, got %v", err)
	}
	if kind, _ := types.KindOf(err); kind != types.KindStructural {
		t.Fatalf("expected structural kind, got %q", kind)
	}
	if entries != nil {
		t.Fatalf("expected no partial result, got %v", paths(entries))
	}
}

func TestWalkStopsOnVisitError(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a", "b.txt": "b"})
	stop := errors.New("stop")
	visited := 0
	err := walker.Walk(context.Background(), memory, func(entry types.Entry) error {
		visited++
		return stop
	})
	if !errors.Is(err, stop) || visited != 1 {
		t.Fatalf("expected walk to stop after first visit, got %v after %d", err, visited)
	}
}

func TestWalkHonorsCanceledContext(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := walker.Walk(ctx, memory, func(types.Entry) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestFormatStructure(t *testing.T) {
	entries := []types.Entry{
		{Path: "src", Name: "src", Kind: types.EntryDirectory},
		{Path: "src/a.py", Name: "a.py", Kind: types.EntryFile},
		{Path: "logo.png", Name: "logo.png", Kind: types.EntryFile},
	}
	expected := "Repository Structure: proj\n/src/\n/src/a.py\n/logo.png\n"
	if result := walker.FormatStructure("proj", entries); result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestLocalAndMemoryBackendsAgree(t *testing.T) {
	files := map[string]string{
		"README.md":  "Hi",
		"src/a.py":   "print(1)",
		"src/b/c.go": "package b",
		"logo.png":   "png",
	}
	rootDirectory := t.TempDir()
	for relativePath, content := range files {
		fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	repository, err := local.Open(rootDirectory, local.Options{Name: "proj"})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	localEntries, err := walker.Traverse(context.Background(), repository)
	if err != nil {
		t.Fatalf("local Traverse error: %v", err)
	}
	memoryEntries, err := walker.Traverse(context.Background(), sourcetest.NewMemory("proj", files))
	if err != nil {
		t.Fatalf("memory Traverse error: %v", err)
	}
	localListing := walker.FormatStructure("proj", localEntries)
	memoryListing := walker.FormatStructure("proj", memoryEntries)
	if localListing != memoryListing {
		t.Fatalf("listings differ:\nlocal:\n%s\nmemory:\n%s", localListing, memoryListing)
	}
}
