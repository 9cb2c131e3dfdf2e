// Package source defines the capability interface shared by every repository backend.
package source

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/temirov/repotxt/internal/types"
)

// Source exposes a repository as listable directories and readable files.
type Source interface {
	// Name returns the repository name used for the output file and headers.
	Name() string
	// List returns the direct children of relativePath sorted by name.
	// The root is addressed by the empty string.
	List(ctx context.Context, relativePath string) ([]types.Entry, error)
	// Read returns the raw bytes of a file and the encoding they are stored in.
	Read(ctx context.Context, relativePath string) (types.Payload, error)
	// Readme returns the repository README text.
	Readme(ctx context.Context) (string, error)
}

// JoinPath appends name to a slash separated parent path relative to the root.
func JoinPath(parent string, name string) string {
	trimmedParent := strings.Trim(parent, "/")
	if trimmedParent == "" {
		return name
	}
	return path.Join(trimmedParent, name)
}

// SortEntries orders entries by name in place and returns them.
func SortEntries(entries []types.Entry) []types.Entry {
	sort.SliceStable(entries, func(left, right int) bool {
		return entries[left].Name < entries[right].Name
	})
	return entries
}
