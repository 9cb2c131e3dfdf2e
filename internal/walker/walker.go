// Package walker enumerates a repository tree without recursion.
package walker

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/types"
)

const (
	structureHeaderFormat = "Repository Structure: %s\n"
	pathSeparator         = "/"
)

// VisitFunc receives every entry in walk order. Returning an error stops the walk.
type VisitFunc func(entry types.Entry) error

// Walk visits every entry under the root of src depth first, in name order.
// Pending entries live on an explicit stack and each directory is listed at
// most once. A listing failure aborts the walk and is returned unchanged.
func Walk(ctx context.Context, src source.Source, visit VisitFunc) error {
	rootEntries, listError := src.List(ctx, "")
	if listError != nil {
		return listError
	}
	visited := map[string]struct{}{"": {}}
	stack := pushReversed(nil, rootEntries)

	for len(stack) > 0 {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.IsDirectory() {
			key := normalizePath(entry.Path)
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			if visitError := visit(entry); visitError != nil {
				return visitError
			}
			children, childListError := src.List(ctx, entry.Path)
			if childListError != nil {
				return childListError
			}
			stack = pushReversed(stack, children)
			continue
		}
		if visitError := visit(entry); visitError != nil {
			return visitError
		}
	}
	return nil
}

// Traverse returns the full listing produced by Walk.
func Traverse(ctx context.Context, src source.Source) ([]types.Entry, error) {
	var entries []types.Entry
	walkError := Walk(ctx, src, func(entry types.Entry) error {
		entries = append(entries, entry)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}
	return entries, nil
}

// FormatEntry renders an entry as a structure line without the trailing newline.
func FormatEntry(entry types.Entry) string {
	line := pathSeparator + normalizePath(entry.Path)
	if entry.IsDirectory() {
		line += pathSeparator
	}
	return line
}

// FormatStructure renders the structure listing of a repository.
func FormatStructure(name string, entries []types.Entry) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, structureHeaderFormat, name)
	for _, entry := range entries {
		builder.WriteString(FormatEntry(entry))
		builder.WriteByte('\n')
	}
	return builder.String()
}

// pushReversed appends entries so the first one ends up on top of the stack.
func pushReversed(stack []types.Entry, entries []types.Entry) []types.Entry {
	for index := len(entries) - 1; index >= 0; index-- {
		stack = append(stack, entries[index])
	}
	return stack
}

func normalizePath(relativePath string) string {
	return strings.Trim(relativePath, pathSeparator)
}
