// Package sourcetest provides an in-memory source.Source for tests.
package sourcetest

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/types"
)

// Memory is a repository held entirely in maps. Directories are implied by
// file paths; extra directory entries can be injected per parent.
type Memory struct {
	RepositoryName string
	ReadmeText     string
	Files          map[string]types.Payload
	// ExtraEntries are appended to the listing of the keyed directory.
	ExtraEntries map[string][]types.Entry
	// ListErrors fail List for the keyed directory.
	ListErrors map[string]error
	// ReadErrors fail Read for the keyed file.
	ReadErrors map[string]error

	ListCalls map[string]int
	ReadCalls map[string]int
}

// NewMemory builds a Memory repository from UTF-8 file contents.
func NewMemory(name string, files map[string]string) *Memory {
	payloads := make(map[string]types.Payload, len(files))
	for filePath, content := range files {
		payloads[filePath] = types.Payload{Data: []byte(content), Encoding: types.EncodingRaw}
	}
	return &Memory{RepositoryName: name, Files: payloads}
}

func (memory *Memory) Name() string {
	return memory.RepositoryName
}

func (memory *Memory) List(ctx context.Context, relativePath string) ([]types.Entry, error) {
	directory := strings.Trim(relativePath, "/")
	memory.count(&memory.ListCalls, directory)
	if failure, ok := memory.ListErrors[directory]; ok {
		return nil, types.NewError(types.KindStructural, "list directory", directory, failure)
	}

	seen := map[string]struct{}{}
	var entries []types.Entry
	found := directory == ""
	for filePath := range memory.Files {
		remainder, ok := childRemainder(directory, filePath)
		if !ok {
			continue
		}
		found = true
		name, rest, nested := strings.Cut(remainder, "/")
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		kind := types.EntryFile
		if nested && rest != "" {
			kind = types.EntryDirectory
		}
		entries = append(entries, types.Entry{Path: source.JoinPath(directory, name), Name: name, Kind: kind})
	}
	if extra, ok := memory.ExtraEntries[directory]; ok {
		found = true
		entries = append(entries, extra...)
	}
	if !found {
		return nil, types.NewError(types.KindStructural, "list directory", directory, os.ErrNotExist)
	}
	return source.SortEntries(entries), nil
}

func (memory *Memory) Read(ctx context.Context, relativePath string) (types.Payload, error) {
	filePath := strings.Trim(relativePath, "/")
	memory.count(&memory.ReadCalls, filePath)
	if failure, ok := memory.ReadErrors[filePath]; ok {
		return types.Payload{}, types.NewError(types.KindContent, "read file", filePath, failure)
	}
	payload, ok := memory.Files[filePath]
	if !ok {
		return types.Payload{}, types.NewError(types.KindContent, "read file", filePath, os.ErrNotExist)
	}
	return payload, nil
}

func (memory *Memory) Readme(ctx context.Context) (string, error) {
	if memory.ReadmeText == "" {
		return "", types.NewError(types.KindContent, "read readme", "", errors.New("README not found"))
	}
	return memory.ReadmeText, nil
}

func (memory *Memory) count(counter *map[string]int, key string) {
	if *counter == nil {
		*counter = map[string]int{}
	}
	(*counter)[key]++
}

func childRemainder(directory string, filePath string) (string, bool) {
	if directory == "" {
		return filePath, true
	}
	prefix := path.Clean(directory) + "/"
	if !strings.HasPrefix(filePath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(filePath, prefix), true
}

var _ source.Source = (*Memory)(nil)
