// Package local serves a repository from the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

const (
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorPathMissingFormat  = "path '%s' does not exist"
	errorNotDirectoryFormat = "path '%s' is not a directory"
	errorOutsideRootFormat  = "path '%s' escapes the repository root"
	operationListDirectory  = "list directory"
	operationReadFile       = "read file"
	operationOpenRoot       = "open repository"
	operationReadme         = "read readme"
)

// readmeCandidates are probed in order at the repository root.
var readmeCandidates = []string{"README.md", "README", "README.rst", "README.txt", "readme.md"}

// Options configures which entries the local backend exposes.
type Options struct {
	UseGitignore bool
	IncludeGit   bool
	// Name overrides the repository name derived from the root directory.
	Name string
}

// Repository implements source.Source over a directory tree.
type Repository struct {
	root      string
	name      string
	options   Options
	gitignore *ignore.GitIgnore
}

// Open validates rootPath and returns a Repository serving it.
func Open(rootPath string, options Options) (*Repository, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return nil, types.NewError(types.KindConfiguration, operationOpenRoot, rootPath, fmt.Errorf(errorAbsolutePathFormat, rootPath, absoluteError))
	}
	cleanRoot := filepath.Clean(absoluteRoot)
	info, statError := os.Stat(cleanRoot)
	if statError != nil {
		if os.IsNotExist(statError) {
			return nil, types.NewError(types.KindConfiguration, operationOpenRoot, rootPath, fmt.Errorf(errorPathMissingFormat, rootPath))
		}
		return nil, types.NewError(types.KindStructural, operationOpenRoot, rootPath, statError)
	}
	if !info.IsDir() {
		return nil, types.NewError(types.KindConfiguration, operationOpenRoot, rootPath, fmt.Errorf(errorNotDirectoryFormat, rootPath))
	}

	repository := &Repository{
		root:    cleanRoot,
		name:    options.Name,
		options: options,
	}
	if repository.name == "" {
		repository.name = filepath.Base(cleanRoot)
	}
	if options.UseGitignore {
		compiled, compileError := ignore.CompileIgnoreFile(filepath.Join(cleanRoot, utils.GitIgnoreFileName))
		if compileError != nil && !errors.Is(compileError, os.ErrNotExist) {
			return nil, types.NewError(types.KindConfiguration, operationOpenRoot, utils.GitIgnoreFileName, compileError)
		}
		repository.gitignore = compiled
	}
	return repository, nil
}

// Root returns the absolute repository root.
func (repository *Repository) Root() string {
	return repository.root
}

func (repository *Repository) Name() string {
	return repository.name
}

func (repository *Repository) List(ctx context.Context, relativePath string) ([]types.Entry, error) {
	directoryPath, resolveError := repository.resolve(relativePath)
	if resolveError != nil {
		return nil, types.NewError(types.KindStructural, operationListDirectory, relativePath, resolveError)
	}
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return nil, types.NewError(types.KindStructural, operationListDirectory, relativePath, readError)
	}

	entries := make([]types.Entry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryPath := source.JoinPath(relativePath, directoryEntry.Name())
		isDirectory := directoryEntry.IsDir()
		if repository.shouldSkip(entryPath, directoryEntry.Name(), isDirectory) {
			continue
		}
		kind := types.EntryFile
		if isDirectory {
			kind = types.EntryDirectory
		}
		entries = append(entries, types.Entry{Path: entryPath, Name: directoryEntry.Name(), Kind: kind})
	}
	return source.SortEntries(entries), nil
}

func (repository *Repository) Read(ctx context.Context, relativePath string) (types.Payload, error) {
	filePath, resolveError := repository.resolve(relativePath)
	if resolveError != nil {
		return types.Payload{}, types.NewError(types.KindContent, operationReadFile, relativePath, resolveError)
	}
	// #nosec G304
	data, readError := os.ReadFile(filePath)
	if readError != nil {
		return types.Payload{}, types.NewError(types.KindContent, operationReadFile, relativePath, readError)
	}
	return types.Payload{Data: data, Encoding: types.EncodingRaw}, nil
}

func (repository *Repository) Readme(ctx context.Context) (string, error) {
	for _, candidate := range readmeCandidates {
		// #nosec G304
		data, readError := os.ReadFile(filepath.Join(repository.root, candidate))
		if readError == nil {
			return string(data), nil
		}
		if !os.IsNotExist(readError) {
			return "", types.NewError(types.KindContent, operationReadme, candidate, readError)
		}
	}
	return "", types.NewError(types.KindContent, operationReadme, "", os.ErrNotExist)
}

func (repository *Repository) resolve(relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.Trim(relativePath, "/")))
	if cleaned == "." {
		return repository.root, nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf(errorOutsideRootFormat, relativePath)
	}
	return filepath.Join(repository.root, cleaned), nil
}

func (repository *Repository) shouldSkip(entryPath string, name string, isDirectory bool) bool {
	if isDirectory && !repository.options.IncludeGit && name == utils.GitDirectoryName {
		return true
	}
	if repository.gitignore == nil {
		return false
	}
	if isDirectory {
		return repository.gitignore.MatchesPath(entryPath + "/")
	}
	return repository.gitignore.MatchesPath(entryPath)
}

var _ source.Source = (*Repository)(nil)
