// Package github serves a repository through the GitHub contents API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/types"
)

const (
	contentTypeDirectory = "dir"
	defaultAPIBaseURL    = "https://api.github.com"
	githubHost           = "github.com"
	gitSuffix            = ".git"
	sshPrefix            = "git@"

	operationListDirectory = "list directory"
	operationReadFile      = "read file"
	operationReadme        = "fetch readme"
	operationParse         = "parse repository"
	operationCredential    = "authenticate"
)

var (
	errMissingToken      = errors.New("please set the GITHUB_TOKEN environment variable")
	errMissingOwner      = errors.New("repository owner is required")
	errMissingRepository = errors.New("repository name is required")
	errNotDirectory      = errors.New("path is not a directory")
	errNotFile           = errors.New("path is not a file")
)

// Options configures the remote backend.
type Options struct {
	Token string
	// APIBaseURL overrides https://api.github.com, e.g. for GitHub Enterprise.
	APIBaseURL string
	// Reference selects a branch, tag or commit; empty means the default branch.
	Reference string
	// HTTPClient is wrapped with token authentication when set.
	HTTPClient *http.Client
}

// Repository implements source.Source over one GitHub repository.
type Repository struct {
	client     *gogithub.Client
	owner      string
	repository string
	reference  string
}

// Open parses reference and returns an authenticated Repository.
func Open(ctx context.Context, reference string, options Options) (*Repository, error) {
	token := strings.TrimSpace(options.Token)
	if token == "" {
		return nil, types.NewError(types.KindCredential, operationCredential, "", errMissingToken)
	}
	owner, repositoryName, parseError := ParseRepository(reference)
	if parseError != nil {
		return nil, types.NewError(types.KindConfiguration, operationParse, reference, parseError)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if options.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, options.HTTPClient)
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gogithub.NewClient(oauth2.NewClient(ctx, tokenSource))
	if baseError := applyBaseURL(client, options.APIBaseURL); baseError != nil {
		return nil, types.NewError(types.KindConfiguration, operationParse, options.APIBaseURL, baseError)
	}

	return &Repository{
		client:     client,
		owner:      owner,
		repository: repositoryName,
		reference:  strings.TrimSpace(options.Reference),
	}, nil
}

// ParseRepository extracts owner and repository name from a GitHub URL or an
// owner/name pair.
func ParseRepository(reference string) (string, string, error) {
	trimmed := strings.TrimSpace(reference)
	if strings.HasPrefix(trimmed, sshPrefix) {
		if _, afterColon, found := strings.Cut(trimmed, ":"); found {
			trimmed = afterColon
		}
	} else if parsed, parseError := url.Parse(trimmed); parseError == nil && parsed.Host != "" {
		trimmed = parsed.Path
	} else {
		trimmed = strings.TrimPrefix(trimmed, githubHost+"/")
	}
	segments := make([]string, 0, 2)
	for _, segment := range strings.Split(strings.Trim(trimmed, "/"), "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return "", "", errMissingOwner
	}
	if len(segments) == 1 {
		return "", "", errMissingRepository
	}
	repositoryName := strings.TrimSuffix(segments[1], gitSuffix)
	if repositoryName == "" {
		return "", "", errMissingRepository
	}
	return segments[0], repositoryName, nil
}

func (repository *Repository) Name() string {
	return repository.repository
}

// FullName returns owner/name.
func (repository *Repository) FullName() string {
	return repository.owner + "/" + repository.repository
}

func (repository *Repository) List(ctx context.Context, relativePath string) ([]types.Entry, error) {
	fileContent, directoryContent, _, fetchError := repository.client.Repositories.GetContents(ctx, repository.owner, repository.repository, strings.Trim(relativePath, "/"), repository.contentOptions())
	if fetchError != nil {
		return nil, types.NewError(types.KindStructural, operationListDirectory, relativePath, fetchError)
	}
	if fileContent != nil && directoryContent == nil {
		return nil, types.NewError(types.KindStructural, operationListDirectory, relativePath, errNotDirectory)
	}

	entries := make([]types.Entry, 0, len(directoryContent))
	for _, item := range directoryContent {
		if item == nil {
			continue
		}
		kind := types.EntryFile
		if item.GetType() == contentTypeDirectory {
			kind = types.EntryDirectory
		}
		entryPath := item.GetPath()
		if entryPath == "" {
			entryPath = source.JoinPath(relativePath, item.GetName())
		}
		entries = append(entries, types.Entry{Path: entryPath, Name: item.GetName(), Kind: kind})
	}
	return source.SortEntries(entries), nil
}

// Read returns the file payload as delivered by the API. Base64 content is
// left encoded and the API's encoding field is passed through as the hint.
func (repository *Repository) Read(ctx context.Context, relativePath string) (types.Payload, error) {
	fileContent, _, _, fetchError := repository.client.Repositories.GetContents(ctx, repository.owner, repository.repository, strings.Trim(relativePath, "/"), repository.contentOptions())
	if fetchError != nil {
		return types.Payload{}, types.NewError(types.KindContent, operationReadFile, relativePath, fetchError)
	}
	if fileContent == nil {
		return types.Payload{}, types.NewError(types.KindContent, operationReadFile, relativePath, errNotFile)
	}
	var data []byte
	if fileContent.Content != nil {
		data = []byte(*fileContent.Content)
	}
	return types.Payload{Data: data, Encoding: fileContent.GetEncoding()}, nil
}

func (repository *Repository) Readme(ctx context.Context) (string, error) {
	readme, _, fetchError := repository.client.Repositories.GetReadme(ctx, repository.owner, repository.repository, repository.contentOptions())
	if fetchError != nil {
		return "", types.NewError(types.KindContent, operationReadme, "", fetchError)
	}
	text, decodeError := readme.GetContent()
	if decodeError != nil {
		return "", types.NewError(types.KindContent, operationReadme, readme.GetPath(), decodeError)
	}
	return text, nil
}

func (repository *Repository) contentOptions() *gogithub.RepositoryContentGetOptions {
	if repository.reference == "" {
		return nil
	}
	return &gogithub.RepositoryContentGetOptions{Ref: repository.reference}
}

func applyBaseURL(client *gogithub.Client, baseURL string) error {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" || trimmed == defaultAPIBaseURL {
		return nil
	}
	parsed, parseError := url.Parse(trimmed + "/")
	if parseError != nil {
		return fmt.Errorf("invalid API base URL %q: %w", baseURL, parseError)
	}
	client.BaseURL = parsed
	return nil
}

var _ source.Source = (*Repository)(nil)
