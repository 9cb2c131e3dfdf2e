// Package gitclone clones a git repository into a temporary directory and
// serves it through the local backend.
package gitclone

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/temirov/repotxt/internal/source/local"
	"github.com/temirov/repotxt/internal/types"
)

const (
	temporaryDirectoryPattern = "repotxt-git-"
	operationClone            = "clone repository"
	operationCheckout         = "checkout revision"
	tokenUsername             = "x-access-token"
	githubHost                = "github.com"
	apiHostPrefix             = "api."
	minimumHashPrefixLength   = 7
)

// Options configures the clone.
type Options struct {
	// Reference is a branch, tag or commit; empty clones the default branch.
	Reference string
	// Token authenticates HTTPS clones of github.com or the APIBaseURL host.
	Token string
	// APIBaseURL is the configured GitHub API endpoint; its host also receives the token.
	APIBaseURL string
	// Progress receives git progress output; nil discards it.
	Progress io.Writer
	Local    local.Options
}

// Repository is a cloned checkout served from disk. Close removes the checkout.
type Repository struct {
	*local.Repository
	directory string
}

// clonePlan is one way of fetching the requested reference. A non-empty
// revision is checked out after the clone completes.
type clonePlan struct {
	options  *git.CloneOptions
	revision string
}

// Clone fetches repositoryURL at options.Reference. Branches and tags are
// cloned shallow and single-branch; a commit needs a full clone followed by a
// checkout. The first failure is reported when no plan succeeds.
func Clone(ctx context.Context, repositoryURL string, options Options) (*Repository, error) {
	trimmedURL := strings.TrimSpace(repositoryURL)
	if trimmedURL == "" {
		return nil, types.NewError(types.KindConfiguration, operationClone, repositoryURL, fmt.Errorf("repository url is required"))
	}

	var firstError error
	for _, plan := range clonePlans(trimmedURL, options) {
		directory, cloneError := runPlan(ctx, plan)
		if cloneError != nil {
			if firstError == nil {
				firstError = cloneError
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}

		localOptions := options.Local
		if localOptions.Name == "" {
			localOptions.Name = RepositoryName(trimmedURL)
		}
		repository, openError := local.Open(directory, localOptions)
		if openError != nil {
			_ = os.RemoveAll(directory)
			return nil, openError
		}
		return &Repository{Repository: repository, directory: directory}, nil
	}
	return nil, firstError
}

// Close deletes the temporary checkout.
func (repository *Repository) Close() error {
	if repository == nil || repository.directory == "" {
		return nil
	}
	return os.RemoveAll(repository.directory)
}

// RepositoryName derives a repository name from a clone URL.
func RepositoryName(repositoryURL string) string {
	normalized := strings.TrimRight(strings.ReplaceAll(strings.TrimSpace(repositoryURL), ":", "/"), "/")
	return strings.TrimSuffix(path.Base(normalized), ".git")
}

func runPlan(ctx context.Context, plan clonePlan) (string, error) {
	directory, directoryError := os.MkdirTemp("", temporaryDirectoryPattern)
	if directoryError != nil {
		return "", types.NewError(types.KindStructural, operationClone, plan.options.URL, fmt.Errorf("failed to create temporary directory: %w", directoryError))
	}
	repository, cloneError := git.PlainCloneContext(ctx, directory, false, plan.options)
	if cloneError != nil {
		_ = os.RemoveAll(directory)
		return "", types.NewError(types.KindStructural, operationClone, plan.options.URL, cloneError)
	}
	if plan.revision == "" {
		return directory, nil
	}
	if checkoutError := checkoutRevision(repository, plan.revision); checkoutError != nil {
		_ = os.RemoveAll(directory)
		return "", types.NewError(types.KindStructural, operationCheckout, plan.revision, checkoutError)
	}
	return directory, nil
}

func checkoutRevision(repository *git.Repository, revision string) error {
	hash, resolveError := repository.ResolveRevision(plumbing.Revision(revision))
	if resolveError != nil {
		return resolveError
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return worktreeError
	}
	return worktree.Checkout(&git.CheckoutOptions{Hash: *hash})
}

// clonePlans lists the clone attempts for the reference in the order they are tried.
func clonePlans(repositoryURL string, options Options) []clonePlan {
	baseOptions := newCloneOptions(repositoryURL, options)
	reference := strings.TrimSpace(options.Reference)
	if reference == "" {
		return []clonePlan{{options: baseOptions}}
	}
	if strings.HasPrefix(reference, "refs/") {
		return []clonePlan{{options: withReference(baseOptions, plumbing.ReferenceName(reference))}}
	}

	plans := []clonePlan{
		{options: withReference(baseOptions, plumbing.NewBranchReferenceName(reference))},
		{options: withReference(baseOptions, plumbing.NewTagReferenceName(reference))},
	}
	if looksLikeCommit(reference) {
		fullOptions := *baseOptions
		fullOptions.SingleBranch = false
		fullOptions.Depth = 0
		plans = append(plans, clonePlan{options: &fullOptions, revision: reference})
	}
	return plans
}

// newCloneOptions builds the options shared by every plan. The token is only
// attached for hosts that belong to the configured GitHub instance.
func newCloneOptions(repositoryURL string, options Options) *git.CloneOptions {
	cloneOptions := &git.CloneOptions{
		URL:          repositoryURL,
		SingleBranch: true,
		Progress:     options.Progress,
	}
	if isRemoteURL(repositoryURL) {
		cloneOptions.Depth = 1
	}
	if token := strings.TrimSpace(options.Token); token != "" && acceptsToken(repositoryURL, options.APIBaseURL) {
		cloneOptions.Auth = &http.BasicAuth{Username: tokenUsername, Password: token}
	}
	return cloneOptions
}

func withReference(baseOptions *git.CloneOptions, reference plumbing.ReferenceName) *git.CloneOptions {
	referenceOptions := *baseOptions
	referenceOptions.ReferenceName = reference
	return &referenceOptions
}

func acceptsToken(repositoryURL string, apiBaseURL string) bool {
	if !isHTTPURL(repositoryURL) {
		return false
	}
	parsed, parseError := url.Parse(repositoryURL)
	if parseError != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, trustedHost := range credentialHosts(apiBaseURL) {
		if host == trustedHost {
			return true
		}
	}
	return false
}

// credentialHosts returns github.com plus the API host and its web host for GitHub Enterprise.
func credentialHosts(apiBaseURL string) []string {
	hosts := []string{githubHost}
	trimmed := strings.TrimSpace(apiBaseURL)
	if trimmed == "" {
		return hosts
	}
	parsed, parseError := url.Parse(trimmed)
	if parseError != nil || parsed.Hostname() == "" {
		return hosts
	}
	apiHost := strings.ToLower(parsed.Hostname())
	return append(hosts, apiHost, strings.TrimPrefix(apiHost, apiHostPrefix))
}

func looksLikeCommit(reference string) bool {
	if len(reference) < minimumHashPrefixLength || len(reference) > 40 {
		return false
	}
	for _, character := range reference {
		isDigit := character >= '0' && character <= '9'
		isLowerHex := character >= 'a' && character <= 'f'
		isUpperHex := character >= 'A' && character <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return false
		}
	}
	return true
}

// isRemoteURL reports whether repositoryURL points at a network transport rather than a local path.
func isRemoteURL(repositoryURL string) bool {
	return isHTTPURL(repositoryURL) || strings.HasPrefix(repositoryURL, "git@") || strings.Contains(repositoryURL, "://")
}

func isHTTPURL(repositoryURL string) bool {
	lowered := strings.ToLower(repositoryURL)
	return strings.HasPrefix(lowered, "https://") || strings.HasPrefix(lowered, "http://")
}
