package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/repotxt/internal/binary"
	"github.com/temirov/repotxt/internal/collector"
	"github.com/temirov/repotxt/internal/config"
	"github.com/temirov/repotxt/internal/document"
	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/source/github"
	"github.com/temirov/repotxt/internal/source/gitclone"
	"github.com/temirov/repotxt/internal/source/local"
	"github.com/temirov/repotxt/internal/tokenizer"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

const (
	savedMessageFormat = "Repository contents saved to '%s'.\n"

	logMessageOpening      = "opening repository"
	logMessageCloneCleanup = "failed to remove temporary checkout"
	logMessageTokenizer    = "token estimate disabled"
	logMessageSaved        = "document written"
)

// runRepository resolves settings, opens the configured backend and writes the document.
func runRepository(ctx context.Context, dependencies Dependencies, options rootOptions, arguments []string) (runError error) {
	workingDirectory, err := resolveWorkingDirectory(dependencies)
	if err != nil {
		return err
	}
	if err := config.LoadEnvironmentFile(workingDirectory); err != nil {
		return err
	}
	fileConfiguration, err := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if err != nil {
		return err
	}
	settings, err := fileConfiguration.Merge(options.overrides(arguments)).Resolve(config.GitHubToken())
	if err != nil {
		return err
	}
	settings = anchorPaths(settings, workingDirectory)
	settings.PromptPath = discoverPromptPath(settings, workingDirectory)

	logger, err := dependencies.NewLogger(options.verbose)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(logMessageOpening, zap.String("method", string(settings.Method)), zap.String("repository", settings.RepositoryPath))
	repository, closeRepository, err := openSource(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeError := closeRepository(); closeError != nil {
			logger.Warn(logMessageCloneCleanup, zap.Error(closeError))
		}
	}()

	classifier := binary.DefaultExtensions().With(settings.BinaryExtensions...)
	assembler := document.NewAssembler(collector.New(classifier, logger), logger)
	if settings.TokensEnabled {
		counter, model, counterError := tokenizer.NewCounter(tokenizer.Config{Model: settings.TokenModel})
		if counterError != nil {
			logger.Warn(logMessageTokenizer, zap.Error(counterError))
		} else {
			assembler.WithTokenCounter(counter, model)
		}
	}

	outputPath := document.OutputPath(settings.OutputDirectory, repository.Name())
	fileSink := document.NewFileSink(outputPath)
	sinks := document.MultiSink{fileSink}
	if settings.Clipboard {
		sinks = append(sinks, document.NewClipboardSink(dependencies.Copier))
	}

	result, assembleError := assembler.Assemble(ctx, repository, document.Request{
		Method:     settings.Method,
		PromptPath: settings.PromptPath,
	}, sinks)
	if assembleError != nil {
		// Clipboard receives nothing from a failed run.
		return errors.Join(assembleError, fileSink.Close())
	}
	if closeError := sinks.Close(); closeError != nil {
		return closeError
	}

	logger.Info(logMessageSaved,
		zap.String("path", outputPath),
		zap.String("size", utils.FormatFileSize(result.Bytes)),
		zap.Int("files", result.Stats.Total()),
	)
	_, err = fmt.Fprintf(dependencies.Stdout, savedMessageFormat, outputPath)
	return err
}

// openSource returns the backend selected by settings and a function releasing it.
func openSource(ctx context.Context, settings config.Settings) (source.Source, func() error, error) {
	noClose := func() error { return nil }
	localOptions := local.Options{
		UseGitignore: settings.UseGitignore,
		IncludeGit:   settings.IncludeGit,
	}
	switch settings.Method {
	case types.MethodLocal:
		repository, err := local.Open(settings.RepositoryPath, localOptions)
		if err != nil {
			return nil, nil, err
		}
		return repository, noClose, nil
	case types.MethodRemote:
		repository, err := github.Open(ctx, settings.RepositoryPath, github.Options{
			Token:      settings.GitHubToken,
			APIBaseURL: settings.APIBaseURL,
			Reference:  settings.Reference,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository, noClose, nil
	case types.MethodGit:
		repository, err := gitclone.Clone(ctx, settings.RepositoryPath, gitclone.Options{
			Reference:  settings.Reference,
			Token:      settings.GitHubToken,
			APIBaseURL: settings.APIBaseURL,
			Local:      localOptions,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository, repository.Close, nil
	default:
		return nil, nil, types.NewError(types.KindConfiguration, "open repository", settings.RepositoryPath, fmt.Errorf("unsupported method %q", settings.Method))
	}
}

// anchorPaths resolves relative filesystem settings against the working directory.
func anchorPaths(settings config.Settings, workingDirectory string) config.Settings {
	anchor := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(workingDirectory, path)
	}
	settings.OutputDirectory = anchor(settings.OutputDirectory)
	settings.PromptPath = anchor(settings.PromptPath)
	if settings.Method == types.MethodLocal {
		settings.RepositoryPath = anchor(settings.RepositoryPath)
	}
	return settings
}

// discoverPromptPath picks up prompt.txt from the working directory for local
// and git runs that configure no prompt path. Without it the embedded template applies.
func discoverPromptPath(settings config.Settings, workingDirectory string) string {
	if settings.PromptPath != "" || settings.Method == types.MethodRemote {
		return settings.PromptPath
	}
	candidate := filepath.Join(workingDirectory, utils.PromptFileName)
	if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
		return candidate
	}
	return ""
}
