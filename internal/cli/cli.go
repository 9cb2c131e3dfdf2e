// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotxt/internal/config"
	"github.com/temirov/repotxt/internal/services/clipboard"
	"github.com/temirov/repotxt/internal/utils"
)

const (
	configFlagName     = "config"
	methodFlagName     = "method"
	methodShorthand    = "m"
	outputDirFlagName  = "output-dir"
	outputDirShorthand = "o"
	promptFlagName     = "prompt"
	referenceFlagName  = "ref"
	apiURLFlagName     = "api-url"
	binaryFlagName     = "binary-ext"
	clipboardFlagName  = "clipboard"
	tokensFlagName     = "tokens"
	modelFlagName      = "model"
	gitignoreFlagName  = "gitignore"
	gitDirFlagName     = "git-dir"
	verboseFlagName    = "verbose"
	versionFlagName    = "version"
	forceFlagName      = "force"
	globalFlagName     = "global"

	versionTemplate      = "repotxt version: %s\n"
	rootUse              = "repotxt [repo_path]"
	rootShortDescription = "flatten a repository into one text document"
	rootLongDescription  = `repotxt writes the README, the directory structure and the text of every
non-binary file of a repository into <name>_contents.txt, ready to paste into
a language model prompt.

Settings come from config.json in the working directory (or --config) and
flags override them. The method selects the backend: local (l) reads a
directory, remote (r) reads a GitHub repository through its API using
GITHUB_TOKEN, and git (g) clones any git URL into a temporary directory.`
	rootUsageExample = `  # Flatten the current directory
  repotxt --method local .

  # Flatten a GitHub repository at a tag
  GITHUB_TOKEN=... repotxt -m remote --ref v1.0.0 https://github.com/octo/demo

  # Clone over git and copy the document to the clipboard
  repotxt -m git --clipboard https://github.com/octo/demo.git`

	initUse              = "init"
	initShortDescription = "write a default " + utils.ConfigFileName
	initLongDescription  = `Write a default configuration file into the working directory, or into
~/` + utils.GlobalConfigDirectoryName + ` with --global. Existing files are kept unless --force is given.`

	configFlagDescription    = "path to the configuration file (default ./" + utils.ConfigFileName + ")"
	methodFlagDescription    = "repository backend: local, remote, git (l, r, g)"
	outputDirFlagDescription = "directory receiving <name>_contents.txt"
	promptFlagDescription    = "prompt template for local and git runs"
	referenceFlagDescription = "branch, tag or commit to read"
	apiURLFlagDescription    = "GitHub API base URL"
	binaryFlagDescription    = "additional binary filename suffix (repeatable)"
	clipboardFlagDescription = "also copy the document to the clipboard"
	tokensFlagDescription    = "estimate the document's token count"
	modelFlagDescription     = "tokenizer model used for the estimate"
	gitignoreFlagDescription = "skip paths matched by the root .gitignore"
	gitDirFlagDescription    = "include the .git directory"
	verboseFlagDescription   = "log per-file decisions"
	versionFlagDescription   = "display application version"
	forceFlagDescription     = "overwrite an existing configuration file"
	globalFlagDescription    = "write the global configuration instead"

	initCompletedFormat      = "Configuration written to '%s'.\n"
	workingDirectoryErrorFmt = "unable to determine working directory: %w"
)

// LoggerFactory builds the run logger once flags are parsed.
type LoggerFactory func(verbose bool) (*zap.Logger, error)

// Dependencies are the collaborators the command line uses to reach the outside world.
type Dependencies struct {
	NewLogger        LoggerFactory
	Copier           clipboard.Copier
	Stdout           io.Writer
	WorkingDirectory string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.NewLogger == nil {
		dependencies.NewLogger = utils.NewApplicationLogger
	}
	if dependencies.Copier == nil {
		dependencies.Copier = clipboard.NewService()
	}
	if dependencies.Stdout == nil {
		dependencies.Stdout = os.Stdout
	}
	return dependencies
}

// Execute runs the repotxt application with arguments.
func Execute(ctx context.Context, dependencies Dependencies, arguments []string) error {
	rootCommand := NewRootCommand(dependencies)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	return rootCommand.ExecuteContext(ctx)
}

// rootOptions collects every flag of the root command.
type rootOptions struct {
	configPath       string
	method           string
	outputDirectory  string
	promptPath       string
	reference        string
	apiBaseURL       string
	binaryExtensions []string
	clipboard        *bool
	tokens           *bool
	model            string
	useGitignore     *bool
	includeGit       *bool
	verbose          bool
	showVersion      bool
}

// overrides converts flags that were given into a configuration layer.
func (options rootOptions) overrides(arguments []string) config.ApplicationConfiguration {
	override := config.ApplicationConfiguration{
		Method:           options.method,
		PromptPath:       options.promptPath,
		OutputDirectory:  options.outputDirectory,
		Reference:        options.reference,
		APIBaseURL:       options.apiBaseURL,
		BinaryExtensions: options.binaryExtensions,
		UseGitignore:     options.useGitignore,
		IncludeGit:       options.includeGit,
		Clipboard:        options.clipboard,
		Tokens: config.TokenConfiguration{
			Enabled: options.tokens,
			Model:   options.model,
		},
	}
	if len(arguments) > 0 {
		override.RepositoryPath = arguments[0]
	}
	return override
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies = dependencies.withDefaults()
	var options rootOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				_, err := fmt.Fprintf(dependencies.Stdout, versionTemplate, utils.GetApplicationVersion())
				return err
			}
			return runRepository(command.Context(), dependencies, options, arguments)
		},
	}

	flags := rootCommand.Flags()
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	flags.StringVarP(&options.method, methodFlagName, methodShorthand, "", methodFlagDescription)
	flags.StringVarP(&options.outputDirectory, outputDirFlagName, outputDirShorthand, "", outputDirFlagDescription)
	flags.StringVar(&options.promptPath, promptFlagName, "", promptFlagDescription)
	flags.StringVar(&options.reference, referenceFlagName, "", referenceFlagDescription)
	flags.StringVar(&options.apiBaseURL, apiURLFlagName, "", apiURLFlagDescription)
	flags.StringArrayVar(&options.binaryExtensions, binaryFlagName, nil, binaryFlagDescription)
	flags.StringVar(&options.model, modelFlagName, "", modelFlagDescription)
	registerOptionalBooleanFlag(flags, &options.clipboard, clipboardFlagName, clipboardFlagDescription)
	registerOptionalBooleanFlag(flags, &options.tokens, tokensFlagName, tokensFlagDescription)
	registerOptionalBooleanFlag(flags, &options.useGitignore, gitignoreFlagName, gitignoreFlagDescription)
	registerOptionalBooleanFlag(flags, &options.includeGit, gitDirFlagName, gitDirFlagDescription)
	rootCommand.PersistentFlags().BoolVarP(&options.verbose, verboseFlagName, "v", false, verboseFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&options.showVersion, versionFlagName, false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies))
	rootCommand.InitDefaultHelpCmd()
	return rootCommand
}

func createInitCommand(dependencies Dependencies) *cobra.Command {
	var force bool
	var global bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			workingDirectory, err := resolveWorkingDirectory(dependencies)
			if err != nil {
				return err
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(dependencies.Stdout, initCompletedFormat, path)
			return err
		},
	}
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	return initCommand
}

func resolveWorkingDirectory(dependencies Dependencies) (string, error) {
	if dependencies.WorkingDirectory != "" {
		return dependencies.WorkingDirectory, nil
	}
	workingDirectory, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf(workingDirectoryErrorFmt, err)
	}
	return workingDirectory, nil
}
