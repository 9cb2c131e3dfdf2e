// Package config loads repotxt settings from configuration files, command line
// overrides and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

const (
	// KeyMethod names the required backend selector.
	KeyMethod = "method"
	// KeyRepositoryPath names the required repository location.
	KeyRepositoryPath = "repo_path"

	operationLoadConfiguration = "load configuration"
	operationValidate          = "validate configuration"
	defaultOutputDirectory     = "."
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration mirrors the configuration file. Pointer booleans
// distinguish an absent key from an explicit false so layers can be merged.
type ApplicationConfiguration struct {
	Method           string             `mapstructure:"method"`
	RepositoryPath   string             `mapstructure:"repo_path"`
	PromptPath       string             `mapstructure:"prompt_path"`
	OutputDirectory  string             `mapstructure:"output_dir"`
	Reference        string             `mapstructure:"reference"`
	APIBaseURL       string             `mapstructure:"api_base_url"`
	BinaryExtensions []string           `mapstructure:"binary_extensions"`
	UseGitignore     *bool              `mapstructure:"use_gitignore"`
	IncludeGit       *bool              `mapstructure:"include_git"`
	Clipboard        *bool              `mapstructure:"clipboard"`
	Tokens           TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// Settings is the validated configuration for one run.
type Settings struct {
	Method           types.Method
	RepositoryPath   string
	PromptPath       string
	OutputDirectory  string
	Reference        string
	APIBaseURL       string
	BinaryExtensions []string
	UseGitignore     bool
	IncludeGit       bool
	Clipboard        bool
	TokensEnabled    bool
	TokenModel       string
	GitHubToken      string
}

// LoadApplicationConfiguration loads the global configuration and overlays the
// local one. The default local file is optional; an explicit path must exist.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	return merged.Merge(localConfig), nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, types.NewError(types.KindConfiguration, operationLoadConfiguration, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, types.NewError(types.KindConfiguration, operationLoadConfiguration, path, errors.New("configuration path is a directory"))
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, types.NewError(types.KindConfiguration, operationLoadConfiguration, path, fmt.Errorf("read configuration: %w", readErr))
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, types.NewError(types.KindConfiguration, operationLoadConfiguration, path, fmt.Errorf("decode configuration: %w", decodeErr))
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Method != "" {
		result.Method = override.Method
	}
	if override.RepositoryPath != "" {
		result.RepositoryPath = override.RepositoryPath
	}
	if override.PromptPath != "" {
		result.PromptPath = override.PromptPath
	}
	if override.OutputDirectory != "" {
		result.OutputDirectory = override.OutputDirectory
	}
	if override.Reference != "" {
		result.Reference = override.Reference
	}
	if override.APIBaseURL != "" {
		result.APIBaseURL = override.APIBaseURL
	}
	if len(override.BinaryExtensions) > 0 {
		result.BinaryExtensions = append([]string{}, override.BinaryExtensions...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.IncludeGit != nil {
		result.IncludeGit = cloneBool(override.IncludeGit)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// Resolve validates the merged configuration and produces run settings.
// Required keys are checked in a fixed order so the first missing one is reported.
func (config ApplicationConfiguration) Resolve(githubToken string) (Settings, error) {
	method := strings.TrimSpace(config.Method)
	if method == "" {
		return Settings{}, missingKeyError(KeyMethod)
	}
	repositoryPath := strings.TrimSpace(config.RepositoryPath)
	if repositoryPath == "" {
		return Settings{}, missingKeyError(KeyRepositoryPath)
	}
	parsedMethod, parseErr := types.ParseMethod(method)
	if parseErr != nil {
		return Settings{}, parseErr
	}

	outputDirectory := strings.TrimSpace(config.OutputDirectory)
	if outputDirectory == "" {
		outputDirectory = defaultOutputDirectory
	}

	return Settings{
		Method:           parsedMethod,
		RepositoryPath:   repositoryPath,
		PromptPath:       strings.TrimSpace(config.PromptPath),
		OutputDirectory:  outputDirectory,
		Reference:        strings.TrimSpace(config.Reference),
		APIBaseURL:       strings.TrimSpace(config.APIBaseURL),
		BinaryExtensions: append([]string{}, config.BinaryExtensions...),
		UseGitignore:     boolValue(config.UseGitignore),
		IncludeGit:       boolValue(config.IncludeGit),
		Clipboard:        boolValue(config.Clipboard),
		TokensEnabled:    boolValue(config.Tokens.Enabled),
		TokenModel:       strings.TrimSpace(config.Tokens.Model),
		GitHubToken:      githubToken,
	}, nil
}

func missingKeyError(key string) error {
	return types.NewError(types.KindConfiguration, operationValidate, "", fmt.Errorf("missing required configuration key %q", key))
}

func boolValue(value *bool) bool {
	return value != nil && *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
