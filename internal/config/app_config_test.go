package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func isolateHome(t *testing.T) string {
	t.Helper()
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	return homeDirectory
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []struct {
		name            string
		globalContent   string
		localContent    string
		explicitName    string
		explicitContent string
		expectMethod    string
		expectRepo      string
		expectModel     string
		expectClipboard *bool
		expectGitignore *bool
	}{
		{
			name:            "local_overrides_global",
			globalContent:   `{"method": "remote", "clipboard": true, "tokens": {"model": "gpt-4"}}`,
			localContent:    `{"method": "local", "repo_path": "/proj", "use_gitignore": false}`,
			expectMethod:    "local",
			expectRepo:      "/proj",
			expectModel:     "gpt-4",
			expectClipboard: boolPointer(true),
			expectGitignore: boolPointer(false),
		},
		{
			name:            "explicit_path_replaces_default_local",
			localContent:    `{"method": "local", "repo_path": "ignored"}`,
			explicitName:    "custom.json",
			explicitContent: `{"method": "r", "repo_path": "https://github.com/octo/demo"}`,
			expectMethod:    "r",
			expectRepo:      "https://github.com/octo/demo",
		},
		{
			name:            "yaml_accepted",
			explicitName:    "custom.yaml",
			explicitContent: "method: git\nrepo_path: https://example.com/demo.git\ntokens:\n  model: gpt-4o\n",
			expectMethod:    "git",
			expectRepo:      "https://example.com/demo.git",
			expectModel:     "gpt-4o",
		},
		{
			name: "no_files",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDirectory := isolateHome(t)
			workingDirectory := t.TempDir()
			if testCase.globalContent != "" {
				configDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
				if err := os.MkdirAll(configDirectory, 0o755); err != nil {
					t.Fatalf("create config dir: %v", err)
				}
				if err := os.WriteFile(filepath.Join(configDirectory, utils.ConfigFileName), []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				if err := os.WriteFile(filepath.Join(workingDirectory, utils.ConfigFileName), []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitName != "" {
				if err := os.WriteFile(filepath.Join(workingDirectory, testCase.explicitName), []byte(testCase.explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDirectory,
				ExplicitFilePath: testCase.explicitName,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}
			if loadedConfig.Method != testCase.expectMethod {
				t.Fatalf("expected method %q, got %q", testCase.expectMethod, loadedConfig.Method)
			}
			if loadedConfig.RepositoryPath != testCase.expectRepo {
				t.Fatalf("expected repo_path %q, got %q", testCase.expectRepo, loadedConfig.RepositoryPath)
			}
			if loadedConfig.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Tokens.Model)
			}
			assertBoolPointer(t, "clipboard", testCase.expectClipboard, loadedConfig.Clipboard)
			assertBoolPointer(t, "use_gitignore", testCase.expectGitignore, loadedConfig.UseGitignore)
		})
	}
}

func assertBoolPointer(t *testing.T, name string, expected *bool, actual *bool) {
	t.Helper()
	if expected == nil {
		if actual != nil {
			t.Fatalf("expected %s to be unset, got %v", name, *actual)
		}
		return
	}
	if actual == nil || *actual != *expected {
		t.Fatalf("expected %s %v, got %v", name, *expected, actual)
	}
}

func TestLoadApplicationConfigurationExplicitMissingFile(t *testing.T) {
	isolateHome(t)
	_, err := LoadApplicationConfiguration(LoadOptions{
		WorkingDirectory: t.TempDir(),
		ExplicitFilePath: "absent.json",
	})
	if kind, _ := types.KindOf(err); kind != types.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadApplicationConfigurationMalformedFile(t *testing.T) {
	isolateHome(t)
	workingDirectory := t.TempDir()
	if err := os.WriteFile(filepath.Join(workingDirectory, utils.ConfigFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if kind, _ := types.KindOf(err); kind != types.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestMergeKeepsBaseWhenOverrideUnset(t *testing.T) {
	base := ApplicationConfiguration{
		Method:           "local",
		RepositoryPath:   "/proj",
		BinaryExtensions: []string{".foo"},
		IncludeGit:       boolPointer(true),
		Tokens:           TokenConfiguration{Enabled: boolPointer(true), Model: "gpt-4o"},
	}
	override := ApplicationConfiguration{
		RepositoryPath: "/other",
		IncludeGit:     boolPointer(false),
	}

	merged := base.Merge(override)
	if merged.Method != "local" || merged.RepositoryPath != "/other" {
		t.Fatalf("unexpected merge result %+v", merged)
	}
	if merged.IncludeGit == nil || *merged.IncludeGit {
		t.Fatalf("expected include_git override to false")
	}
	if len(merged.BinaryExtensions) != 1 || merged.Tokens.Model != "gpt-4o" || !*merged.Tokens.Enabled {
		t.Fatalf("expected untouched fields to survive, got %+v", merged)
	}

	*override.IncludeGit = true
	if *merged.IncludeGit {
		t.Fatalf("merge must not alias override pointers")
	}
}

func TestResolveRequiresKeys(t *testing.T) {
	testCases := []struct {
		name        string
		config      ApplicationConfiguration
		expectedKey string
	}{
		{name: "missing method", config: ApplicationConfiguration{RepositoryPath: "/proj"}, expectedKey: KeyMethod},
		{name: "missing repo_path", config: ApplicationConfiguration{Method: "local"}, expectedKey: KeyRepositoryPath},
		{name: "both missing reports method", config: ApplicationConfiguration{}, expectedKey: KeyMethod},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := testCase.config.Resolve("")
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind, _ := types.KindOf(err); kind != types.KindConfiguration {
				t.Fatalf("expected configuration kind, got %v", err)
			}
			expectedMessage := `missing required configuration key "` + testCase.expectedKey + `"`
			if !strings.Contains(err.Error(), expectedMessage) {
				t.Fatalf("expected %q in %q", expectedMessage, err.Error())
			}
		})
	}
}

func TestResolveRejectsUnknownMethod(t *testing.T) {
	_, err := ApplicationConfiguration{Method: "ftp", RepositoryPath: "/proj"}.Resolve("")
	if kind, _ := types.KindOf(err); kind != types.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResolveAppliesDefaults(t *testing.T) {
	settings, err := ApplicationConfiguration{
		Method:         " r ",
		RepositoryPath: "https://github.com/octo/demo",
		Clipboard:      boolPointer(true),
		Tokens:         TokenConfiguration{Enabled: boolPointer(true), Model: "gpt-4o"},
	}.Resolve("secret")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if settings.Method != types.MethodRemote {
		t.Fatalf("expected remote method, got %q", settings.Method)
	}
	if settings.OutputDirectory != "." {
		t.Fatalf("expected default output directory, got %q", settings.OutputDirectory)
	}
	if !settings.Clipboard || !settings.TokensEnabled || settings.UseGitignore || settings.IncludeGit {
		t.Fatalf("unexpected boolean settings %+v", settings)
	}
	if settings.GitHubToken != "secret" || settings.TokenModel != "gpt-4o" {
		t.Fatalf("unexpected settings %+v", settings)
	}
}
