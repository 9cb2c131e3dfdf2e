package document_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repotxt/internal/binary"
	"github.com/temirov/repotxt/internal/collector"
	"github.com/temirov/repotxt/internal/document"
	"github.com/temirov/repotxt/internal/source/local"
	"github.com/temirov/repotxt/internal/source/sourcetest"
	"github.com/temirov/repotxt/internal/types"
)

type runeCounter struct{}

func (runeCounter) Name() string { return "runes" }

func (runeCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

func newAssembler() *document.Assembler {
	return document.NewAssembler(collector.New(binary.DefaultExtensions(), zap.NewNop()), zap.NewNop())
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	rootDirectory := t.TempDir()
	for relativePath, content := range files {
		fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	return rootDirectory
}

func TestAssembleLocalRepositoryEndToEnd(t *testing.T) {
	rootDirectory := writeTree(t, map[string]string{
		"README.md": "Hi",
		"src/a.py":  "print(1)",
		"logo.png":  "\x89PNG\x00\x01",
	})
	promptPath := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Analyze ##REPO_NAME##"), 0o644))

	repository, err := local.Open(rootDirectory, local.Options{Name: "proj"})
	require.NoError(t, err)

	var output strings.Builder
	result, err := newAssembler().Assemble(context.Background(), repository, document.Request{
		Method:     types.MethodLocal,
		PromptPath: promptPath,
	}, &output)
	require.NoError(t, err)

	expected := "Analyze proj\n" +
		"README:\nHi\n\n" +
		"Repository Structure: proj\n/README.md\n/logo.png\n/src/\n/src/a.py\n" +
		"\n\n" +
		"File: /README.md\nContent:\nHi\n\n" +
		"File: /logo.png\nContent: Skipped binary file\n\n" +
		"File: /src/a.py\nContent:\nprint(1)\n\n"
	assert.Equal(t, expected, output.String())
	assert.Equal(t, int64(len(expected)), result.Bytes)
	assert.Equal(t, collector.Stats{Text: 2, Binary: 1}, result.Stats)
	assert.False(t, result.Tokens.Counted)
}

func TestAssembleRemoteUsesAnalysisInstructions(t *testing.T) {
	memory := sourcetest.NewMemory("demo", map[string]string{"main.go": "package main"})
	memory.ReadmeText = "Demo"

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{
		Method:     types.MethodRemote,
		PromptPath: filepath.Join(t.TempDir(), "ignored.txt"),
	}, &output)
	require.NoError(t, err)

	text := output.String()
	require.True(t, strings.HasPrefix(text, "Prompt: Analyze the demo repository to understand its structure"))
	for step := 1; step <= 10; step++ {
		assert.Contains(t, text, "\n\n"+strconv.Itoa(step)+". ")
	}
	assert.Contains(t, text, "Use the files and contents provided below to complete this analysis:\n\nREADME:\nDemo\n\n")
	assert.Contains(t, text, "Repository Structure: demo\n/main.go\n\n\nFile: /main.go\nContent:\npackage main\n\n")
}

func TestAssembleFallsBackWhenReadmeMissing(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a"})

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{Method: types.MethodLocal}, &output)
	require.NoError(t, err)
	assert.Contains(t, output.String(), "README:\nREADME not found.\n\n")
}

func TestAssembleUsesDefaultTemplateWithoutPromptPath(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a"})

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{Method: types.MethodGit}, &output)
	require.NoError(t, err)

	expectedPreamble := document.RenderTemplate(document.DefaultPromptTemplate(), "proj")
	assert.True(t, strings.HasPrefix(output.String(), expectedPreamble))
	assert.NotContains(t, expectedPreamble, document.RepositoryNamePlaceholder)
	assert.Contains(t, expectedPreamble, "proj")
}

func TestAssembleReplacesPlaceholderOnlyInTemplate(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"notes.md": "literal ##REPO_NAME## stays"})
	promptPath := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("About ##REPO_NAME## and ##REPO_NAME##\n"), 0o644))

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{Method: types.MethodLocal, PromptPath: promptPath}, &output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output.String(), "About proj and proj\nREADME:"))
	assert.Contains(t, output.String(), "Content:\nliteral ##REPO_NAME## stays\n\n")
}

func TestAssembleMissingPromptIsConfigurationError(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a"})

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{
		Method:     types.MethodLocal,
		PromptPath: filepath.Join(t.TempDir(), "absent.txt"),
	}, &output)
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.KindConfiguration, kind)
	assert.Empty(t, output.String())
	assert.Empty(t, memory.ListCalls)
}

func TestAssembleStructuralFailureWritesNothing(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"src/a.py": "x"})
	memory.ListErrors = map[string]error{"src": errors.New("listing failed")}

	var output strings.Builder
	_, err := newAssembler().Assemble(context.Background(), memory, document.Request{Method: types.MethodRemote}, &output)
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
	assert.Empty(t, output.String())
}

func TestAssembleEstimatesTokens(t *testing.T) {
	memory := sourcetest.NewMemory("proj", map[string]string{"a.txt": "a"})
	assembler := newAssembler().WithTokenCounter(runeCounter{}, "runes")

	var output strings.Builder
	result, err := assembler.Assemble(context.Background(), memory, document.Request{Method: types.MethodRemote}, &output)
	require.NoError(t, err)
	assert.True(t, result.Tokens.Counted)
	assert.Equal(t, len([]rune(output.String())), result.Tokens.Tokens)
	assert.Equal(t, "runes", result.TokenModel)
}

func TestAnalysisInstructionsListsTenSteps(t *testing.T) {
	instructions := document.AnalysisInstructions("demo")
	assert.True(t, strings.HasPrefix(instructions, "Prompt: Analyze the demo repository"))
	assert.True(t, strings.HasSuffix(instructions, "Use the files and contents provided below to complete this analysis:\n\n"))
	assert.Contains(t, instructions, "1. Read the README file")
	assert.Contains(t, instructions, "10. Provide a summary of your findings")
	assert.NotContains(t, instructions, "11. ")
}
