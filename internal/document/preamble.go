package document

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/repotxt/internal/types"
)

// RepositoryNamePlaceholder is replaced with the repository name inside prompt templates.
const RepositoryNamePlaceholder = "##REPO_NAME##"

const (
	operationLoadPrompt = "load prompt template"

	instructionsIntroFormat = "Prompt: Analyze the %s repository to understand its structure, purpose, and functionality. Follow these steps to study the codebase:\n\n"
	instructionsOutro       = "Use the files and contents provided below to complete this analysis:\n\n"
)

//go:embed prompt_template.txt
var defaultPromptTemplate string

var analysisSteps = []string{
	"Read the README file to gain an overview of the project, its goals, and any setup instructions.",
	"Examine the repository structure to understand how the files and directories are organized.",
	"Identify the main entry point of the application (e.g., main.py, app.py, index.js) and start analyzing the code flow from there.",
	"Study the dependencies and libraries used in the project to understand the external tools and frameworks being utilized.",
	"Analyze the core functionality of the project by examining the key modules, classes, and functions.",
	"Look for any configuration files (e.g., config.py, .env) to understand how the project is configured and what settings are available.",
	"Investigate any tests or test directories to see how the project ensures code quality and handles different scenarios.",
	"Review any documentation or inline comments to gather insights into the codebase and its intended behavior.",
	"Identify any potential areas for improvement, optimization, or further exploration based on your analysis.",
	"Provide a summary of your findings, including the project's purpose, key features, and any notable observations or recommendations.",
}

// DefaultPromptTemplate returns the built-in template used when no prompt path is configured.
func DefaultPromptTemplate() string {
	return defaultPromptTemplate
}

// LoadPromptTemplate reads the template at promptPath verbatim. An empty path
// selects the built-in template; a path that cannot be read is a configuration error.
func LoadPromptTemplate(promptPath string) (string, error) {
	trimmedPath := strings.TrimSpace(promptPath)
	if trimmedPath == "" {
		return defaultPromptTemplate, nil
	}
	content, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			readError = fmt.Errorf("prompt template not found: %w", readError)
		}
		return "", types.NewError(types.KindConfiguration, operationLoadPrompt, trimmedPath, readError)
	}
	return string(content), nil
}

// RenderTemplate substitutes every placeholder occurrence in template with repositoryName.
func RenderTemplate(template string, repositoryName string) string {
	return strings.ReplaceAll(template, RepositoryNamePlaceholder, repositoryName)
}

// AnalysisInstructions returns the numbered checklist used as the remote preamble.
func AnalysisInstructions(repositoryName string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, instructionsIntroFormat, repositoryName)
	for index, step := range analysisSteps {
		fmt.Fprintf(&builder, "%d. %s\n\n", index+1, step)
	}
	builder.WriteString(instructionsOutro)
	return builder.String()
}

// Preamble selects the preamble for method. Local and git runs use the prompt
// template; remote runs use the analysis checklist and ignore promptPath.
func Preamble(method types.Method, repositoryName string, promptPath string) (string, error) {
	if method == types.MethodRemote {
		return AnalysisInstructions(repositoryName), nil
	}
	template, loadError := LoadPromptTemplate(promptPath)
	if loadError != nil {
		return "", loadError
	}
	return RenderTemplate(template, repositoryName), nil
}
