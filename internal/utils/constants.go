// Package utils holds constants and small helpers shared by the repotxt packages.
package utils

const (
	// ConfigFileName is the configuration file looked up in the working directory.
	ConfigFileName = "config.json"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".repotxt"
	// EnvironmentFileName is loaded into the process environment before configuration is read.
	EnvironmentFileName = ".env"
	// GitHubTokenVariable names the environment variable carrying the GitHub credential.
	GitHubTokenVariable = "GITHUB_TOKEN"
	// PromptFileName is the prompt template picked up from the working directory when no prompt path is configured.
	PromptFileName = "prompt.txt"
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)
