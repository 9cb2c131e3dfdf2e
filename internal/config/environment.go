package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

const operationLoadEnvironment = "load environment"

// LoadEnvironmentFile exports the variables of the .env file in workingDirectory
// into the process environment. Variables that are already set keep their
// value, and a missing file is not an error.
func LoadEnvironmentFile(workingDirectory string) error {
	environmentPath := filepath.Join(workingDirectory, utils.EnvironmentFileName)
	if _, statErr := os.Stat(environmentPath); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return types.NewError(types.KindConfiguration, operationLoadEnvironment, environmentPath, statErr)
	}
	if loadErr := gotenv.Load(environmentPath); loadErr != nil {
		return types.NewError(types.KindConfiguration, operationLoadEnvironment, environmentPath, loadErr)
	}
	return nil
}

// GitHubToken returns the GitHub credential from the process environment.
func GitHubToken() string {
	return strings.TrimSpace(os.Getenv(utils.GitHubTokenVariable))
}
