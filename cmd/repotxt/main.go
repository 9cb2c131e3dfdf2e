package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/repotxt/internal/cli"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/utils"
)

const (
	loggerInitializationFailedMessageFormat = "failed to initialize logger: %v"
	applicationExecutionFailedMessage       = "repotxt failed"
	errorKindField                          = "kind"
	unclassifiedErrorKind                   = "unclassified"
)

// main is the entry point for the repotxt command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(false)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(loggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()

	dependencies := cli.Dependencies{NewLogger: utils.NewApplicationLogger}
	if applicationExecutionError := cli.Execute(context.Background(), dependencies, os.Args[1:]); applicationExecutionError != nil {
		kind, classified := types.KindOf(applicationExecutionError)
		if !classified {
			kind = unclassifiedErrorKind
		}
		loggerInstance.Fatal(applicationExecutionFailedMessage,
			zap.String(errorKindField, string(kind)),
			zap.Error(applicationExecutionError),
		)
	}
}
