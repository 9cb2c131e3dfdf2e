// Package document assembles the single text document produced for a repository.
package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repotxt/internal/collector"
	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/tokenizer"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/walker"
)

const (
	readmeSectionFormat   = "README:\n%s\n\n"
	readmeMissingText     = "README not found."
	structureSeparator    = "\n\n"
	logMessageReadme      = "fetching README"
	logMessageReadmeError = "README unavailable"
	logMessageStructure   = "fetching repository structure"
	logMessageContents    = "fetching file contents"
	logMessageTokens      = "estimated document tokens"
	logMessageTokenError  = "token estimate failed"
)

// Request selects the preamble for one run.
type Request struct {
	Method     types.Method
	PromptPath string
}

// Result summarizes a finished document.
type Result struct {
	Repository string
	Bytes      int64
	Stats      collector.Stats
	Tokens     tokenizer.CountResult
	TokenModel string
}

// Assembler builds documents from a source.
type Assembler struct {
	collector  *collector.Collector
	logger     *zap.Logger
	counter    tokenizer.Counter
	tokenModel string
}

// NewAssembler returns an Assembler that renders contents with contentCollector.
func NewAssembler(contentCollector *collector.Collector, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{collector: contentCollector, logger: logger}
}

// WithTokenCounter enables a token estimate of every assembled document.
func (assembler *Assembler) WithTokenCounter(counter tokenizer.Counter, model string) *Assembler {
	assembler.counter = counter
	assembler.tokenModel = model
	return assembler
}

// Assemble writes preamble, README, structure listing and contents to sink in
// that order. Nothing is written until the preamble is resolved and the tree
// has been listed, so configuration and structural failures leave the sink empty.
func (assembler *Assembler) Assemble(ctx context.Context, src source.Source, request Request, sink io.Writer) (Result, error) {
	repositoryName := src.Name()
	result := Result{Repository: repositoryName}

	preamble, preambleError := Preamble(request.Method, repositoryName, request.PromptPath)
	if preambleError != nil {
		return result, preambleError
	}

	assembler.logger.Info(logMessageReadme, zap.String("repository", repositoryName))
	readme, readmeError := src.Readme(ctx)
	if readmeError != nil {
		assembler.logger.Warn(logMessageReadmeError, zap.String("repository", repositoryName), zap.Error(readmeError))
		readme = readmeMissingText
	}

	assembler.logger.Info(logMessageStructure, zap.String("repository", repositoryName))
	entries, traverseError := walker.Traverse(ctx, src)
	if traverseError != nil {
		return result, traverseError
	}

	counting := &countingWriter{target: sink}
	var writer io.Writer = counting
	var document *strings.Builder
	if assembler.counter != nil {
		document = &strings.Builder{}
		writer = io.MultiWriter(counting, document)
	}

	parts := []string{
		terminateLine(preamble),
		fmt.Sprintf(readmeSectionFormat, readme),
		walker.FormatStructure(repositoryName, entries),
		structureSeparator,
	}
	for _, part := range parts {
		if _, writeError := io.WriteString(writer, part); writeError != nil {
			return result, fmt.Errorf("write document: %w", writeError)
		}
	}

	assembler.logger.Info(logMessageContents, zap.String("repository", repositoryName))
	stats, streamError := assembler.collector.StreamEntries(ctx, src, entries, writer)
	result.Stats = stats
	result.Bytes = counting.written
	if streamError != nil {
		return result, streamError
	}

	if document != nil {
		assembler.estimateTokens(&result, document.String())
	}
	return result, nil
}

func (assembler *Assembler) estimateTokens(result *Result, document string) {
	countResult, countError := tokenizer.CountBytes(assembler.counter, []byte(document))
	if countError != nil {
		assembler.logger.Warn(logMessageTokenError, zap.Error(countError))
		return
	}
	result.Tokens = countResult
	result.TokenModel = assembler.tokenModel
	if countResult.Counted {
		assembler.logger.Info(logMessageTokens,
			zap.String("repository", result.Repository),
			zap.String("model", assembler.tokenModel),
			zap.Int("tokens", countResult.Tokens),
		)
	}
}

func terminateLine(part string) string {
	if part == "" || strings.HasSuffix(part, "\n") {
		return part
	}
	return part + "\n"
}

type countingWriter struct {
	target  io.Writer
	written int64
}

func (writer *countingWriter) Write(data []byte) (int, error) {
	written, err := writer.target.Write(data)
	writer.written += int64(written)
	return written, err
}
