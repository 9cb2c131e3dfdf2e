// Package collector renders the content section of a repository document.
package collector

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/temirov/repotxt/internal/binary"
	"github.com/temirov/repotxt/internal/source"
	"github.com/temirov/repotxt/internal/types"
	"github.com/temirov/repotxt/internal/walker"
)

const (
	fileHeaderFormat   = "File: /%s\n"
	textHeader         = "Content:\n"
	latin1Header       = "Content (Latin-1 Decoded):\n"
	binaryPlaceholder  = "Content: Skipped binary file"
	missingPlaceholder = "Content: Skipped due to missing encoding"
	unsupportedMarker  = "Content: Skipped due to unsupported encoding"
	readErrorMarker    = "Content: Error reading file"
	entryTerminator    = "\n\n"

	logMessageBinary      = "skipping binary file"
	logMessageMissing     = "skipping file without encoding"
	logMessageUnsupported = "skipping file with unsupported encoding"
	logMessageReadFailure = "failed to read file"
	logMessageLatin1      = "decoded file as Latin-1"
	logMessageCollected   = "collected repository contents"
)

var errUnsupportedEncoding = errors.New("unsupported encoding")

// Outcome names how a single file was rendered.
type Outcome int

const (
	OutcomeText Outcome = iota
	OutcomeLatin1
	OutcomeBinary
	OutcomeMissingEncoding
	OutcomeUnsupportedEncoding
	OutcomeReadError
)

// Stats counts rendered files by outcome.
type Stats struct {
	Text    int
	Latin1  int
	Binary  int
	Skipped int
	Failed  int
}

// Total returns the number of files seen.
func (stats Stats) Total() int {
	return stats.Text + stats.Latin1 + stats.Binary + stats.Skipped + stats.Failed
}

func (stats *Stats) record(outcome Outcome) {
	switch outcome {
	case OutcomeText:
		stats.Text++
	case OutcomeLatin1:
		stats.Latin1++
	case OutcomeBinary:
		stats.Binary++
	case OutcomeMissingEncoding, OutcomeUnsupportedEncoding:
		stats.Skipped++
	case OutcomeReadError:
		stats.Failed++
	}
}

// Collector turns repository files into labelled text blocks.
type Collector struct {
	classifier binary.ExtensionSet
	logger     *zap.Logger
}

// New returns a Collector. A nil logger discards log output.
func New(classifier binary.ExtensionSet, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{classifier: classifier, logger: logger}
}

// Collect walks src and returns every file block concatenated in walk order.
func (collector *Collector) Collect(ctx context.Context, src source.Source) (string, error) {
	var builder strings.Builder
	if _, err := collector.Stream(ctx, src, &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// Stream walks src and writes each file block to writer as soon as it is rendered.
// Content failures degrade to placeholders; listing and write failures are returned.
func (collector *Collector) Stream(ctx context.Context, src source.Source, writer io.Writer) (Stats, error) {
	var stats Stats
	walkError := walker.Walk(ctx, src, func(entry types.Entry) error {
		return collector.emit(ctx, src, entry, writer, &stats)
	})
	if walkError != nil {
		return stats, walkError
	}
	collector.logStats(src.Name(), stats)
	return stats, nil
}

// StreamEntries renders an already traversed listing, skipping directories.
func (collector *Collector) StreamEntries(ctx context.Context, src source.Source, entries []types.Entry, writer io.Writer) (Stats, error) {
	var stats Stats
	for _, entry := range entries {
		if contextError := ctx.Err(); contextError != nil {
			return stats, contextError
		}
		if emitError := collector.emit(ctx, src, entry, writer, &stats); emitError != nil {
			return stats, emitError
		}
	}
	collector.logStats(src.Name(), stats)
	return stats, nil
}

func (collector *Collector) emit(ctx context.Context, src source.Source, entry types.Entry, writer io.Writer, stats *Stats) error {
	if entry.IsDirectory() {
		return nil
	}
	block, outcome := collector.Render(ctx, src, entry)
	stats.record(outcome)
	if _, writeError := io.WriteString(writer, block); writeError != nil {
		return fmt.Errorf("write contents of %s: %w", entry.Path, writeError)
	}
	return nil
}

func (collector *Collector) logStats(repository string, stats Stats) {
	collector.logger.Info(logMessageCollected,
		zap.String("repository", repository),
		zap.Int("text", stats.Text),
		zap.Int("latin1", stats.Latin1),
		zap.Int("binary", stats.Binary),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
}

// Render produces the block for one file, including its trailing blank line.
func (collector *Collector) Render(ctx context.Context, src source.Source, entry types.Entry) (string, Outcome) {
	body, outcome := collector.renderBody(ctx, src, entry)
	return fmt.Sprintf(fileHeaderFormat, strings.Trim(entry.Path, "/")) + body + entryTerminator, outcome
}

func (collector *Collector) renderBody(ctx context.Context, src source.Source, entry types.Entry) (string, Outcome) {
	if collector.classifier.IsBinary(entry.Name) {
		collector.logger.Debug(logMessageBinary, zap.String("path", entry.Path))
		return binaryPlaceholder, OutcomeBinary
	}

	payload, readError := src.Read(ctx, entry.Path)
	if readError != nil {
		collector.logger.Warn(logMessageReadFailure, zap.String("path", entry.Path), zap.Error(readError))
		return readErrorMarker, OutcomeReadError
	}

	var data []byte
	switch payload.Encoding {
	case types.EncodingRaw:
		data = payload.Data
	case types.EncodingBase64:
		decoded, decodeError := decodeBase64(payload.Data)
		if decodeError != nil {
			collector.logger.Warn(logMessageReadFailure, zap.String("path", entry.Path), zap.Error(decodeError))
			return readErrorMarker, OutcomeReadError
		}
		data = decoded
	case "", types.EncodingNone:
		collector.logger.Warn(logMessageMissing, zap.String("path", entry.Path))
		return missingPlaceholder, OutcomeMissingEncoding
	default:
		collector.logger.Warn(logMessageUnsupported, zap.String("path", entry.Path), zap.String("encoding", payload.Encoding))
		return unsupportedMarker, OutcomeUnsupportedEncoding
	}

	if utf8.Valid(data) {
		return textHeader + string(data), OutcomeText
	}
	decoded, decodeError := decodeLatin1(data)
	if decodeError != nil {
		collector.logger.Warn(logMessageUnsupported, zap.String("path", entry.Path), zap.Error(decodeError))
		return unsupportedMarker, OutcomeUnsupportedEncoding
	}
	collector.logger.Debug(logMessageLatin1, zap.String("path", entry.Path))
	return latin1Header + decoded, OutcomeLatin1
}

// decodeBase64 accepts the line-wrapped form the GitHub contents API returns.
func decodeBase64(data []byte) ([]byte, error) {
	compact := strings.Map(func(character rune) rune {
		switch character {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return character
	}, string(data))
	return base64.StdEncoding.DecodeString(compact)
}

func decodeLatin1(data []byte) (string, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnsupportedEncoding, err)
	}
	return string(decoded), nil
}
