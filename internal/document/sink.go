package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/repotxt/internal/services/clipboard"
)

const outputFileSuffix = "_contents.txt"

// Sink receives the document part by part. Close is called once after the
// last part, whether or not the run succeeded.
type Sink interface {
	Write(data []byte) (int, error)
	Close() error
}

// OutputPath returns <outputDirectory>/<repositoryName>_contents.txt.
func OutputPath(outputDirectory string, repositoryName string) string {
	return filepath.Join(outputDirectory, repositoryName+outputFileSuffix)
}

// FileSink writes the document to a file. The file is created or truncated on
// the first write, so a run that fails before writing leaves no file behind.
type FileSink struct {
	path string
	file *os.File
}

// NewFileSink returns a sink for path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the destination path.
func (sink *FileSink) Path() string {
	return sink.path
}

func (sink *FileSink) Write(data []byte) (int, error) {
	if sink.file == nil {
		if directory := filepath.Dir(sink.path); directory != "" {
			if mkdirError := os.MkdirAll(directory, 0o755); mkdirError != nil {
				return 0, fmt.Errorf("create output directory %s: %w", directory, mkdirError)
			}
		}
		file, createError := os.Create(sink.path)
		if createError != nil {
			return 0, fmt.Errorf("create output file %s: %w", sink.path, createError)
		}
		sink.file = file
	}
	return sink.file.Write(data)
}

func (sink *FileSink) Close() error {
	if sink.file == nil {
		return nil
	}
	closeError := sink.file.Close()
	sink.file = nil
	return closeError
}

// ClipboardSink buffers the document and copies it to the clipboard on Close.
type ClipboardSink struct {
	copier clipboard.Copier
	buffer strings.Builder
}

// NewClipboardSink returns a sink that hands the finished document to copier.
func NewClipboardSink(copier clipboard.Copier) *ClipboardSink {
	return &ClipboardSink{copier: copier}
}

func (sink *ClipboardSink) Write(data []byte) (int, error) {
	return sink.buffer.Write(data)
}

func (sink *ClipboardSink) Close() error {
	if sink.buffer.Len() == 0 {
		return nil
	}
	if copyError := sink.copier.Copy(sink.buffer.String()); copyError != nil {
		return fmt.Errorf("copy document to clipboard: %w", copyError)
	}
	return nil
}

// MultiSink fans writes out to every sink in order.
type MultiSink []Sink

func (sinks MultiSink) Write(data []byte) (int, error) {
	for _, sink := range sinks {
		written, writeError := sink.Write(data)
		if writeError != nil {
			return written, writeError
		}
		if written != len(data) {
			return written, fmt.Errorf("short write: %d of %d bytes", written, len(data))
		}
	}
	return len(data), nil
}

// Close closes every sink and joins their errors.
func (sinks MultiSink) Close() error {
	var closeErrors []error
	for _, sink := range sinks {
		if closeError := sink.Close(); closeError != nil {
			closeErrors = append(closeErrors, closeError)
		}
	}
	return errors.Join(closeErrors...)
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*ClipboardSink)(nil)
	_ Sink = MultiSink(nil)
)
