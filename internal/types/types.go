// Package types defines every cross‑package data structure used by the repotxt CLI.
package types

import (
	"fmt"
	"strings"
)

const (
	EncodingRaw    = "raw"
	EncodingBase64 = "base64"
	EncodingNone   = "none"

	MethodLocal  Method = "local"
	MethodRemote Method = "remote"
	MethodGit    Method = "git"
)

// EntryKind distinguishes directories from files in a listing.
type EntryKind string

const (
	EntryDirectory EntryKind = "directory"
	EntryFile      EntryKind = "file"
)

// Entry is one filesystem object discovered under a repository root.
// Path is slash separated, relative to the root and never starts with a slash.
type Entry struct {
	Path string
	Name string
	Kind EntryKind
}

// IsDirectory reports whether the entry is a directory.
func (entry Entry) IsDirectory() bool {
	return entry.Kind == EntryDirectory
}

// Payload carries raw file bytes together with the transport encoding the
// backend reported for them.
type Payload struct {
	Data     []byte
	Encoding string
}

// Method selects the repository backend.
type Method string

var methodAliases = map[string]Method{
	"local":  MethodLocal,
	"l":      MethodLocal,
	"remote": MethodRemote,
	"r":      MethodRemote,
	"git":    MethodGit,
	"g":      MethodGit,
}

// ParseMethod resolves a configured method name or its one-letter alias.
func ParseMethod(value string) (Method, error) {
	method, ok := methodAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", NewError(KindConfiguration, "parse method", "", fmt.Errorf("invalid method %q; use 'local', 'remote', 'git', 'l', 'r', or 'g'", value))
	}
	return method, nil
}
