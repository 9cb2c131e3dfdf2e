// Package binary classifies files as binary by filename suffix alone.
package binary

import (
	"sort"
	"strings"
)

// defaultSuffixes lists extensions and exact filenames whose content is never emitted.
var defaultSuffixes = []string{
	// compiled executables and libraries
	".exe", ".dll", ".so", ".a", ".lib", ".dylib", ".o", ".obj",
	// compressed archives
	".zip", ".tar", ".tar.gz", ".tgz", ".rar", ".7z", ".bz2", ".gz", ".xz", ".z", ".lz", ".lzma", ".lzo", ".rz",
	".sz", ".dz",
	// office documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt", ".ods", ".odp",
	// media
	".png", ".jpg", ".jpeg", ".gif", ".mp3", ".mp4", ".wav", ".flac", ".ogg", ".avi", ".mkv", ".mov", ".webm",
	".wmv", ".m4a", ".aac",
	// virtual machine and container images
	".iso", ".vmdk", ".qcow2", ".vdi", ".vhd", ".vhdx", ".ova", ".ovf",
	// databases
	".db", ".sqlite", ".mdb", ".accdb", ".frm", ".ibd", ".dbf",
	// java
	".jar", ".class", ".war", ".ear", ".jpi",
	// python bytecode and packages
	".pyc", ".pyo", ".pyd", ".egg", ".whl",
	// installers, dumps and lockfiles
	".deb", ".rpm", ".apk", ".msi", ".dmg", ".pkg", ".bin", ".dat", ".data",
	".dump", ".img", ".toast", ".vcd", ".crx", ".xpi", ".lockb", "package-lock.json", ".svg",
	// fonts and icons
	".eot", ".otf", ".ttf", ".woff", ".woff2",
	".ico", ".icns", ".cur",
	".cab", ".dmp", ".msp", ".msm",
	// keys and certificates
	".keystore", ".jks", ".truststore", ".cer", ".crt", ".der", ".p7b", ".p7c", ".p12", ".pfx", ".pem", ".csr",
	".key", ".pub", ".sig", ".pgp", ".gpg",
	".nupkg", ".snupkg", ".appx", ".msix", ".msu",
	".snap", ".flatpak", ".appimage",
	".ko", ".sys", ".elf",
	".swf", ".fla", ".swc",
	".rlib", ".pdb", ".idb", ".dbg",
	".sdf", ".bak", ".tmp", ".temp", ".log", ".tlog", ".ilk",
	".bpl", ".dcu", ".dcp", ".dcpil", ".drc",
	".aps", ".res", ".rsrc", ".rc", ".resx",
	".prefs", ".properties", ".ini", ".cfg", ".config", ".conf",
	".DS_Store", ".localized", ".svn", ".git", ".gitignore", ".gitkeep",
}

// ExtensionSet is an immutable set of filename suffixes.
type ExtensionSet struct {
	suffixes []string
}

// DefaultExtensions returns the built-in denylist.
func DefaultExtensions() ExtensionSet {
	return NewExtensionSet(defaultSuffixes...)
}

// NewExtensionSet builds a set from the provided suffixes, dropping blanks and duplicates.
func NewExtensionSet(suffixes ...string) ExtensionSet {
	seen := make(map[string]struct{}, len(suffixes))
	collected := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		trimmed := strings.TrimSpace(suffix)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		collected = append(collected, trimmed)
	}
	sort.Strings(collected)
	return ExtensionSet{suffixes: collected}
}

// With returns a new set containing the receiver's suffixes plus extra.
func (set ExtensionSet) With(extra ...string) ExtensionSet {
	combined := make([]string, 0, len(set.suffixes)+len(extra))
	combined = append(combined, set.suffixes...)
	combined = append(combined, extra...)
	return NewExtensionSet(combined...)
}

// IsBinary reports whether name ends with one of the set's suffixes.
// Matching is case-sensitive and never inspects file content.
func (set ExtensionSet) IsBinary(name string) bool {
	for _, suffix := range set.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Suffixes returns a sorted copy of the set's suffixes.
func (set ExtensionSet) Suffixes() []string {
	return append([]string(nil), set.suffixes...)
}

// Len returns the number of suffixes in the set.
func (set ExtensionSet) Len() int {
	return len(set.suffixes)
}
