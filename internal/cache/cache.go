// Package cache persists per-library build records used for staleness
// detection.
//
// A record is a small plain-text file: line 1 holds the source revision
// identifier, line 2 the build configuration digest. Lines at position 3
// and beyond are reserved and preserved across rewrites.
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"depstall/internal/fingerprint"
)

// FileName returns the record file name for a library.
func FileName(library string) string {
	return "hash_" + library + ".txt"
}

// Read returns the fingerprint recorded at path. ok is false when the file
// does not exist or holds no revision line; a missing digest line yields an
// empty ConfigDigest.
func Read(path string) (fp fingerprint.Fingerprint, ok bool) {
	revision, ok := readLineAt(path, 1)
	if !ok || revision == "" {
		return fingerprint.Fingerprint{}, false
	}
	digest, _ := readLineAt(path, 2)
	return fingerprint.Fingerprint{Revision: revision, ConfigDigest: digest}, true
}

// IsRelevant reports whether the record at path matches current exactly.
// A current fingerprint without a config digest belongs to a kind that
// never builds; for those only the revision line is compared.
func IsRelevant(path string, current fingerprint.Fingerprint) bool {
	recorded, ok := Read(path)
	if !ok {
		return false
	}
	if recorded.Revision != current.Revision {
		return false
	}
	if current.ConfigDigest == "" {
		return true
	}
	return recorded.ConfigDigest == current.ConfigDigest
}

// Write records fp at path, creating parent directories as needed. Only the
// first two lines are rewritten; any further lines already present are kept,
// and the file is padded with blank lines if it was shorter. Fingerprints
// without a digest write the revision line only.
func Write(path string, fp fingerprint.Fingerprint) error {
	if err := writeLineAt(path, 1, fp.Revision); err != nil {
		return err
	}
	if fp.ConfigDigest == "" {
		return nil
	}
	return writeLineAt(path, 2, fp.ConfigDigest)
}

func readLineAt(path string, n int) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(data), "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

func writeLineAt(path string, n int, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	lines[n-1] = text

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
