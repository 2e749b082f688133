// Package fingerprint derives the identity of a library build: the source
// revision plus a digest of the build configuration. Two builds with equal
// fingerprints would produce the same output.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

// Fingerprint identifies the inputs that determine a library's build output.
// Fingerprints compare by exact field equality; there is no partial match.
type Fingerprint struct {
	// Revision is the version-control identifier of the source tree.
	Revision string

	// ConfigDigest is the hex digest of the build configuration.
	// Library kinds that never invoke the build tool leave it empty.
	ConfigDigest string
}

// argSeparator joins arguments before hashing. The unit separator is not
// expected to appear inside build arguments.
const argSeparator = "\x1f"

// Digest returns the hex SHA-256 of the build configuration: the library's
// own configure arguments followed by the globally shared ones, order
// preserved. The result is stable across runs and platforms.
func Digest(libraryArgs, globalArgs []string) string {
	h := sha256.New()
	for i, arg := range libraryArgs {
		if i > 0 {
			io.WriteString(h, argSeparator)
		}
		io.WriteString(h, arg)
	}
	for i, arg := range globalArgs {
		if i > 0 || len(libraryArgs) > 0 {
			io.WriteString(h, argSeparator)
		}
		io.WriteString(h, arg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the fingerprint for log output.
func (f Fingerprint) String() string {
	if f.ConfigDigest == "" {
		return f.Revision
	}
	return strings.Join([]string{f.Revision, f.ConfigDigest}, "+")
}
