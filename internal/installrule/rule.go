// Package installrule resolves pattern-based copy rules against a library
// source tree and applies the resulting file placements.
package installrule

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Rule maps a glob pattern, relative to a library's source directory, to a
// destination subpath under its install directory. Patterns use forward
// slashes and support *, ?, [...] and ** (zero or more path segments).
type Rule struct {
	Pattern string
	Dest    string
}

// Mapping is one resolved placement: Source exists on disk, Dest is where
// it should be copied. Source may be a file or a directory.
type Mapping struct {
	Source string
	Dest   string
}

// Split splits a pattern into a fixed prefix and a wildcard suffix.
// The first path segment containing a wildcard metacharacter starts the
// suffix; everything before it is the prefix. A pattern with no wildcard
// segments is returned whole as the prefix with an empty suffix.
//
// Split("redistributable_bin/**/*.dll") = ("redistributable_bin", "**/*.dll")
// Split("a/b/c.h") = ("a/b/c.h", "")
func Split(pattern string) (fixed, suffix string) {
	parts := strings.Split(pattern, "/")
	for i, part := range parts {
		if strings.ContainsAny(part, "*?[") {
			return strings.Join(parts[:i], "/"), strings.Join(parts[i:], "/")
		}
	}
	return pattern, ""
}

// Resolver expands install rules against the filesystem. Problems with a
// single rule or match are reported as warnings and never abort resolution.
type Resolver struct {
	Log *log.Logger
}

// Resolve expands rule against sourceRoot and returns source to destination
// pairs under destRoot. A missing fixed prefix yields no results. A prefix
// that is itself a file (no wildcard) maps to destRoot/dest/<filename>.
// Otherwise each match keeps its path relative to the prefix.
func (r *Resolver) Resolve(sourceRoot, destRoot string, rule Rule) []Mapping {
	fixed, suffix := Split(rule.Pattern)
	globRoot := filepath.Join(sourceRoot, filepath.FromSlash(fixed))
	destBase := filepath.Join(destRoot, filepath.FromSlash(rule.Dest))

	info, err := os.Stat(globRoot)
	if err != nil {
		r.Log.Warn("pattern base path not found", "path", globRoot)
		return nil
	}

	if !info.IsDir() {
		return []Mapping{{Source: globRoot, Dest: filepath.Join(destBase, filepath.Base(globRoot))}}
	}
	if suffix == "" {
		return []Mapping{{Source: globRoot, Dest: destBase}}
	}

	matches, err := doublestar.Glob(os.DirFS(globRoot), suffix)
	if err != nil {
		r.Log.Warn("invalid pattern", "pattern", rule.Pattern, "err", err)
		return nil
	}

	mappings := make([]Mapping, 0, len(matches))
	for _, rel := range matches {
		if rel == "." || rel == "" {
			mappings = append(mappings, Mapping{Source: globRoot, Dest: destBase})
			continue
		}
		native := filepath.FromSlash(rel)
		if !filepath.IsLocal(native) {
			r.Log.Warn("failed to compute relative path for match", "match", rel)
			continue
		}
		mappings = append(mappings, Mapping{
			Source: filepath.Join(globRoot, native),
			Dest:   filepath.Join(destBase, native),
		})
	}
	return mappings
}

// Apply copies one resolved mapping. A source directory is merged into any
// existing destination directory, overwriting files at colliding relative
// paths. A source file overwrites the destination file, creating parent
// directories as needed.
func Apply(m Mapping) error {
	info, err := os.Stat(m.Source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyTree(m.Source, m.Dest)
	}
	return copyFile(m.Source, m.Dest, info.Mode())
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// O_CREATE only applies the mode to new files.
	return os.Chmod(dst, mode.Perm())
}
