// Package spec describes the libraries the installer manages.
package spec

import (
	"path"

	"depstall/internal/installrule"
)

// Kind selects the install strategy for a library.
type Kind int

const (
	// KindCMake configures, builds and installs with the external build tool.
	KindCMake Kind = iota
	// KindHeader copies header files into the shared header-only tree.
	KindHeader
	// KindManual applies explicit copy rules into the library's install dir.
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindCMake:
		return "cmake"
	case KindHeader:
		return "header"
	case KindManual:
		return "manual"
	}
	return "unknown"
}

// Library is an immutable description of one third-party dependency.
// Only the fields relevant to its Kind are set: BuildSubdir and ExtraArgs
// apply to KindCMake, Rules to the copy kinds.
type Library struct {
	Kind Kind

	// SourceSubdir locates the source tree under the sources root,
	// using forward slashes.
	SourceSubdir string

	// InstallSubdir locates the install destination under the install
	// root (for KindHeader, under the shared header subdir).
	InstallSubdir string

	// BuildSubdir is the build directory inside the source tree.
	// Empty means "build".
	BuildSubdir string

	// ExtraArgs are configure arguments for this library alone, passed
	// before the globally shared arguments.
	ExtraArgs []string

	Rules []installrule.Rule
}

// Name returns the library's display name: the last element of its source
// subdirectory.
func (l Library) Name() string {
	return path.Base(l.SourceSubdir)
}

// BuildDirName returns the build subdirectory, defaulting to "build".
func (l Library) BuildDirName() string {
	if l.BuildSubdir == "" {
		return "build"
	}
	return l.BuildSubdir
}
