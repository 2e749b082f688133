// Package buildsys defines the contract between the installer and an
// external build tool.
package buildsys

import "context"

// BuildSystem captures the lifecycle the installer drives for one library:
// configure, build, install — three synchronous external calls, each
// reporting success or failure through its error.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	BuildDir(dir string)
	InstallDir(dir string)

	// PrefixPath sets the shared install root consulted when configure
	// resolves already-installed sibling libraries.
	PrefixPath(dir string)

	// Lifecycle. Extra args are appended to the tool's own arguments.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error
}

// Factory creates a fresh build system for one library build.
type Factory func() BuildSystem
