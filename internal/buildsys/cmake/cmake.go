// Package cmake drives the cmake executable through the
// configure/build/install lifecycle.
package cmake

import (
	"context"
	"io"
	"os"
	"os/exec"

	"depstall/internal/buildsys"
)

// CMake wraps cmake invocations for a single library build. The build type
// is fixed to Release and builds run in parallel.
type CMake struct {
	bin        string
	sourceDir  string
	buildDir   string
	installDir string
	prefixPath string
	buildType  string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// Option configures a CMake instance.
type Option func(*CMake)

// WithPath sets a custom cmake executable path.
func WithPath(bin string) Option {
	return func(c *CMake) {
		c.bin = bin
	}
}

// WithOutput redirects the tool's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CMake) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// New creates a new cmake helper.
func New(opts ...Option) *CMake {
	c := &CMake{
		bin:       "cmake",
		buildType: "Release",
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CMake) Source(dir string)     { c.sourceDir = dir }
func (c *CMake) BuildDir(dir string)   { c.buildDir = dir }
func (c *CMake) InstallDir(dir string) { c.installDir = dir }
func (c *CMake) PrefixPath(dir string) { c.prefixPath = dir }

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	return c.run(ctx, c.configureArgs(args))
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	return c.run(ctx, c.buildArgs(args))
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	return c.run(ctx, c.installArgs(args))
}

func (c *CMake) configureArgs(extra []string) []string {
	args := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.buildType != "" {
		args = append(args, "-DCMAKE_BUILD_TYPE="+c.buildType)
	}
	if c.installDir != "" {
		args = append(args, "-DCMAKE_INSTALL_PREFIX="+c.installDir)
	}
	if c.prefixPath != "" {
		args = append(args, "-DCMAKE_PREFIX_PATH="+c.prefixPath)
	}
	return append(args, extra...)
}

func (c *CMake) buildArgs(extra []string) []string {
	args := []string{"--build", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	args = append(args, "--parallel")
	return append(args, extra...)
}

func (c *CMake) installArgs(extra []string) []string {
	args := []string{"--install", c.buildDir}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	if c.installDir != "" {
		args = append(args, "--prefix", c.installDir)
	}
	return append(args, extra...)
}

func (c *CMake) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	return cmd.Run()
}
