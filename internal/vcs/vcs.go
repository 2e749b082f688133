// Package vcs queries the version control state of library source trees.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrRevisionUnavailable reports that the current revision identifier of a
// source tree could not be determined, for example because the tree is not
// under version control.
var ErrRevisionUnavailable = errors.New("revision unavailable")

// VCS defines the version control operations the installer needs.
type VCS interface {
	// Head returns the identifier of the current revision of the source
	// tree at dir. Errors wrap ErrRevisionUnavailable.
	Head(ctx context.Context, dir string) (string, error)
}

// gitVCS implements VCS using git.
type gitVCS struct {
	git string
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) Head(ctx context.Context, dir string) (string, error) {
	output, err := g.output(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRevisionUnavailable, dir, err)
	}
	head := strings.TrimSpace(output)
	if head == "" {
		return "", fmt.Errorf("%w: %s: empty rev-parse output", ErrRevisionUnavailable, dir)
	}
	return head, nil
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
