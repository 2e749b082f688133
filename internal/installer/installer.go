// Package installer decides which libraries need rebuilding and drives each
// one through its install strategy.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"depstall/internal/buildsys"
	"depstall/internal/buildsys/cmake"
	"depstall/internal/cache"
	"depstall/internal/dirlock"
	"depstall/internal/fingerprint"
	"depstall/internal/installrule"
	"depstall/internal/spec"
	"depstall/internal/vcs"
)

// Config holds the directory layout and shared build configuration.
type Config struct {
	// SourcesRoot contains one subdirectory per library source tree.
	SourcesRoot string

	// InstallRoot receives the per-library install directories.
	InstallRoot string

	// CacheRoot holds the build records. Empty means records live next to
	// each library's installed files.
	CacheRoot string

	// HeaderSubdir is the shared install subdirectory for header-only
	// libraries, relative to InstallRoot.
	HeaderSubdir string

	// GlobalArgs are configure arguments shared by every built library,
	// appended after each library's own arguments.
	GlobalArgs []string
}

// Installer builds and installs a set of libraries, skipping the ones whose
// recorded fingerprint still matches their sources and configuration.
type Installer struct {
	cfg      Config
	vcs      vcs.VCS
	newBuild buildsys.Factory
	log      *log.Logger
	resolver *installrule.Resolver
}

// Option configures an Installer.
type Option func(*Installer)

// WithVCS sets the version control backend.
func WithVCS(v vcs.VCS) Option {
	return func(i *Installer) {
		i.vcs = v
	}
}

// WithBuildFactory sets the build system constructor.
func WithBuildFactory(f buildsys.Factory) Option {
	return func(i *Installer) {
		i.newBuild = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.log = l
	}
}

// New creates an Installer. By default it queries revisions with git and
// builds with cmake.
func New(cfg Config, opts ...Option) *Installer {
	i := &Installer{
		cfg: cfg,
		vcs: vcs.NewGitVCS(),
		newBuild: func() buildsys.BuildSystem {
			return cmake.New()
		},
		log: log.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.resolver = &installrule.Resolver{Log: i.log}
	return i
}

// Run installs every library in order. A library whose source directory does
// not exist is reported and skipped; any other failure stops the run, so a
// library never builds against missing dependencies installed before it.
func (i *Installer) Run(ctx context.Context, libs []spec.Library) error {
	for _, lib := range libs {
		if _, err := os.Stat(i.sourceDir(lib)); err != nil {
			i.log.Warn("source directory not found, skipping", "library", lib.Name(), "path", i.sourceDir(lib))
			continue
		}
		if err := i.install(ctx, lib); err != nil {
			return fmt.Errorf("failed to build or install %s: %w", lib.Name(), err)
		}
	}
	return nil
}

// State describes a library's standing relative to its build record.
type State int

const (
	// StateUpToDate means the record matches the current fingerprint.
	StateUpToDate State = iota
	// StateStale means the library would be rebuilt or recopied.
	StateStale
	// StateSourceMissing means the source directory does not exist.
	StateSourceMissing
)

func (s State) String() string {
	switch s {
	case StateUpToDate:
		return "up to date"
	case StateStale:
		return "stale"
	case StateSourceMissing:
		return "source missing"
	}
	return "unknown"
}

// Status reports what Run would do for lib, without touching anything.
func (i *Installer) Status(ctx context.Context, lib spec.Library) (State, error) {
	if _, err := os.Stat(i.sourceDir(lib)); err != nil {
		return StateSourceMissing, nil
	}
	fp, err := i.fingerprintOf(ctx, lib)
	if err != nil {
		return StateStale, err
	}
	if cache.IsRelevant(i.recordPath(lib), fp) {
		return StateUpToDate, nil
	}
	return StateStale, nil
}

// install brings one library up to date. The build record is written only
// after the install completed, so an aborted run retries from scratch.
func (i *Installer) install(ctx context.Context, lib spec.Library) error {
	fp, err := i.fingerprintOf(ctx, lib)
	if err != nil {
		return err
	}

	record := i.recordPath(lib)
	if cache.IsRelevant(record, fp) {
		i.log.Info("up to date", "library", lib.Name(), "fingerprint", fp)
		return nil
	}
	i.log.Info("installing", "library", lib.Name(), "kind", lib.Kind, "fingerprint", fp)

	switch lib.Kind {
	case spec.KindCMake:
		err = i.buildAndInstall(ctx, lib)
	default:
		err = i.applyRules(lib)
	}
	if err != nil {
		return err
	}

	if err := cache.Write(record, fp); err != nil {
		return fmt.Errorf("write build record: %w", err)
	}
	i.log.Info("installed", "library", lib.Name())
	return nil
}

// fingerprintOf computes the library's current fingerprint. Kinds that never
// invoke the build tool carry no configuration digest, so editing shared
// build arguments does not invalidate them.
func (i *Installer) fingerprintOf(ctx context.Context, lib spec.Library) (fingerprint.Fingerprint, error) {
	revision, err := i.vcs.Head(ctx, i.sourceDir(lib))
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	fp := fingerprint.Fingerprint{Revision: revision}
	if lib.Kind == spec.KindCMake {
		fp.ConfigDigest = fingerprint.Digest(lib.ExtraArgs, i.cfg.GlobalArgs)
	}
	return fp, nil
}

// buildAndInstall runs the configure/build cycle inside an exclusively
// locked build directory. When the preferred directory is held by another
// process, numbered siblings are tried so concurrent runs never share
// intermediate build state. The lock is released before installing; the
// install destination is shared and its replacement is not synchronized.
func (i *Installer) buildAndInstall(ctx context.Context, lib spec.Library) error {
	sourceDir := i.sourceDir(lib)
	installDir := i.installDir(lib)

	lock, err := lockBuildDir(filepath.Join(sourceDir, filepath.FromSlash(lib.BuildDirName())))
	if err != nil {
		return fmt.Errorf("lock build directory: %w", err)
	}
	buildDir := lock.Dir()
	i.log.Debug("locked build directory", "library", lib.Name(), "dir", buildDir)

	b := i.newBuild()
	b.Source(sourceDir)
	b.BuildDir(buildDir)
	b.InstallDir(installDir)
	b.PrefixPath(i.cfg.InstallRoot)

	err = func() error {
		defer lock.Release()

		// A previous holder may have aborted mid-build.
		if err := dirlock.Clean(buildDir); err != nil {
			return fmt.Errorf("clean build directory: %w", err)
		}
		args := append(append([]string{}, lib.ExtraArgs...), i.cfg.GlobalArgs...)
		if err := b.Configure(ctx, args...); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
		if err := b.Build(ctx); err != nil {
			return fmt.Errorf("build: %w", err)
		}
		return nil
	}()
	if err != nil {
		return err
	}

	if err := os.RemoveAll(installDir); err != nil {
		return fmt.Errorf("clear install directory: %w", err)
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return err
	}
	if err := b.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	// Reclaim space; keep the lock file so the path stays lockable.
	if err := dirlock.Clean(buildDir); err != nil {
		i.log.Warn("failed to clean build directory", "library", lib.Name(), "err", err)
	}
	return nil
}

// applyRules installs a copy-kind library by expanding its rules against the
// source tree. The destination is merged into, never replaced: header-only
// libraries share one install directory.
func (i *Installer) applyRules(lib spec.Library) error {
	sourceDir := i.sourceDir(lib)
	installDir := i.installDir(lib)
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return err
	}
	for _, rule := range lib.Rules {
		for _, m := range i.resolver.Resolve(sourceDir, installDir, rule) {
			if err := installrule.Apply(m); err != nil {
				return fmt.Errorf("apply rule %q: %w", rule.Pattern, err)
			}
		}
	}
	return nil
}

// lockBuildDir locks base, falling back to base-1, base-2, ... while each
// candidate is held by another process.
func lockBuildDir(base string) (*dirlock.Lock, error) {
	for n := 0; ; n++ {
		dir := base
		if n > 0 {
			dir = fmt.Sprintf("%s-%d", base, n)
		}
		lock, err := dirlock.TryLock(dir)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, dirlock.ErrContended) {
			return nil, err
		}
	}
}

func (i *Installer) sourceDir(lib spec.Library) string {
	return filepath.Join(i.cfg.SourcesRoot, filepath.FromSlash(lib.SourceSubdir))
}

// installDir returns the library's install destination. Header-only
// libraries share one directory under the install root; their rules place
// files into per-library subpaths.
func (i *Installer) installDir(lib spec.Library) string {
	if lib.Kind == spec.KindHeader {
		return filepath.Join(i.cfg.InstallRoot, filepath.FromSlash(i.cfg.HeaderSubdir))
	}
	return filepath.Join(i.cfg.InstallRoot, filepath.FromSlash(lib.InstallSubdir))
}

// recordPath returns where the library's build record lives: under CacheRoot
// when one is configured, otherwise inside the install directory.
func (i *Installer) recordPath(lib spec.Library) string {
	base := i.installDir(lib)
	if i.cfg.CacheRoot != "" {
		base = i.cfg.CacheRoot
	}
	return filepath.Join(base, cache.FileName(lib.Name()))
}
