// Package config loads the dependency manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"

	"depstall/internal/installer"
	"depstall/internal/installrule"
	"depstall/internal/spec"
)

// File mirrors the manifest on disk. Argument fields hold a single shell
// style string and are split with the usual quoting rules, so an entry like
// `args: -DFOO="a b"` produces one argument.
type File struct {
	SourcesDir   string         `yaml:"sources_dir"`
	InstallDir   string         `yaml:"install_dir"`
	CacheDir     string         `yaml:"cache_dir"`
	HeaderSubdir string         `yaml:"header_subdir"`
	CMake        string         `yaml:"cmake"`
	CMakeArgs    string         `yaml:"cmake_args"`
	Libraries    []LibraryEntry `yaml:"libraries"`
}

// LibraryEntry is one manifest library. Kind selects which fields apply:
// build_dir and args for cmake, globs for header, rules for manual.
type LibraryEntry struct {
	Kind     string      `yaml:"kind"`
	Src      string      `yaml:"src"`
	Install  string      `yaml:"install"`
	BuildDir string      `yaml:"build_dir"`
	Args     string      `yaml:"args"`
	Globs    []string    `yaml:"globs"`
	Rules    []RuleEntry `yaml:"rules"`
}

// RuleEntry is one manual copy rule.
type RuleEntry struct {
	Pattern string `yaml:"pattern"`
	Dest    string `yaml:"dest"`
}

// Config is the loaded, validated manifest.
type Config struct {
	Installer installer.Config
	CMakePath string
	Libraries []spec.Library
}

// Load reads and validates the manifest at path, filling in defaults for
// omitted top-level fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a manifest from its raw bytes.
func Parse(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if f.SourcesDir == "" {
		f.SourcesDir = "src"
	}
	if f.InstallDir == "" {
		f.InstallDir = filepath.Join("bin", runtime.GOOS)
	}
	if f.HeaderSubdir == "" {
		f.HeaderSubdir = "header-only"
	}
	if f.CMake == "" {
		f.CMake = "cmake"
	}

	globalArgs, err := shell.Fields(f.CMakeArgs, nil)
	if err != nil {
		return nil, fmt.Errorf("parse cmake_args: %w", err)
	}

	cfg := &Config{
		Installer: installer.Config{
			SourcesRoot:  f.SourcesDir,
			InstallRoot:  f.InstallDir,
			CacheRoot:    f.CacheDir,
			HeaderSubdir: f.HeaderSubdir,
			GlobalArgs:   globalArgs,
		},
		CMakePath: f.CMake,
	}

	for n, entry := range f.Libraries {
		lib, err := entry.library()
		if err != nil {
			return nil, fmt.Errorf("library %d: %w", n+1, err)
		}
		cfg.Libraries = append(cfg.Libraries, lib)
	}
	return cfg, nil
}

func (e LibraryEntry) library() (spec.Library, error) {
	if e.Src == "" {
		return spec.Library{}, fmt.Errorf("src is required")
	}
	kind, err := parseKind(e.Kind)
	if err != nil {
		return spec.Library{}, err
	}

	lib := spec.Library{
		Kind:          kind,
		SourceSubdir:  e.Src,
		InstallSubdir: e.Install,
		BuildSubdir:   e.BuildDir,
	}

	switch kind {
	case spec.KindCMake:
		if e.Install == "" {
			return spec.Library{}, fmt.Errorf("%s: install is required", e.Src)
		}
		lib.ExtraArgs, err = shell.Fields(e.Args, nil)
		if err != nil {
			return spec.Library{}, fmt.Errorf("%s: parse args: %w", e.Src, err)
		}
	case spec.KindHeader:
		if len(e.Globs) == 0 {
			return spec.Library{}, fmt.Errorf("%s: globs is required for header libraries", e.Src)
		}
		for _, glob := range e.Globs {
			lib.Rules = append(lib.Rules, installrule.Rule{Pattern: glob, Dest: e.Install})
		}
	case spec.KindManual:
		if e.Install == "" {
			return spec.Library{}, fmt.Errorf("%s: install is required", e.Src)
		}
		if len(e.Rules) == 0 {
			return spec.Library{}, fmt.Errorf("%s: rules is required for manual libraries", e.Src)
		}
		for _, r := range e.Rules {
			if r.Pattern == "" {
				return spec.Library{}, fmt.Errorf("%s: rule pattern is required", e.Src)
			}
			lib.Rules = append(lib.Rules, installrule.Rule{Pattern: r.Pattern, Dest: r.Dest})
		}
	}
	return lib, nil
}

func parseKind(s string) (spec.Kind, error) {
	switch s {
	case "", "cmake":
		return spec.KindCMake, nil
	case "header":
		return spec.KindHeader, nil
	case "manual":
		return spec.KindManual, nil
	}
	return 0, fmt.Errorf("unknown library kind %q", s)
}
