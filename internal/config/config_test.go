package config

import (
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"depstall/internal/installrule"
	"depstall/internal/spec"
)

const manifest = `
sources_dir: deps/src
install_dir: deps/bin
cache_dir: deps/cache
cmake_args: -DCMAKE_POLICY_VERSION_MINIMUM=3.5 -DBUILD_SHARED_LIBS=OFF

libraries:
  - src: zlib
    install: zlib
    args: -DZLIB_BUILD_EXAMPLES=OFF

  - kind: cmake
    src: vendor/opencv
    install: opencv
    build_dir: out
    args: '-DBUILD_LIST="core,imgproc"'

  - kind: header
    src: stb
    globs:
      - "*.h"

  - kind: manual
    src: steamworks
    install: steam
    rules:
      - pattern: redistributable_bin/**/*.dll
        dest: bin
      - pattern: public/steam
        dest: include
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(manifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ic := cfg.Installer
	if ic.SourcesRoot != "deps/src" || ic.InstallRoot != "deps/bin" || ic.CacheRoot != "deps/cache" {
		t.Errorf("directories = %q %q %q", ic.SourcesRoot, ic.InstallRoot, ic.CacheRoot)
	}
	if ic.HeaderSubdir != "header-only" {
		t.Errorf("HeaderSubdir = %q, want default", ic.HeaderSubdir)
	}
	wantGlobal := []string{"-DCMAKE_POLICY_VERSION_MINIMUM=3.5", "-DBUILD_SHARED_LIBS=OFF"}
	if !reflect.DeepEqual(ic.GlobalArgs, wantGlobal) {
		t.Errorf("GlobalArgs = %v, want %v", ic.GlobalArgs, wantGlobal)
	}
	if len(cfg.Libraries) != 4 {
		t.Fatalf("parsed %d libraries, want 4", len(cfg.Libraries))
	}

	zlib := cfg.Libraries[0]
	if zlib.Kind != spec.KindCMake || zlib.Name() != "zlib" {
		t.Errorf("zlib = %+v", zlib)
	}
	if !reflect.DeepEqual(zlib.ExtraArgs, []string{"-DZLIB_BUILD_EXAMPLES=OFF"}) {
		t.Errorf("zlib args = %v", zlib.ExtraArgs)
	}
	if zlib.BuildDirName() != "build" {
		t.Errorf("zlib build dir = %q, want default", zlib.BuildDirName())
	}

	opencv := cfg.Libraries[1]
	if opencv.Name() != "opencv" || opencv.BuildDirName() != "out" {
		t.Errorf("opencv = %+v", opencv)
	}
	// Quoted argument stays one field.
	if !reflect.DeepEqual(opencv.ExtraArgs, []string{"-DBUILD_LIST=core,imgproc"}) {
		t.Errorf("opencv args = %v", opencv.ExtraArgs)
	}

	stb := cfg.Libraries[2]
	if stb.Kind != spec.KindHeader {
		t.Errorf("stb kind = %v", stb.Kind)
	}
	if !reflect.DeepEqual(stb.Rules, []installrule.Rule{{Pattern: "*.h", Dest: ""}}) {
		t.Errorf("stb rules = %v", stb.Rules)
	}

	steam := cfg.Libraries[3]
	wantRules := []installrule.Rule{
		{Pattern: "redistributable_bin/**/*.dll", Dest: "bin"},
		{Pattern: "public/steam", Dest: "include"},
	}
	if steam.Kind != spec.KindManual || !reflect.DeepEqual(steam.Rules, wantRules) {
		t.Errorf("steam = %+v", steam)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("libraries: []\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ic := cfg.Installer
	if ic.SourcesRoot != "src" {
		t.Errorf("SourcesRoot = %q, want src", ic.SourcesRoot)
	}
	if want := filepath.Join("bin", runtime.GOOS); ic.InstallRoot != want {
		t.Errorf("InstallRoot = %q, want %q", ic.InstallRoot, want)
	}
	if cfg.CMakePath != "cmake" {
		t.Errorf("CMakePath = %q, want cmake", cfg.CMakePath)
	}
	if len(ic.GlobalArgs) != 0 {
		t.Errorf("GlobalArgs = %v, want none", ic.GlobalArgs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     string
	}{
		{
			"missing src",
			"libraries:\n  - install: x\n",
			"src is required",
		},
		{
			"unknown kind",
			"libraries:\n  - kind: bazel\n    src: x\n    install: x\n",
			"unknown library kind",
		},
		{
			"cmake without install",
			"libraries:\n  - src: zlib\n",
			"install is required",
		},
		{
			"header without globs",
			"libraries:\n  - kind: header\n    src: stb\n",
			"globs is required",
		},
		{
			"manual without rules",
			"libraries:\n  - kind: manual\n    src: x\n    install: x\n",
			"rules is required",
		},
		{
			"manual rule without pattern",
			"libraries:\n  - kind: manual\n    src: x\n    install: x\n    rules:\n      - dest: bin\n",
			"pattern is required",
		},
		{
			"bad yaml",
			"libraries: [",
			"parse manifest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.manifest))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
