package cmake

import (
	"context"
	"reflect"
	"testing"
)

func newConfigured() *CMake {
	c := New()
	c.Source("/src/zlib")
	c.BuildDir("/src/zlib/build")
	c.InstallDir("/install/zlib")
	c.PrefixPath("/install")
	return c
}

func TestConfigureArgs(t *testing.T) {
	c := newConfigured()
	got := c.configureArgs([]string{"-DZLIB_BUILD_EXAMPLES=OFF"})
	want := []string{
		"-S", "/src/zlib",
		"-B", "/src/zlib/build",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_INSTALL_PREFIX=/install/zlib",
		"-DCMAKE_PREFIX_PATH=/install",
		"-DZLIB_BUILD_EXAMPLES=OFF",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("configureArgs = %v, want %v", got, want)
	}
}

func TestConfigureArgsOmitsUnsetPaths(t *testing.T) {
	c := New()
	c.Source("/src/zlib")
	c.BuildDir("/src/zlib/build")
	got := c.configureArgs(nil)
	want := []string{"-S", "/src/zlib", "-B", "/src/zlib/build", "-DCMAKE_BUILD_TYPE=Release"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("configureArgs = %v, want %v", got, want)
	}
}

func TestBuildArgs(t *testing.T) {
	c := newConfigured()
	got := c.buildArgs(nil)
	want := []string{"--build", "/src/zlib/build", "--config", "Release", "--parallel"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs = %v, want %v", got, want)
	}
}

func TestInstallArgs(t *testing.T) {
	c := newConfigured()
	got := c.installArgs(nil)
	want := []string{"--install", "/src/zlib/build", "--config", "Release", "--prefix", "/install/zlib"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("installArgs = %v, want %v", got, want)
	}
}

func TestRunReportsMissingTool(t *testing.T) {
	c := New(WithPath("cmake-binary-that-does-not-exist"))
	c.Source(t.TempDir())
	c.BuildDir(t.TempDir())
	if err := c.Build(context.Background()); err == nil {
		t.Error("Build with missing tool succeeded")
	}
}
