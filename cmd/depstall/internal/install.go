package internal

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"depstall/internal/buildsys"
	"depstall/internal/buildsys/cmake"
	"depstall/internal/config"
	"depstall/internal/installer"
	"depstall/internal/spec"
)

var (
	installSourcesDir string
	installInstallDir string
	installCMakePath  string
)

var installCmd = &cobra.Command{
	Use:   "install [library...]",
	Short: "Build and install the manifest's libraries",
	Long: `Install brings every library in the manifest up to date, building and
installing only the ones whose source revision or build configuration changed.
With arguments, only the named libraries are considered.`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installSourcesDir, "sources-dir", "", "Override the manifest's sources directory")
	installCmd.Flags().StringVar(&installInstallDir, "install-dir", "", "Override the manifest's install directory")
	installCmd.Flags().StringVar(&installCMakePath, "cmake", "", "Override the cmake executable")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, libs, err := loadManifest(cmd, args)
	if err != nil {
		return err
	}

	inst := installer.New(cfg.Installer,
		installer.WithLogger(logger),
		installer.WithBuildFactory(buildFactory(cfg)),
	)
	return inst.Run(context.Background(), libs)
}

// loadManifest reads the manifest, applies command line overrides and
// optionally filters the library list by name.
func loadManifest(cmd *cobra.Command, names []string) (*config.Config, []spec.Library, error) {
	cfg, err := config.Load(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("sources-dir") {
		cfg.Installer.SourcesRoot = installSourcesDir
	}
	if cmd.Flags().Changed("install-dir") {
		cfg.Installer.InstallRoot = installInstallDir
	}
	if cmd.Flags().Changed("cmake") {
		cfg.CMakePath = installCMakePath
	}

	if len(names) == 0 {
		return cfg, cfg.Libraries, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	var libs []spec.Library
	for _, lib := range cfg.Libraries {
		if wanted[lib.Name()] {
			libs = append(libs, lib)
		}
	}
	return cfg, libs, nil
}

// buildFactory returns a cmake constructor honoring the manifest's tool path.
// Tool output is shown only in verbose mode.
func buildFactory(cfg *config.Config) buildsys.Factory {
	return func() buildsys.BuildSystem {
		opts := []cmake.Option{cmake.WithPath(cfg.CMakePath)}
		if !verbose {
			opts = append(opts, cmake.WithOutput(io.Discard, io.Discard))
		} else {
			opts = append(opts, cmake.WithOutput(os.Stdout, os.Stderr))
		}
		return cmake.New(opts...)
	}
}
