package internal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"depstall/internal/installer"
)

var statusCmd = &cobra.Command{
	Use:   "status [library...]",
	Short: "Show which libraries would be rebuilt",
	Long: `Status reports, without building anything, whether each library in the
manifest is up to date, stale, or missing its source directory.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, libs, err := loadManifest(cmd, args)
	if err != nil {
		return err
	}

	inst := installer.New(cfg.Installer, installer.WithLogger(logger))
	ctx := context.Background()
	for _, lib := range libs {
		state, err := inst.Status(ctx, lib)
		if err != nil {
			return fmt.Errorf("status of %s: %w", lib.Name(), err)
		}
		fmt.Printf("%-24s %s\n", lib.Name(), state)
	}
	return nil
}
