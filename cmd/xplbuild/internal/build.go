package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xpautothrottle/xplbuild/internal/build"
	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the plugin for the target platform",
	Args:  cobra.NoArgs,
	RunE:  runModeCmd,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean and rebuild the plugin for the target platform",
	Args:  cobra.NoArgs,
	RunE:  runModeCmd,
}

func init() {
	rootCmd.AddCommand(buildCmd, cleanCmd)
}

// runModeCmd runs the action named by the subcommand itself.
func runModeCmd(cmd *cobra.Command, args []string) error {
	mode, err := build.ParseMode(cmd.Name())
	if err != nil {
		return err
	}
	return runAction(cmd, mode)
}

func runAction(cmd *cobra.Command, mode build.Mode) error {
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)
	out := cmd.OutOrStdout()

	id, err := platform.Resolve(platformFlag)
	if err != nil {
		ui.Error(out, "Platform detection failed: %v", err)
		return err
	}

	fmt.Fprintln(out, "=== XPAutoThrottle Plugin Build Script ===")
	fmt.Fprintf(out, "Target platform: %s\n", id)
	fmt.Fprintf(out, "Operation type: %s\n", mode)
	fmt.Fprintln(out)

	p, err := openProject()
	if err != nil {
		return err
	}
	if err := p.CheckMarkers(); err != nil {
		ui.Error(out, "%v", err)
		return err
	}

	b := build.NewBuilder(p, newExecutor(cmd), out)
	o, err := b.Build(ctx, id, mode)
	if err != nil {
		logger.Debug("Build failed", "platform", id.String(), "mode", mode.String(), "duration", o.Duration, "err", err)
		return fmt.Errorf("%s %s failed: %w", id, mode, err)
	}
	logger.Info("Build finished", "platform", id.String(), "mode", mode.String(), "duration", o.Duration)
	return nil
}
