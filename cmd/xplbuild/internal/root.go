package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xpautothrottle/xplbuild/internal/build"
	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/env"
	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner"
)

var (
	platformFlag string
	verbose      bool
	rootDir      string

	// runID identifies this invocation in logs and reports.
	runID string
)

var rootCmd = &cobra.Command{
	Use:   "xplbuild [build|clean]",
	Short: "XPAutoThrottle plugin cross-platform build tool",
	Long: `xplbuild builds the XPAutoThrottle X-Plane plugin for the current or a
selected platform and validates the cross-platform build configuration.`,
	Example: `  xplbuild                       # Build current platform
  xplbuild clean                 # Clean and build current platform
  xplbuild --platform windows    # Build specified platform
  xplbuild check                 # Validate the cross-platform configuration`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, build.ModeBuild)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&platformFlag, "platform", platform.Auto,
		fmt.Sprintf("Target platform (%s, or %s to detect)", strings.Join(platform.Names(), ", "), platform.Auto))
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&rootDir, "root", "", "Project root (default $"+env.RootEnv+" or the current directory)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// newExecutor returns the command runner used by build and check.
var newExecutor = func(cmd *cobra.Command) runner.Executor {
	return &runner.Runner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
}

// setup validates the global flags and installs a logger tagged with a run id.
func setup(cmd *cobra.Command, args []string) error {
	if err := validatePlatform(platformFlag); err != nil {
		return err
	}
	runID = uuid.NewString()
	logger := ctxlog.New(cmd.ErrOrStderr(), verbose).With("run_id", runID)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
	logger.Debug("Starting", "command", cmd.Name(), "platform", platformFlag)
	return nil
}

func validatePlatform(name string) error {
	if name == platform.Auto || slices.Contains(platform.Names(), name) {
		return nil
	}
	return fmt.Errorf("invalid --platform %q (choose from %s, %s)", name, strings.Join(platform.Names(), ", "), platform.Auto)
}

func openProject() (*project.Project, error) {
	root := rootDir
	if root == "" {
		var err error
		if root, err = env.ProjectRoot(); err != nil {
			return nil, fmt.Errorf("failed to determine project root: %w", err)
		}
	}
	p, err := project.Open(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return p, nil
}
