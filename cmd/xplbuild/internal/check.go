package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xpautothrottle/xplbuild/internal/check"
	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/ui"
)

var reportPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the cross-platform build configuration",
	Long: `Check runs the configuration test harness: required files, symbol
export lists, build script syntax, SDK library formats, the CMake version and
a CMake configuration dry run for every platform.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&reportPath, "report", "", "Also write the report to `FILE` (.yaml/.yml for YAML, JSON otherwise)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := ctxlog.FromContext(ctx)
	out := cmd.OutOrStdout()

	ui.Printf(out, ui.TagTest, "XPAutoThrottle Plugin Cross-Platform Compilation Configuration Test")
	fmt.Fprintln(out, strings.Repeat("=", 70))

	p, err := openProject()
	if err != nil {
		return err
	}
	if err := p.CheckRoot(); err != nil {
		ui.Error(out, "Please run this command in the project root directory")
		return err
	}

	h := check.New(p, newExecutor(cmd), out)
	h.RunID = runID
	// Detailed output redirected away from the terminal: show a bar instead.
	if errOut := cmd.ErrOrStderr(); isTerminal(errOut) && !isTerminal(out) {
		h.Observer = newProgress(errOut)
	}

	report := h.Run(ctx)
	report.Print(out)

	if reportPath != "" {
		if err := report.WriteFile(reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Report written", "path", reportPath)
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d checks failed", report.Total-report.Passed, report.Total)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progress renders harness progress on a terminal.
type progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) CheckStarted(name string, index, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Describe(name)
}

func (p *progress) CheckFinished(r check.Result) {
	p.bar.Add(1)
}
