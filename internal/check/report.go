package check

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/ui"
)

// Result is the outcome of one check.
type Result struct {
	Name       string        `json:"name" yaml:"name"`
	Passed     bool          `json:"passed" yaml:"passed"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"-" yaml:"-"`
	DurationMS int64         `json:"duration_ms" yaml:"duration_ms"`
}

// Report aggregates the results of a harness run.
type Report struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Root      string        `json:"root" yaml:"root"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"-" yaml:"-"`
	Passed    int           `json:"passed" yaml:"passed"`
	Total     int           `json:"total" yaml:"total"`
	Results   []Result      `json:"results" yaml:"results"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Passed {
		r.Passed++
	}
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return r.Passed == r.Total && len(r.Results) == r.Total
}

// Failed returns the results of the checks that did not pass.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Lookup returns the result named name.
func (r *Report) Lookup(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

const rule = "======================================================================"

// Print writes the tabulated summary followed by the verdict.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tDURATION\tSTATUS")
	for _, res := range r.Results {
		status := ui.Pass()
		if !res.Passed {
			status = ui.Fail()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name, res.Duration.Round(time.Millisecond), status)
	}
	tw.Flush()

	fmt.Fprintln(w, rule)
	ui.Printf(w, ui.TagResult, "Test Results: %d/%d passed", r.Passed, r.Total)

	if r.OK() {
		ui.Success(w, "All tests passed! Cross-platform compilation configuration is correct.")
		fmt.Fprintln(w)
		ui.Info(w, "Next steps:")
		fmt.Fprintf(w, "   - On Windows: run %s\n", platform.Windows.EntryPoint())
		fmt.Fprintf(w, "   - On macOS: run ./%s\n", platform.Mac.EntryPoint())
		fmt.Fprintf(w, "   - On Linux: run ./%s\n", platform.Linux.EntryPoint())
		fmt.Fprintln(w, "   - Or use the unified command: xplbuild build")
		return
	}
	ui.Warning(w, "%d tests failed, please check configuration.", r.Total-r.Passed)
	for _, res := range r.Failed() {
		fmt.Fprintf(w, "   - %s: %s\n", res.Name, res.Error)
	}
}

// WriteFile saves the report as YAML when path ends in .yaml or .yml and as
// JSON otherwise.
func (r *Report) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
