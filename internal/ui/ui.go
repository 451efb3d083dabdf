// Package ui prints the tagged status lines shown to the person running a
// build or a check.
package ui

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Tag is a status prefix such as [SUCCESS].
type Tag struct {
	Label string
	Style color.Color
}

var (
	TagSuccess = Tag{"SUCCESS", color.FgGreen}
	TagWarning = Tag{"WARNING", color.FgYellow}
	TagError   = Tag{"ERROR", color.FgRed}
	TagCheck   = Tag{"CHECK", color.FgCyan}
	TagInfo    = Tag{"INFO", color.FgBlue}
	TagResult  = Tag{"RESULT", color.FgMagenta}
	TagTest    = Tag{"TEST", color.FgCyan}
)

func (t Tag) String() string {
	return t.Style.Sprint("[" + t.Label + "]")
}

// Printf writes one tagged line to w.
func Printf(w io.Writer, tag Tag, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func Success(w io.Writer, format string, args ...any) { Printf(w, TagSuccess, format, args...) }
func Warning(w io.Writer, format string, args ...any) { Printf(w, TagWarning, format, args...) }
func Error(w io.Writer, format string, args ...any)   { Printf(w, TagError, format, args...) }
func Info(w io.Writer, format string, args ...any)    { Printf(w, TagInfo, format, args...) }

// Pass and Fail render a pass/fail cell.
func Pass() string { return color.FgGreen.Sprint("PASS") }
func Fail() string { return color.FgRed.Sprint("FAIL") }

// Disable turns colour off, for tests and non-terminal output.
func Disable() {
	color.Enable = false
}
