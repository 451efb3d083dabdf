package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Fatal("FromContext without logger should return slog.Default()")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Debug("hidden")
	FromContext(ctx).Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at info level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Errorf("info line missing: %q", out)
	}
}

func TestNewVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("detail")
	if !strings.Contains(buf.String(), "detail") {
		t.Errorf("verbose logger dropped debug line: %q", buf.String())
	}
}
