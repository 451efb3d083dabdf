package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner/runnertest"
)

func newProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.Open(t.TempDir())
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	return p
}

func writeScript(t *testing.T, p *project.Project, id platform.ID, mode os.FileMode) string {
	t.Helper()
	path := p.Path(id.EntryPoint())
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestEntryPointsDistinct(t *testing.T) {
	d := &Dispatcher{Project: newProject(t), Exec: runnertest.New()}
	seen := map[string]platform.ID{}
	for _, id := range platform.All() {
		ep := d.EntryPoint(id)
		if prev, ok := seen[ep]; ok {
			t.Fatalf("%v and %v share entry point %s", prev, id, ep)
		}
		seen[ep] = id
		if filepath.Dir(ep) != d.Project.Root {
			t.Errorf("entry point %s not under project root", ep)
		}
	}
}

func TestDispatchMissingEntryPoint(t *testing.T) {
	fake := runnertest.New()
	d := &Dispatcher{Project: newProject(t), Exec: fake}
	for _, id := range platform.All() {
		err := d.Dispatch(context.Background(), id, false)
		if !errors.Is(err, ErrEntryPointMissing) {
			t.Errorf("Dispatch(%v) = %v, want ErrEntryPointMissing", id, err)
		}
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Fatalf("no process should be spawned, got %v", calls)
	}
}

func TestDispatchArgs(t *testing.T) {
	tests := []struct {
		id    platform.ID
		clean bool
		shell bool
		args  int
	}{
		{platform.Linux, false, false, 1},
		{platform.Linux, true, false, 2},
		{platform.Mac, true, false, 2},
		{platform.Windows, false, true, 1},
		{platform.Windows, true, true, 2},
	}
	for _, tt := range tests {
		fake := runnertest.New()
		p := newProject(t)
		script := writeScript(t, p, tt.id, 0o755)
		d := &Dispatcher{Project: p, Exec: fake}

		if err := d.Dispatch(context.Background(), tt.id, tt.clean); err != nil {
			t.Fatalf("Dispatch(%v, %v) = %v", tt.id, tt.clean, err)
		}
		calls := fake.Calls()
		if len(calls) != 1 {
			t.Fatalf("calls = %d, want 1", len(calls))
		}
		c := calls[0]
		if len(c.Args) != tt.args || c.Args[0] != script {
			t.Errorf("%v: Args = %v", tt.id, c.Args)
		}
		if tt.clean && c.Args[len(c.Args)-1] != "clean" {
			t.Errorf("%v: clean not passed: %v", tt.id, c.Args)
		}
		if c.Shell != tt.shell {
			t.Errorf("%v: Shell = %v, want %v", tt.id, c.Shell, tt.shell)
		}
		if c.Capture {
			t.Errorf("%v: build output should stream, not be captured", tt.id)
		}
		if c.Dir != p.Root {
			t.Errorf("%v: Dir = %q, want project root", tt.id, c.Dir)
		}
	}
}

func TestDispatchFailure(t *testing.T) {
	fake := runnertest.New()
	p := newProject(t)
	script := writeScript(t, p, platform.Linux, 0o755)
	fake.Fail(script, 2, "compile error")
	d := &Dispatcher{Project: p, Exec: fake}

	err := d.Dispatch(context.Background(), platform.Linux, false)
	if !errors.Is(err, ErrDispatchFailed) {
		t.Fatalf("Dispatch = %v, want ErrDispatchFailed", err)
	}
}
