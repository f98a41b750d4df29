package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestWithProfileFlushesOnFailure(t *testing.T) {
	dir := t.TempDir()
	code := withProfile("cpu", dir, func() error { return errors.New("boom") })
	if code != 1 {
		t.Fatalf("failed run should exit 1, got %d", code)
	}
	fi, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		t.Fatalf("profile not written: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatalf("profile left empty")
	}
}

func TestWithProfileExitCodes(t *testing.T) {
	if code := withProfile("", t.TempDir(), func() error { return nil }); code != 0 {
		t.Fatalf("clean run should exit 0, got %d", code)
	}
	called := false
	if code := withProfile("trace-everything", t.TempDir(), func() error { called = true; return nil }); code != 2 || called {
		t.Fatalf("unknown profile kind should exit 2 without running, got %d (ran=%v)", code, called)
	}
}
