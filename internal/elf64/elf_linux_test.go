//go:build linux && amd64

package elf64

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/tinyrange/tinyelf/internal/elf64/elftest"
)

func TestMappedImageExecutes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MapHeaders = true
	cfg.Alignment = 0x1000

	elfBytes, err := BuildWithConfig(exit42, cfg)
	if err != nil {
		t.Fatalf("BuildWithConfig failed: %v", err)
	}
	path := elftest.WriteImage(t, elfBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path).CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("executing ELF: err=%v, want exit status 42 (output: %s)", err, out)
	}
	if got, want := exitErr.ExitCode(), 42; got != want {
		t.Fatalf("exit status=%d, want %d", got, want)
	}
}
