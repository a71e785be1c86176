// Package elftest holds helpers for tests that need to look at emitted
// images with external tools.
package elftest

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// DisasmLine is one decoded instruction. Offset is the file offset objdump
// reported, which for `-b binary` input equals the position in the image.
type DisasmLine struct {
	Offset     uint64
	Text       string
	Normalized string
	Mnemonic   string
}

// Contains reports whether the normalized instruction text contains substr.
func (l DisasmLine) Contains(substr string) bool {
	return strings.Contains(l.Normalized, substr)
}

// DisassembleImage runs GNU objdump over image treated as a flat x86-64
// blob, starting at file offset start. Images without section headers are
// opaque to `objdump -d`, so the file is read with `-b binary`.
func DisassembleImage(t *testing.T, image []byte, start uint64, extraArgs ...string) []DisasmLine {
	t.Helper()

	toolPath, err := exec.LookPath("objdump")
	if err != nil {
		t.Skipf("objdump not found: %v", err)
	}

	path := WriteImage(t, image)

	args := []string{
		"-D",
		"-b", "binary",
		"-m", "i386:x86-64",
		"--no-show-raw-insn",
		fmt.Sprintf("--start-address=%#x", start),
	}
	args = append(args, extraArgs...)
	args = append(args, path)

	output, err := exec.Command(toolPath, args...).CombinedOutput()
	if err != nil {
		// Some objdump builds are configured without x86 support.
		if strings.Contains(string(output), "can't use supplied machine") {
			t.Skipf("objdump lacks i386:x86-64 support: %s", output)
		}
		t.Fatalf("objdump failed: %v\n\n%s", err, output)
	}

	lines, err := parseObjdumpOutput(string(output))
	if err != nil {
		t.Fatalf("parse objdump output: %v", err)
	}
	if len(lines) == 0 {
		t.Fatalf("objdump produced no instructions:\n%s", output)
	}
	return lines
}

// WriteImage stores image in a fresh temp dir with the executable bit set and
// returns its path.
func WriteImage(t *testing.T, image []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.elf")
	if err := os.WriteFile(path, image, 0o755); err != nil {
		t.Fatalf("write ELF: %v", err)
	}
	return path
}

// parseObjdumpOutput keeps only "  <hex offset>:<tab><instruction>" lines.
// Headings, symbol labels and "(bad)" filler are dropped.
func parseObjdumpOutput(out string) ([]DisasmLine, error) {
	var lines []DisasmLine
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		addr, insn, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		off, err := strconv.ParseUint(strings.TrimSpace(addr), 16, 64)
		if err != nil {
			continue
		}
		fields := strings.Fields(insn)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "<") || fields[0] == "(bad)" {
			continue
		}
		lines = append(lines, DisasmLine{
			Offset:     off,
			Text:       strings.TrimSpace(insn),
			Normalized: strings.Join(fields, " "),
			Mnemonic:   strings.ToLower(fields[0]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read objdump output: %w", err)
	}
	return lines, nil
}
