package elftest

import (
	"fmt"
	"testing"
)

// Expectation describes one instruction in the disassembly. At pins the
// instruction to a file offset when non-nil.
type Expectation struct {
	Name     string
	At       *uint64
	Mnemonic string
	Contains []string
}

// Offset returns a pointer for Expectation.At.
func Offset(off uint64) *uint64 {
	return &off
}

func (e Expectation) check(line DisasmLine) error {
	if e.At != nil && line.Offset != *e.At {
		return fmt.Errorf("at %#x, want %#x", line.Offset, *e.At)
	}
	if e.Mnemonic != "" && line.Mnemonic != e.Mnemonic {
		return fmt.Errorf("mnemonic %s, want %s", line.Mnemonic, e.Mnemonic)
	}
	for _, want := range e.Contains {
		if !line.Contains(want) {
			return fmt.Errorf("%q lacks %q", line.Normalized, want)
		}
	}
	return nil
}

// VerifyExpectations checks lines against expect in order. Lines past the
// last expectation are not inspected.
func VerifyExpectations(t *testing.T, lines []DisasmLine, expect []Expectation) {
	t.Helper()
	if len(lines) < len(expect) {
		t.Fatalf("disassembly has %d instructions, want at least %d", len(lines), len(expect))
	}
	for i, exp := range expect {
		if err := exp.check(lines[i]); err != nil {
			t.Fatalf("instruction %d (%s): %v\n%#x: %s", i, exp.Name, err, lines[i].Offset, lines[i].Text)
		}
	}
}

// VerifyContiguous fails unless the instructions start at start and each
// one begins where the previous one ended, ending before limit.
func VerifyContiguous(t *testing.T, lines []DisasmLine, start, limit uint64) {
	t.Helper()
	if len(lines) == 0 {
		t.Fatalf("no instructions")
	}
	if lines[0].Offset != start {
		t.Fatalf("first instruction at %#x, want %#x", lines[0].Offset, start)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Offset <= lines[i-1].Offset {
			t.Fatalf("instruction %d at %#x does not follow %#x", i, lines[i].Offset, lines[i-1].Offset)
		}
	}
	if last := lines[len(lines)-1].Offset; last >= limit {
		t.Fatalf("instruction at %#x past end of payload %#x", last, limit)
	}
}
