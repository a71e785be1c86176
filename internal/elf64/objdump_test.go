package elf64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinyrange/tinyelf/internal/elf64/elftest"
)

func TestPayloadDisassembly(t *testing.T) {
	out, err := Build(exit42, scenarioBase, 0x78)
	require.NoError(t, err)

	lines := elftest.DisassembleImage(t, out, PayloadOffset)
	elftest.VerifyExpectations(t, lines, []elftest.Expectation{
		{Name: "exit status", At: elftest.Offset(PayloadOffset), Mnemonic: "mov", Contains: []string{"$0x2a", "%di"}},
		{Name: "clear eax", Mnemonic: "xor", Contains: []string{"%eax,%eax"}},
		{Name: "exit syscall number", Mnemonic: "mov", Contains: []string{"$0x3c", "%al"}},
		{Name: "syscall", At: elftest.Offset(PayloadOffset + 8), Mnemonic: "syscall"},
	})
	elftest.VerifyContiguous(t, lines, PayloadOffset, uint64(len(out)))
}
