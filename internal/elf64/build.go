// Package elf64 emits minimal static ELF64 executables for x86-64 Linux: one
// file header, one PT_LOAD program header and the caller's machine code,
// back to back with no padding and no sections.
package elf64

const maxInt = int(^uint(0) >> 1)

// Build emits payload as an executable whose headers are mapped at base and
// whose entry point is base+entryOffset. The program header describes the
// payload bytes only (offset 120, size len(payload), align 0).
func Build(payload []byte, base, entryOffset uint64) ([]byte, error) {
	return BuildWithConfig(payload, Config{
		BaseAddress: base,
		EntryOffset: entryOffset,
	})
}

// BuildWithConfig emits payload using the placement in cfg. Zero-valued
// fields are used as given; callers wanting defaults should start from
// DefaultConfig.
func BuildWithConfig(payload []byte, cfg Config) ([]byte, error) {
	l, err := Plan(uint64(len(payload)), cfg)
	if err != nil {
		return nil, err
	}
	if l.FileSize > uint64(maxInt) {
		return nil, &EncodeError{
			Kind:        ErrAddressOverflow,
			Base:        cfg.BaseAddress,
			EntryOffset: cfg.EntryOffset,
			PayloadLen:  l.PayloadLen,
			Detail:      "image exceeds platform limits",
		}
	}
	return encode(l, payload), nil
}

// encode serializes a validated layout. It cannot fail.
func encode(l Layout, payload []byte) []byte {
	out := make([]byte, l.FileSize)

	newFileHeader(l.Entry).put(out[:FileHeaderSize])
	newProgramHeader(l).put(out[FileHeaderSize:PayloadOffset])
	copy(out[PayloadOffset:], payload)

	return out
}
