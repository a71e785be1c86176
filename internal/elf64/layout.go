package elf64

import (
	"fmt"
	"math/bits"
)

var (
	// defaultConfig reproduces the classic i386-era load address with the
	// entry point on the first payload byte.
	defaultConfig = Config{
		BaseAddress: 0x08048000,
		EntryOffset: PayloadOffset,
	}
)

// Config controls where the image is placed in the address space.
type Config struct {
	// BaseAddress is the virtual address of file offset 0, i.e. the ELF
	// header itself.
	BaseAddress uint64
	// EntryOffset is the distance from BaseAddress to the first instruction.
	// It must point inside the headers+payload span.
	EntryOffset uint64
	// Alignment is written to p_align. Zero imposes no constraint; any other
	// value must be a power of two and the segment must satisfy
	// p_vaddr%align == p_offset%align.
	Alignment uint64
	// MapHeaders makes the segment start at file offset 0 so the headers are
	// mapped along with the payload. The default segment covers only the
	// payload bytes.
	MapHeaders bool
}

// DefaultConfig returns the placement used when the caller has no
// preference: base 0x08048000, entry at the first payload byte.
func DefaultConfig() Config {
	return defaultConfig
}

// Layout is the result of the placement arithmetic for one image.
type Layout struct {
	Entry         uint64
	SegmentOffset uint64
	SegmentVaddr  uint64
	SegmentSize   uint64
	Alignment     uint64
	PayloadVaddr  uint64
	PayloadLen    uint64
	FileSize      uint64
}

// Plan validates cfg against a payload of payloadLen bytes and computes the
// image layout. It performs no allocation proportional to the payload.
func Plan(payloadLen uint64, cfg Config) (Layout, error) {
	fail := func(kind error, format string, args ...any) (Layout, error) {
		return Layout{}, &EncodeError{
			Kind:        kind,
			Base:        cfg.BaseAddress,
			EntryOffset: cfg.EntryOffset,
			PayloadLen:  payloadLen,
			Detail:      fmt.Sprintf(format, args...),
		}
	}

	if payloadLen == 0 {
		return fail(ErrEmptyPayload, "")
	}

	span, carry := bits.Add64(PayloadOffset, payloadLen, 0)
	if carry != 0 {
		return fail(ErrAddressOverflow, "payload length %d cannot be addressed", payloadLen)
	}
	if cfg.EntryOffset >= span {
		return fail(ErrEntryOutOfRange, "entry offset must be below %#x", span)
	}

	entry, carry := bits.Add64(cfg.BaseAddress, cfg.EntryOffset, 0)
	if carry != 0 {
		return fail(ErrAddressOverflow, "base + entry offset")
	}
	if _, carry := bits.Add64(cfg.BaseAddress, span, 0); carry != 0 {
		return fail(ErrAddressOverflow, "base + %#x", span)
	}

	l := Layout{
		Entry:         entry,
		SegmentOffset: PayloadOffset,
		SegmentVaddr:  cfg.BaseAddress,
		SegmentSize:   payloadLen,
		Alignment:     cfg.Alignment,
		PayloadVaddr:  cfg.BaseAddress + PayloadOffset,
		PayloadLen:    payloadLen,
		FileSize:      span,
	}
	if cfg.MapHeaders {
		l.SegmentOffset = 0
		l.SegmentSize = span
	}

	if align := cfg.Alignment; align != 0 {
		if align&(align-1) != 0 {
			return fail(ErrMisaligned, "alignment %#x is not a power of two", align)
		}
		if l.SegmentVaddr%align != l.SegmentOffset%align {
			return fail(ErrMisaligned, "vaddr %#x and offset %#x differ modulo %#x", l.SegmentVaddr, l.SegmentOffset, align)
		}
	}

	return l, nil
}

// Contains reports whether addr lies in [SegmentVaddr, SegmentVaddr+SegmentSize).
func (l Layout) Contains(addr uint64) bool {
	return addr >= l.SegmentVaddr && addr-l.SegmentVaddr < l.SegmentSize
}
