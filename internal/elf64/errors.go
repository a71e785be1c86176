package elf64

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in *EncodeError) by Plan and Build.
var (
	ErrEmptyPayload    = errors.New("payload is empty")
	ErrEntryOutOfRange = errors.New("entry offset outside mapped image")
	ErrAddressOverflow = errors.New("virtual address overflows 64 bits")
	ErrMisaligned      = errors.New("segment violates alignment")
)

// EncodeError reports why an image could not be laid out. No bytes are
// produced when an EncodeError is returned.
type EncodeError struct {
	Kind        error // one of the sentinel errors above
	Base        uint64
	EntryOffset uint64
	PayloadLen  uint64
	Detail      string
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("elf64: %v (base=%#x entry=%#x payload=%d)", e.Kind, e.Base, e.EntryOffset, e.PayloadLen)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *EncodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *EncodeError) Unwrap() error {
	return e.Kind
}
