package elf64

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrNotMinimal = errors.New("not a single-segment ELF64 image")

// Image is a decoded executable.
type Image struct {
	Header  FileHeader
	Program ProgramHeader
	// Segment holds the file bytes covered by the program header.
	Segment []byte
	// Payload holds the bytes following the header table up to the end of
	// the segment.
	Payload []byte
	Size    int
}

// Decode parses data as produced by Build. The returned slices alias data.
func Decode(data []byte) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ELF: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS64 || f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("%w: class %v data %v", ErrNotMinimal, f.Class, f.Data)
	}
	if len(f.Progs) != 1 {
		return nil, fmt.Errorf("%w: %d program headers", ErrNotMinimal, len(f.Progs))
	}
	if f.Progs[0].Type != elf.PT_LOAD {
		return nil, fmt.Errorf("%w: segment type %v", ErrNotMinimal, f.Progs[0].Type)
	}

	var raw elf.Header64
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("read file header: %w", err)
	}
	if raw.Phoff > uint64(len(data)) || uint64(len(data))-raw.Phoff < ProgramHeaderSize {
		return nil, fmt.Errorf("%w: program header at %#x outside file", ErrNotMinimal, raw.Phoff)
	}
	var prog elf.Prog64
	if err := binary.Read(bytes.NewReader(data[raw.Phoff:]), binary.LittleEndian, &prog); err != nil {
		return nil, fmt.Errorf("read program header: %w", err)
	}

	img := &Image{
		Header: FileHeader{
			Ident: Ident{
				Magic:   [4]byte(raw.Ident[:4]),
				Class:   raw.Ident[elf.EI_CLASS],
				Data:    raw.Ident[elf.EI_DATA],
				Version: raw.Ident[elf.EI_VERSION],
				OSABI:   raw.Ident[elf.EI_OSABI],
			},
			Type:      elf.Type(raw.Type),
			Machine:   elf.Machine(raw.Machine),
			Version:   elf.Version(raw.Version),
			Entry:     raw.Entry,
			PhOff:     raw.Phoff,
			ShOff:     raw.Shoff,
			Flags:     raw.Flags,
			EhSize:    raw.Ehsize,
			PhEntSize: raw.Phentsize,
			PhNum:     raw.Phnum,
			ShEntSize: raw.Shentsize,
			ShNum:     raw.Shnum,
			ShStrNdx:  raw.Shstrndx,
		},
		Program: ProgramHeader{
			Type:   elf.ProgType(prog.Type),
			Flags:  elf.ProgFlag(prog.Flags),
			Off:    prog.Off,
			Vaddr:  prog.Vaddr,
			Paddr:  prog.Paddr,
			Filesz: prog.Filesz,
			Memsz:  prog.Memsz,
			Align:  prog.Align,
		},
		Size: len(data),
	}

	off, size := img.Program.Off, img.Program.Filesz
	if off > uint64(len(data)) || size > uint64(len(data))-off {
		return nil, fmt.Errorf("%w: segment [%#x,+%#x) outside file of %d bytes", ErrNotMinimal, off, size, len(data))
	}
	img.Segment = data[off : off+size]

	start := max(off, PayloadOffset)
	if start > off+size {
		start = off + size
	}
	img.Payload = data[start : off+size]

	return img, nil
}

// Layout reconstructs the placement described by the decoded headers.
func (img *Image) Layout() Layout {
	// Both segment forms place file offset 0 at p_vaddr.
	return Layout{
		Entry:         img.Header.Entry,
		SegmentOffset: img.Program.Off,
		SegmentVaddr:  img.Program.Vaddr,
		SegmentSize:   img.Program.Memsz,
		Alignment:     img.Program.Align,
		PayloadVaddr:  img.Program.Vaddr + PayloadOffset,
		PayloadLen:    uint64(len(img.Payload)),
		FileSize:      uint64(img.Size),
	}
}
