package elf64

import (
	"debug/elf"
	"encoding/binary"
)

const (
	// FileHeaderSize is the size of the ELF64 file header including e_ident.
	FileHeaderSize = 64
	// ProgramHeaderSize is the size of one ELF64 program header entry.
	ProgramHeaderSize = 56
	// PayloadOffset is the file offset of the first payload byte. The payload
	// immediately follows the single program header.
	PayloadOffset = FileHeaderSize + ProgramHeaderSize

	// MachineX86_64 is the e_machine value written into every image.
	MachineX86_64 = elf.EM_X86_64
	// SegmentFlags marks the loadable segment readable and executable.
	SegmentFlags = elf.PF_R | elf.PF_X
)

// FileHeader models the fields of the ELF64 header that follow e_ident.
type FileHeader struct {
	Ident     Ident
	Type      elf.Type
	Machine   elf.Machine
	Version   elf.Version
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

func newFileHeader(entry uint64) FileHeader {
	return FileHeader{
		Ident:     newIdent(),
		Type:      elf.ET_EXEC,
		Machine:   MachineX86_64,
		Version:   elf.EV_CURRENT,
		Entry:     entry,
		PhOff:     FileHeaderSize,
		EhSize:    FileHeaderSize,
		PhEntSize: ProgramHeaderSize,
		PhNum:     1,
		// No section header table.
	}
}

func (h FileHeader) put(buf []byte) {
	_ = buf[FileHeaderSize-1]
	h.Ident.put(buf[:identSize])

	le := binary.LittleEndian
	le.PutUint16(buf[16:], uint16(h.Type))
	le.PutUint16(buf[18:], uint16(h.Machine))
	le.PutUint32(buf[20:], uint32(h.Version))
	le.PutUint64(buf[24:], h.Entry)
	le.PutUint64(buf[32:], h.PhOff)
	le.PutUint64(buf[40:], h.ShOff)
	le.PutUint32(buf[48:], h.Flags)
	le.PutUint16(buf[52:], h.EhSize)
	le.PutUint16(buf[54:], h.PhEntSize)
	le.PutUint16(buf[56:], h.PhNum)
	le.PutUint16(buf[58:], h.ShEntSize)
	le.PutUint16(buf[60:], h.ShNum)
	le.PutUint16(buf[62:], h.ShStrNdx)
}

// ProgramHeader models a single PT_LOAD entry.
type ProgramHeader struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

func newProgramHeader(l Layout) ProgramHeader {
	return ProgramHeader{
		Type:   elf.PT_LOAD,
		Flags:  SegmentFlags,
		Off:    l.SegmentOffset,
		Vaddr:  l.SegmentVaddr,
		Paddr:  l.SegmentVaddr,
		Filesz: l.SegmentSize,
		Memsz:  l.SegmentSize,
		Align:  l.Alignment,
	}
}

func (p ProgramHeader) put(buf []byte) {
	_ = buf[ProgramHeaderSize-1]

	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(p.Type))
	le.PutUint32(buf[4:], uint32(p.Flags))
	le.PutUint64(buf[8:], p.Off)
	le.PutUint64(buf[16:], p.Vaddr)
	le.PutUint64(buf[24:], p.Paddr)
	le.PutUint64(buf[32:], p.Filesz)
	le.PutUint64(buf[40:], p.Memsz)
	le.PutUint64(buf[48:], p.Align)
}
