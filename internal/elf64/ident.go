package elf64

import "debug/elf"

// Identification bytes (e_ident) emitted for every image.
const (
	Magic            = "\x7fELF"
	ClassELF64       = byte(elf.ELFCLASS64)
	DataLittleEndian = byte(elf.ELFDATA2LSB)
	IdentVersion     = byte(elf.EV_CURRENT)
	OSABILinux       = byte(elf.ELFOSABI_LINUX)

	identSize = elf.EI_NIDENT
)

// Ident is the 16 byte identification record at the start of the file.
type Ident struct {
	Magic   [4]byte
	Class   byte
	Data    byte
	Version byte
	OSABI   byte
}

func newIdent() Ident {
	var magic [4]byte
	copy(magic[:], Magic)
	return Ident{
		Magic:   magic,
		Class:   ClassELF64,
		Data:    DataLittleEndian,
		Version: IdentVersion,
		OSABI:   OSABILinux,
	}
}

// put writes the record into buf[:16]. Bytes 8..15 (ABI version and
// padding) are always zero.
func (id Ident) put(buf []byte) {
	_ = buf[identSize-1]
	copy(buf[0:4], id.Magic[:])
	buf[elf.EI_CLASS] = id.Class
	buf[elf.EI_DATA] = id.Data
	buf[elf.EI_VERSION] = id.Version
	buf[elf.EI_OSABI] = id.OSABI
	for i := elf.EI_ABIVERSION; i < identSize; i++ {
		buf[i] = 0
	}
}
