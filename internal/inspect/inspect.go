// Package inspect renders decoded images for humans.
package inspect

import (
	"debug/elf"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/tinyrange/tinyelf/internal/elf64"
)

// Options controls rendering.
type Options struct {
	// Color enables ANSI styling of labels and headings.
	Color bool
	// MaxPayload limits the hexdump; zero dumps the whole payload.
	MaxPayload int
}

type row struct {
	offset int
	size   int
	field  string
	value  string
}

// rows lists every header field in file order with its rendered value.
func rows(img *elf64.Image) []row {
	h, p := img.Header, img.Program
	id := h.Ident
	ph := int(h.PhOff)

	return []row{
		{0x00, 4, "magic", fmt.Sprintf("% x", id.Magic[:])},
		{0x04, 1, "class", elf.Class(id.Class).String()},
		{0x05, 1, "data", elf.Data(id.Data).String()},
		{0x06, 1, "ident version", elf.Version(id.Version).String()},
		{0x07, 1, "OS/ABI", elf.OSABI(id.OSABI).String()},
		{0x08, 8, "padding", "zero"},
		{0x10, 2, "type", h.Type.String()},
		{0x12, 2, "machine", h.Machine.String()},
		{0x14, 4, "version", h.Version.String()},
		{0x18, 8, "entry", fmt.Sprintf("%#x", h.Entry)},
		{0x20, 8, "program header offset", fmt.Sprintf("%d", h.PhOff)},
		{0x28, 8, "section header offset", fmt.Sprintf("%d", h.ShOff)},
		{0x30, 4, "flags", fmt.Sprintf("%#x", h.Flags)},
		{0x34, 2, "header size", fmt.Sprintf("%d", h.EhSize)},
		{0x36, 2, "ph entry size", fmt.Sprintf("%d", h.PhEntSize)},
		{0x38, 2, "ph entry count", fmt.Sprintf("%d", h.PhNum)},
		{0x3a, 2, "sh entry size", fmt.Sprintf("%d", h.ShEntSize)},
		{0x3c, 2, "sh entry count", fmt.Sprintf("%d", h.ShNum)},
		{0x3e, 2, "sh string index", fmt.Sprintf("%d", h.ShStrNdx)},
		{ph + 0x00, 4, "segment type", p.Type.String()},
		{ph + 0x04, 4, "segment flags", p.Flags.String()},
		{ph + 0x08, 8, "segment file offset", fmt.Sprintf("%d", p.Off)},
		{ph + 0x10, 8, "segment virtual address", fmt.Sprintf("%#x", p.Vaddr)},
		{ph + 0x18, 8, "segment physical address", fmt.Sprintf("%#x", p.Paddr)},
		{ph + 0x20, 8, "file size", fmt.Sprintf("%d", p.Filesz)},
		{ph + 0x28, 8, "mem size", fmt.Sprintf("%d", p.Memsz)},
		{ph + 0x30, 8, "alignment", fmt.Sprintf("%#x", p.Align)},
	}
}

// Render writes a field table, a placement summary and a hexdump of the
// payload to w.
func Render(w io.Writer, img *elf64.Image, opts Options) error {
	bold := func(s string) string { return s }
	if opts.Color {
		style := ansi.Style{}.Bold()
		bold = style.Styled
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d bytes\n\n", bold("ELF64 image,"), img.Size)

	table := [][]string{{bold("offset"), bold("size"), bold("field"), bold("value")}}
	for _, r := range rows(img) {
		table = append(table, []string{
			fmt.Sprintf("0x%02x", r.offset),
			fmt.Sprintf("%d", r.size),
			r.field,
			r.value,
		})
	}
	writeTable(&b, table)

	l := img.Layout()
	where := "inside"
	if !l.Contains(l.Entry) {
		where = "outside"
	}
	fmt.Fprintf(&b, "\n%s [%#x, %#x) %s\n", bold("segment"), l.SegmentVaddr, l.SegmentVaddr+l.SegmentSize, img.Program.Flags)
	fmt.Fprintf(&b, "%s %#x (%s segment)\n", bold("entry  "), l.Entry, where)
	fmt.Fprintf(&b, "%s %#x, %d bytes at file offset %d\n", bold("payload"), l.PayloadVaddr, l.PayloadLen, elf64.PayloadOffset)

	dump := img.Payload
	truncated := 0
	if opts.MaxPayload > 0 && len(dump) > opts.MaxPayload {
		truncated = len(dump) - opts.MaxPayload
		dump = dump[:opts.MaxPayload]
	}
	if len(dump) > 0 {
		b.WriteString("\n")
		b.WriteString(hex.Dump(dump))
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "... %d more bytes\n", truncated)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable pads columns by display width so styled cells line up with
// plain ones.
func writeTable(b *strings.Builder, table [][]string) {
	var widths []int
	for _, line := range table {
		for i, cell := range line {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}
	for _, line := range table {
		for i, cell := range line {
			b.WriteString(cell)
			if i == len(line)-1 {
				break
			}
			b.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+2))
		}
		b.WriteString("\n")
	}
}
