package elf64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	for _, mapHeaders := range []bool{false, true} {
		cfg := Config{BaseAddress: 0x600000, EntryOffset: 0x7a, MapHeaders: mapHeaders}
		out, err := BuildWithConfig(exit42, cfg)
		require.NoError(t, err)

		img, err := Decode(out)
		require.NoError(t, err)

		assert.Equal(t, newFileHeader(0x60007a), img.Header)
		assert.Equal(t, exit42, img.Payload)
		assert.Equal(t, len(out), img.Size)

		want, err := Plan(uint64(len(exit42)), cfg)
		require.NoError(t, err)
		assert.Equal(t, want, img.Layout())
		assert.Equal(t, newProgramHeader(want), img.Program)

		if mapHeaders {
			assert.Equal(t, out, img.Segment)
		} else {
			assert.Equal(t, exit42, img.Segment)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	good, err := Build(exit42, 0x400000, 0x78)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode([]byte("definitely not an ELF file at all"))
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(good[:PayloadOffset+2])
		require.Error(t, err)
	})

	t.Run("not loadable", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[FileHeaderSize] = 4 // PT_NOTE
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrNotMinimal)
	})

	t.Run("no program headers", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		bad[0x38] = 0
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrNotMinimal)
	})
}
