package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/tinyelf/internal/elf64"
)

var exit42 = []byte{0x66, 0xbf, 0x2a, 0x00, 0x31, 0xc0, 0xb0, 0x3c, 0x0f, 0x05}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, `version: 1
name: exit42
base: 0x08048000
entry: 0x78
align: 8
payload:
  hex: "66 BF 2A 00 31 C0 B0 3C 0F 05"
`)

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, "exit42", m.Output)
	assert.Equal(t, elf64.Config{
		BaseAddress: 0x08048000,
		EntryOffset: 0x78,
		Alignment:   8,
	}, m.Config())

	payload, err := m.ReadPayload(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, exit42, payload)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "exit42"), m.OutputPath(filepath.Dir(path)))
}

func TestLoadDecimalAndStringAddresses(t *testing.T) {
	path := writeManifest(t, `name: x
base: "4194304"
entry: 120
mapHeaders: true
payload:
  file: code.bin
`)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "code.bin"), exit42, 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, CurrentVersion, m.Version)
	assert.Equal(t, Address(0x400000), m.Base)
	assert.True(t, m.MapHeaders)

	payload, err := m.ReadPayload(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, exit42, payload)
}

func TestLoadRejectsBadAddress(t *testing.T) {
	path := writeManifest(t, "name: x\nbase: nope\npayload:\n  hex: c3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse address "nope"`)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	m := Manifest{
		Version: 7,
		Align:   3,
		Payload: Payload{Hex: "c3", File: "code.bin"},
	}

	err := m.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.ErrorIs(t, err, ErrUnknownVersion)
	assert.ErrorIs(t, err, ErrMissingOutput)
	assert.ErrorIs(t, err, ErrTwoPayloads)
}

func TestValidatePayloadSources(t *testing.T) {
	base := Default()

	noPayload := base
	noPayload.Payload = Payload{}
	assert.ErrorIs(t, noPayload.Validate(), ErrNoPayload)

	badHex := base
	badHex.Payload = Payload{Hex: "zz"}
	assert.ErrorContains(t, badHex.Validate(), "payload hex")

	abs := base
	abs.Payload = Payload{File: "/etc/passwd"}
	assert.ErrorIs(t, abs.Validate(), ErrAbsolutePayload)
}

func TestDecodeHex(t *testing.T) {
	for _, in := range []string{
		"66BF2A0031C0B03C0F05",
		"66 bf 2a 00 31 c0 b0 3c 0f 05",
		"0x66, 0xbf, 0x2a, 0x00, 0x31, 0xc0, 0xb0, 0x3c, 0x0f, 0x05",
		`\x66\xbf\x2a\x00\x31\xc0\xb0\x3c\x0f\x05`,
		"66 BF 2A 00\n31 C0\tB0 3C\r\n0F 05\n",
	} {
		got, err := DecodeHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, exit42, got, in)
	}

	_, err := DecodeHex("6")
	require.Error(t, err)
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFilename)
	require.NoError(t, WriteTemplate(path, Default()))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, Default(), m)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "0x8048000")
}

func TestDefaultBuilds(t *testing.T) {
	m := Default()
	payload, err := m.ReadPayload("")
	require.NoError(t, err)

	out, err := elf64.BuildWithConfig(payload, m.Config())
	require.NoError(t, err)
	assert.Len(t, out, elf64.PayloadOffset+len(exit42))
}

func TestLoadDefaultsPlacement(t *testing.T) {
	m, err := Load(writeManifest(t, "name: x\npayload:\n  hex: c3\n"))
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, elf64.DefaultConfig(), m.Config())

	explicit, err := Load(writeManifest(t, "name: x\nbase: 0\nentry: 0\npayload:\n  hex: c3\n"))
	require.NoError(t, err)
	assert.Equal(t, Address(0), explicit.Base)
	assert.Equal(t, Address(0), explicit.Entry)
}
