// Package manifest loads the YAML files that describe how to build an
// executable: where to read the payload and where to place it.
package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/tinyrange/tinyelf/internal/elf64"
)

const (
	DefaultFilename = "tinyelf.yaml"
	CurrentVersion  = 1
)

var (
	ErrNoPayload       = errors.New("payload: one of hex or file is required")
	ErrTwoPayloads     = errors.New("payload: hex and file are mutually exclusive")
	ErrUnknownVersion  = errors.New("unsupported manifest version")
	ErrMissingOutput   = errors.New("output path is empty")
	ErrAbsolutePayload = errors.New("payload file must be relative to the manifest")
)

// Manifest describes one executable.
type Manifest struct {
	Version     int     `yaml:"version"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Output      string  `yaml:"output,omitempty"`
	Base        Address `yaml:"base"`
	Entry       Address `yaml:"entry"`
	Align       Address `yaml:"align,omitempty"`
	MapHeaders  bool    `yaml:"mapHeaders,omitempty"`
	Payload     Payload `yaml:"payload"`
}

// Payload names exactly one source of machine code.
type Payload struct {
	Hex  string `yaml:"hex,omitempty"`
	File string `yaml:"file,omitempty"`
}

// Address is a uint64 that decodes from YAML integers or from strings in any
// base strconv.ParseUint accepts ("0x08048000", "0o777", "4096").
type Address uint64

func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", node.Line)
	}
	v, err := ParseAddress(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = Address(v)
	return nil
}

func (a Address) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#x", uint64(a)), nil
}

func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// ParseAddress parses s as an unsigned 64-bit integer with an optional base
// prefix. Underscores are accepted as digit separators.
func ParseAddress(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", s, err)
	}
	return v, nil
}

// Default returns the manifest for the classic exit(42) program.
func Default() Manifest {
	cfg := elf64.DefaultConfig()
	m := Manifest{
		Version:     CurrentVersion,
		Name:        "exit42",
		Description: "mov di, 42; xor eax, eax; mov al, 60; syscall",
		Base:        Address(cfg.BaseAddress),
		Entry:       Address(cfg.EntryOffset),
		Payload: Payload{
			Hex: "66 BF 2A 00 31 C0 B0 3C 0F 05",
		},
	}
	m.normalize()
	return m
}

func (m *Manifest) normalize() {
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	if m.Output == "" {
		m.Output = m.Name
	}
}

// Validate reports every problem with the manifest at once.
func (m Manifest) Validate() error {
	var result *multierror.Error

	if m.Version != CurrentVersion {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrUnknownVersion, m.Version))
	}
	if m.Output == "" {
		result = multierror.Append(result, ErrMissingOutput)
	}

	switch {
	case m.Payload.Hex == "" && m.Payload.File == "":
		result = multierror.Append(result, ErrNoPayload)
	case m.Payload.Hex != "" && m.Payload.File != "":
		result = multierror.Append(result, ErrTwoPayloads)
	case m.Payload.Hex != "":
		if _, err := DecodeHex(m.Payload.Hex); err != nil {
			result = multierror.Append(result, err)
		}
	case filepath.IsAbs(m.Payload.File):
		result = multierror.Append(result, ErrAbsolutePayload)
	}

	if m.Align != 0 && m.Align&(m.Align-1) != 0 {
		result = multierror.Append(result, fmt.Errorf("align %s is not a power of two", m.Align))
	}

	return result.ErrorOrNil()
}

// Config returns the builder placement described by the manifest.
func (m Manifest) Config() elf64.Config {
	return elf64.Config{
		BaseAddress: uint64(m.Base),
		EntryOffset: uint64(m.Entry),
		Alignment:   uint64(m.Align),
		MapHeaders:  m.MapHeaders,
	}
}

// ReadPayload returns the machine code. Relative files are resolved against
// dir, normally the directory holding the manifest.
func (m Manifest) ReadPayload(dir string) ([]byte, error) {
	if m.Payload.Hex != "" {
		return DecodeHex(m.Payload.Hex)
	}
	if m.Payload.File == "" {
		return nil, ErrNoPayload
	}
	data, err := os.ReadFile(filepath.Join(dir, m.Payload.File))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// OutputPath resolves the output file against dir.
func (m Manifest) OutputPath(dir string) string {
	if filepath.IsAbs(m.Output) {
		return m.Output
	}
	return filepath.Join(dir, m.Output)
}

// DecodeHex decodes hex digits, ignoring whitespace, commas and "0x"/"\x"
// prefixes on individual bytes.
func DecodeHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		tok = strings.TrimPrefix(tok, "0x")
		tok = strings.TrimPrefix(tok, "0X")
		tok = strings.ReplaceAll(tok, `\x`, "")
		b.WriteString(tok)
	}
	data, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("payload hex: %w", err)
	}
	return data, nil
}

// Load reads and normalizes the manifest at path. Missing base and entry
// fall back to elf64.DefaultConfig. It does not validate.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	// Absent keys keep the default placement; explicit zeroes still decode.
	cfg := elf64.DefaultConfig()
	m := Manifest{
		Base:  Address(cfg.BaseAddress),
		Entry: Address(cfg.EntryOffset),
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	m.normalize()
	return m, nil
}

// WriteTemplate writes m as YAML to path.
func WriteTemplate(path string, m Manifest) error {
	m.normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&m); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}
