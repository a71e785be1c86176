package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tinyrange/tinyelf/internal/elf64"
	"github.com/tinyrange/tinyelf/internal/manifest"
	"github.com/tinyrange/tinyelf/internal/output"
)

type buildFlags struct {
	manifest    string
	hex         string
	payloadFile string
	out         string
	base        string
	entry       string
	align       string
	mapHeaders  bool
}

func newBuildCommand() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an executable from a manifest or from flags",
		Long: `Build wraps a machine code payload in an ELF64 header and a single
PT_LOAD program header and writes the result as an executable file.

Flags override values read from --manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.manifest, "manifest", "m", "", "Path to a build manifest ("+manifest.DefaultFilename+")")
	fl.StringVar(&f.hex, "hex", "", "Payload as hex bytes")
	fl.StringVar(&f.payloadFile, "payload-file", "", "Read the payload from a raw binary file")
	fl.StringVarP(&f.out, "output", "o", "", "Output path (default: manifest output, or a.out)")
	fl.StringVar(&f.base, "base", "", "Virtual address of the ELF header (default 0x08048000)")
	fl.StringVar(&f.entry, "entry", "", "Entry point offset from --base (default 0x78, the first payload byte)")
	fl.StringVar(&f.align, "align", "", "p_align value, 0 or a power of two")
	fl.BoolVar(&f.mapHeaders, "map-headers", false, "Map the whole file in the segment instead of only the payload")
	cmd.MarkFlagsMutuallyExclusive("hex", "payload-file")

	return cmd
}

// resolve merges the manifest (if any) with explicit flags. Relative payload
// and output paths come back resolved against dir.
func (f buildFlags) resolve(cmd *cobra.Command) (m manifest.Manifest, dir string, err error) {
	m = manifest.Default()
	m.Payload = manifest.Payload{}
	m.Output = "a.out"

	if f.manifest != "" {
		m, err = manifest.Load(f.manifest)
		if err != nil {
			return m, "", err
		}
		// Payload paths from flags are stored relative to dir, so it must be absolute.
		dir, err = filepath.Abs(filepath.Dir(f.manifest))
		if err != nil {
			return m, "", err
		}
	} else {
		dir, err = os.Getwd()
		if err != nil {
			return m, "", err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("hex") {
		m.Payload = manifest.Payload{Hex: f.hex}
	}
	if fl.Changed("payload-file") {
		abs, err := filepath.Abs(f.payloadFile)
		if err != nil {
			return m, "", err
		}
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			return m, "", err
		}
		m.Payload = manifest.Payload{File: rel}
	}
	if fl.Changed("output") {
		abs, err := filepath.Abs(f.out)
		if err != nil {
			return m, "", err
		}
		m.Output = abs
	}
	for _, o := range []struct {
		flag string
		val  string
		dst  *manifest.Address
	}{
		{"base", f.base, &m.Base},
		{"entry", f.entry, &m.Entry},
		{"align", f.align, &m.Align},
	} {
		if !fl.Changed(o.flag) {
			continue
		}
		v, err := manifest.ParseAddress(o.val)
		if err != nil {
			return m, "", fmt.Errorf("--%s: %w", o.flag, err)
		}
		*o.dst = manifest.Address(v)
	}
	if fl.Changed("map-headers") {
		m.MapHeaders = f.mapHeaders
	}

	return m, dir, nil
}

func runBuild(cmd *cobra.Command, f buildFlags) error {
	m, dir, err := f.resolve(cmd)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid build description: %w", err)
	}

	payload, err := m.ReadPayload(dir)
	if err != nil {
		return err
	}

	cfg := m.Config()
	slog.Debug("building image",
		"payload_bytes", len(payload),
		"base", fmt.Sprintf("%#x", cfg.BaseAddress),
		"entry_offset", fmt.Sprintf("%#x", cfg.EntryOffset),
		"align", cfg.Alignment,
		"map_headers", cfg.MapHeaders,
	)

	image, err := elf64.BuildWithConfig(payload, cfg)
	if err != nil {
		return err
	}

	path := m.OutputPath(dir)
	if err := output.WriteExecutable(path, image); err != nil {
		return err
	}

	slog.Info("wrote executable", "path", path, "bytes", len(image), "entry", fmt.Sprintf("%#x", cfg.BaseAddress+cfg.EntryOffset))
	return nil
}
