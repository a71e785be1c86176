package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tinyrange/tinyelf/internal/elf64"
	"github.com/tinyrange/tinyelf/internal/inspect"
)

func newInspectCommand() *cobra.Command {
	var (
		color      string
		maxPayload int
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the headers and payload of a built executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := elf64.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			opts := inspect.Options{MaxPayload: maxPayload}
			switch color {
			case "always":
				opts.Color = true
			case "never":
			case "auto":
				if f, ok := cmd.OutOrStdout().(*os.File); ok {
					opts.Color = term.IsTerminal(int(f.Fd()))
				}
			default:
				return fmt.Errorf("--color: want auto, always or never, got %q", color)
			}

			return inspect.Render(cmd.OutOrStdout(), img, opts)
		},
	}
	cmd.Flags().StringVar(&color, "color", "auto", "Colorize output: auto, always or never")
	cmd.Flags().IntVar(&maxPayload, "max-payload", 256, "Hexdump at most this many payload bytes (0 for all)")
	return cmd
}
