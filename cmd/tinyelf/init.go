package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyrange/tinyelf/internal/manifest"
)

func newInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a template build manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := manifest.WriteTemplate(path, manifest.Default()); err != nil {
				return err
			}
			slog.Info("wrote manifest", "path", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", manifest.DefaultFilename, "Manifest path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")
	return cmd
}
