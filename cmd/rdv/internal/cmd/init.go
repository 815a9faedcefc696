package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheusHen/rendezvous/rdv/config"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Creates a default configuration file",
		Long: `Creates a file ` + config.DefaultFile + ` with default settings.
Existing files are left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := flagString(cmd, "dir")
			force, _ := cmd.Flags().GetBool("force")
			file := filepath.Join(dir, config.DefaultFile)
			if _, err := os.Stat(file); err == nil && !force {
				return fmt.Errorf("%s already exists", file)
			}
			if err := config.Save(file, config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", file)
			return nil
		},
	}
	cmd.Flags().StringP("dir", "d", ".", "Location of directory for storing generated files")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	return cmd
}
