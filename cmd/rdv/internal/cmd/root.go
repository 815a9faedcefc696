// Package cmd implements the rdv command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TheusHen/rendezvous/rdv/config"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "0.1.0-dev"

// env is what every subcommand gets after the persistent pre-run.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
}

// RootCmd is the base "rdv" command.
var RootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:   "rdv",
		Short: "Two-party rendezvous over an untrusted directory",
		Long: `rdv lets two peers that share only a session name meet through a
public directory, agree on a key and exchange sealed messages at names
that change after every message.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default ./"+config.DefaultFile+" when present)")
	cmd.PersistentFlags().String("log-level", "", "Override the configured log level")
	cmd.PersistentFlags().String("directory", "", "Override the directory URL")

	cmd.AddCommand(
		newInitCommand(),
		newInitiatorCommand(e),
		newContributorCommand(e),
		newServeCommand(e),
		newKeygenCommand(),
		newVersionCommand(),
	)
	return cmd
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(flagString(cmd, "config"))
	if err != nil {
		return err
	}
	if v := flagString(cmd, "log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := flagString(cmd, "directory"); v != "" {
		cfg.Directory.URL = v
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	e.cfg, e.logger = cfg, logger
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// Execute runs RootCmd and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
