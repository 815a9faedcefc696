package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheusHen/rendezvous/rdv/crypto"
	"github.com/TheusHen/rendezvous/rdv/identity"
)

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generates an ephemeral keypair and prints its public half",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.Generate(crypto.DefaultContext())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "public key: ", id.PublicKey())
			fmt.Fprintln(cmd.OutOrStdout(), "fingerprint:", id.Fingerprint())
			return nil
		},
	}
}
