package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInitiatorCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initiator",
		Short: "Announces a session and sends requests to the contributor",
		Long: `Publishes an ephemeral public key under the session name, waits for the
contributor's key and then sends one request per iteration, printing each
reply. Request i carries "<message> <i>".`,
		RunE: e.runInitiator,
	}
	sessionFlags(cmd)
	cmd.Flags().StringP("message", "m", "Ping", "Request text")
	return cmd
}

func (e *env) runInitiator(cmd *cobra.Command, args []string) error {
	peer, err := e.newPeer(cmd)
	if err != nil {
		return err
	}
	defer peer.Close()
	label, iterations := e.sessionParams(cmd)
	message, _ := cmd.Flags().GetString("message")

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	s, err := peer.Initiate(ctx, label, iterations,
		func(_ context.Context, i int) ([]byte, error) {
			return []byte(fmt.Sprintf("%s %d", message, i)), nil
		},
		func(_ context.Context, i int, reply []byte) error {
			fmt.Fprintf(out, "%d: %s\n", i, strings.TrimSpace(string(reply)))
			return nil
		})
	if s != nil {
		e.logger.WithField("session", s.ID().String()).
			WithField("state", s.State().String()).
			Info("initiator finished")
	}
	return err
}
