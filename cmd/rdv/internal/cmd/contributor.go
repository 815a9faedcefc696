package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newContributorCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributor",
		Short: "Joins an announced session and answers requests",
		Long: `Waits for the initiator's key under the session name, publishes its own
and answers every request with "<reply> <i>".`,
		RunE: e.runContributor,
	}
	sessionFlags(cmd)
	cmd.Flags().StringP("reply", "r", "Pong", "Reply text")
	return cmd
}

func (e *env) runContributor(cmd *cobra.Command, args []string) error {
	peer, err := e.newPeer(cmd)
	if err != nil {
		return err
	}
	defer peer.Close()
	label, iterations := e.sessionParams(cmd)
	reply, _ := cmd.Flags().GetString("reply")

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	s, err := peer.Contribute(ctx, label, iterations,
		func(_ context.Context, i int, req []byte) ([]byte, error) {
			fmt.Fprintf(out, "%d: %s\n", i, req)
			return []byte(fmt.Sprintf("%s %d", reply, i)), nil
		})
	if s != nil {
		e.logger.WithField("session", s.ID().String()).
			WithField("state", s.State().String()).
			Info("contributor finished")
	}
	return err
}
