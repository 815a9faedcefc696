package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TheusHen/rendezvous/rdv"
	"github.com/TheusHen/rendezvous/rdv/crypto"
	"github.com/TheusHen/rendezvous/rdv/identity"
	"github.com/TheusHen/rendezvous/rdv/payload"
)

// sessionFlags are shared by the initiator and contributor commands.
func sessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "Session name shared with the peer (default from config)")
	cmd.Flags().IntP("iterations", "i", 0, "Number of request/reply rounds (default from config)")
	cmd.Flags().Bool("raw-name", false, "Use the session name as is instead of hashing it")
	cmd.Flags().String("codec", "", "Payload codec: raw, lz4, lz4-fast or lz4-best")
}

// sessionParams resolves the session flags against the loaded config.
func (e *env) sessionParams(cmd *cobra.Command) (label string, iterations int) {
	label = e.cfg.Session.Name
	if v, _ := cmd.Flags().GetString("name"); v != "" {
		label = v
	}
	iterations = e.cfg.Session.Iterations
	if v, _ := cmd.Flags().GetInt("iterations"); v > 0 {
		iterations = v
	}
	return label, iterations
}

// newPeer builds a peer with a fresh identity, talking to the configured
// directory.
func (e *env) newPeer(cmd *cobra.Command) (*rdv.Peer, error) {
	cfg := e.cfg
	if v, _ := cmd.Flags().GetString("codec"); v != "" {
		cfg.Session.Codec = v
	}
	codec, err := payload.Lookup(cfg.Session.Codec)
	if err != nil {
		return nil, err
	}
	dir, err := rdv.OpenDirectory(cfg.Directory)
	if err != nil {
		return nil, err
	}
	id, err := identity.Generate(crypto.DefaultContext())
	if err != nil {
		return nil, err
	}

	opts := []rdv.PeerOption{
		rdv.WithHandshakePoll(cfg.Session.HandshakePoll()),
		rdv.WithExchangePoll(cfg.Session.ExchangePoll()),
		rdv.WithCodec(codec),
		rdv.WithLogger(e.logger),
	}
	raw, _ := cmd.Flags().GetBool("raw-name")
	if raw || !cfg.Session.EncodeName {
		opts = append(opts, rdv.WithRawNames())
	}
	e.logger.WithField("fingerprint", id.Fingerprint().Short()).Debug("identity generated")
	return rdv.NewPeer(id, dir, opts...), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
