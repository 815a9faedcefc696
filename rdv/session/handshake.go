package session

import (
	"context"

	"github.com/TheusHen/rendezvous/rdv/naming"
)

// handshakeInitiator announces the public key under the session name and
// waits for the contributor's key under the private handshake name.
// The announcement is withdrawn once the wait ends, whatever the outcome.
func (s *Session) handshakeInitiator(ctx context.Context) error {
	own := s.cfg.Identity.PublicKey()

	s.transition(StatePublishingKey)
	s.visit(s.cfg.Name)
	if err := s.cfg.Directory.Add(ctx, string(s.cfg.Name), own, ModeAnnounce); err != nil {
		return s.fail(StepPublishKey, 0, err)
	}
	s.log.WithField("name", s.cfg.Name.Short()).Debug("announced public key")

	s.transition(StateAwaitingPeerKey)
	private := naming.FromCompound(string(s.cfg.Name), own)
	s.visit(private)
	peerKey, err := s.poller.WaitAndRemove(ctx, string(private), s.cfg.HandshakePoll)
	s.forget(ctx, s.cfg.Name, own)
	if err != nil {
		return s.fail(StepAwaitPeerKey, 0, err)
	}

	if err := s.keyUp(peerKey); err != nil {
		return s.fail(StepDeriveChannel, 0, err)
	}
	s.transition(StateKeyedUp)
	return nil
}

// handshakeContributor takes the initiator's key from the session name and
// answers with its own key under the private handshake name.
// The peer key is validated before anything is published.
func (s *Session) handshakeContributor(ctx context.Context) error {
	s.transition(StateAwaitingPeerKey)
	s.visit(s.cfg.Name)
	peerKey, err := s.poller.WaitAndRemove(ctx, string(s.cfg.Name), s.cfg.HandshakePoll)
	if err != nil {
		return s.fail(StepAwaitPeerKey, 0, err)
	}

	private := naming.FromCompound(string(s.cfg.Name), peerKey)
	s.visit(private)
	if err := s.keyUp(peerKey); err != nil {
		return s.fail(StepDeriveChannel, 0, err)
	}

	s.transition(StatePublishingKey)
	if err := s.cfg.Directory.Add(ctx, string(private), s.cfg.Identity.PublicKey(), ModeReplyKey); err != nil {
		return s.fail(StepPublishKey, 0, err)
	}
	s.transition(StateKeyedUp)
	return nil
}
