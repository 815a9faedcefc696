package session

import (
	"context"
	"fmt"
)

// RunInitiator performs the handshake and then, for each iteration, sends
// the message produced by request and hands the reply to reply.
// reply may be nil.
func (s *Session) RunInitiator(ctx context.Context, request RequestFunc, reply ReplyFunc) error {
	if err := s.begin(RoleInitiator); err != nil {
		return err
	}
	if request == nil {
		return s.fail(StepHandler, 0, fmt.Errorf("%w: missing request handler", ErrInvalidConfig))
	}

	if err := s.handshakeInitiator(ctx); err != nil {
		return err
	}

	for i := 1; i <= s.cfg.Iterations; i++ {
		s.transition(StateExchanging)

		msg, err := request(ctx, i)
		if err != nil {
			return s.fail(StepHandler, i, err)
		}
		if err := s.send(ctx, i, msg); err != nil {
			return err
		}

		s.transition(StateAwaitingReply)
		answer, err := s.receive(ctx, i)
		if err != nil {
			return err
		}
		if reply != nil {
			if err := reply(ctx, i, answer); err != nil {
				return s.fail(StepHandler, i, err)
			}
		}
		s.log.WithField("iteration", i).Debug("exchange done")
	}

	s.complete()
	return nil
}

// RunContributor performs the handshake and then, for each iteration,
// answers the initiator's message with the result of respond.
func (s *Session) RunContributor(ctx context.Context, respond RespondFunc) error {
	if err := s.begin(RoleContributor); err != nil {
		return err
	}
	if respond == nil {
		return s.fail(StepHandler, 0, fmt.Errorf("%w: missing respond handler", ErrInvalidConfig))
	}

	if err := s.handshakeContributor(ctx); err != nil {
		return err
	}

	for i := 1; i <= s.cfg.Iterations; i++ {
		s.transition(StateExchanging)

		s.transition(StateAwaitingReply)
		request, err := s.receive(ctx, i)
		if err != nil {
			return err
		}

		answer, err := respond(ctx, i, request)
		if err != nil {
			return s.fail(StepHandler, i, err)
		}
		if err := s.send(ctx, i, answer); err != nil {
			return err
		}
		s.log.WithField("iteration", i).Debug("exchange done")
	}

	s.complete()
	return nil
}
