package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("session: invalid config")
	ErrAlreadyRun    = errors.New("session: already run")
	ErrWrongRole     = errors.New("session: wrong role")
)

// Role is the side a participant plays. The initiator moves first.
type Role int

const (
	RoleInitiator Role = iota + 1
	RoleContributor
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleContributor:
		return "contributor"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole accepts "initiator" and "contributor".
func ParseRole(s string) (Role, error) {
	switch s {
	case "initiator":
		return RoleInitiator, nil
	case "contributor":
		return RoleContributor, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, s)
	}
}

// State of a session. A session only moves forward; Completed and Failed
// are terminal.
type State int

const (
	StateIdle State = iota
	StatePublishingKey
	StateAwaitingPeerKey
	StateKeyedUp
	StateExchanging
	StateSent
	StateAwaitingReply
	StateReceived
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StatePublishingKey:   "publishing-key",
	StateAwaitingPeerKey: "awaiting-peer-key",
	StateKeyedUp:         "keyed-up",
	StateExchanging:      "exchanging",
	StateSent:            "sent",
	StateAwaitingReply:   "awaiting-reply",
	StateReceived:        "received",
	StateCompleted:       "completed",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Step names used in StepError.
const (
	StepPublishKey    = "publish-key"
	StepAwaitPeerKey  = "await-peer-key"
	StepDeriveChannel = "derive-channel"
	StepEncode        = "encode"
	StepSend          = "send"
	StepAwaitMessage  = "await-message"
	StepDecrypt       = "decrypt"
	StepAdvance       = "advance"
	StepHandler       = "handler"
)

// StepError reports the step and state in which a session failed.
// Unwrap exposes the cause, so errors.Is works with the crypto and
// directory sentinels.
type StepError struct {
	Step      string
	State     State
	Iteration int
	Err       error
}

func (e *StepError) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("session: %s (state %s, iteration %d): %v", e.Step, e.State, e.Iteration, e.Err)
	}
	return fmt.Sprintf("session: %s (state %s): %v", e.Step, e.State, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
