package vertex

import "github.com/tos-network/consensus-core/common"

// OutcomeKind enumerates the four outcome kinds of §4.F.
type OutcomeKind uint8

const (
	// QueueAction asks the reactor to call back and pop/process another vertex.
	QueueAction OutcomeKind = iota
	// SetTimer asks the reactor to wake the core at At to check deferredUntil.
	SetTimer
	// RequestDependency asks the reactor to request Dep from Peer.
	RequestDependency
	// InvalidIncoming reports that Peer sent something unrecoverable.
	InvalidIncoming
)

func (k OutcomeKind) String() string {
	switch k {
	case QueueAction:
		return "queue_action"
	case SetTimer:
		return "set_timer"
	case RequestDependency:
		return "request_dependency"
	case InvalidIncoming:
		return "invalid_incoming"
	default:
		return "unknown"
	}
}

// Outcome is one entry in the outcome slice a Synchronizer entry point
// returns (§4.F). Only the fields relevant to Kind are set.
type Outcome struct {
	Kind OutcomeKind
	At   Tick
	Dep  Dependency
	Peer common.PeerID
}
