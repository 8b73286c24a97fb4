// Package vertex implements the DAG vertex synchronizer: the pending-vertex
// store, the dependency resolver, the scheduler-facing synchronizer, and the
// fault handler that together track vertices arriving with unresolved
// causal dependencies and release them into the protocol state in order.
//
// The package is grounded on consensus/bft's VotePool (a mutex-guarded
// map-of-maps index with one mutator method per index and a single lock
// scope per call) and consensus/bft's Reactor (a thin orchestrator exposing
// synchronous entry points that glue the indexes together).
package vertex

import (
	"github.com/tos-network/consensus-core/common"
)

// VertexId names a pending vertex. Identity is derived from the vertex body
// by the caller; this package only ever compares ids for equality.
type VertexId common.Hash

// DependencyKind distinguishes a dependency on another vertex from a
// dependency on an evidence/endorsement object (§4.G: "only unit
// dependencies are followed").
type DependencyKind uint8

const (
	DepUnit DependencyKind = iota
	DepEvidence
)

func (k DependencyKind) String() string {
	if k == DepEvidence {
		return "evidence"
	}
	return "unit"
}

// Dependency names either another vertex or an evidence/endorsement object
// the protocol state may or may not yet hold (§3).
type Dependency struct {
	Kind DependencyKind
	ID   VertexId
}

// Tick is the store's local notion of wall-clock time (§3: "time_received is
// the local monotonic clock reading at arrival, used only for aging, never
// for consensus"). The reactor supplies every Tick value; the store never
// reads a clock itself.
type Tick uint64

// PreValidatedVertex is the opaque, already-validated vertex body the core
// buffers. Validation rules themselves are out of scope (§1 non-goals); the
// core only needs a stable identity to index and compare against.
type PreValidatedVertex interface {
	ID() VertexId
}

// PendingVertex is the (sender, pre_validated_vertex, time_received) tuple
// of §3. Each PendingVertex lives in exactly one of blockedBy, deferredUntil,
// or ready at a time.
type PendingVertex struct {
	Sender       common.PeerID
	Vertex       PreValidatedVertex
	TimeReceived Tick
}

// ProtocolState is the collaborator the resolver and the store's pop_ready
// consult to decide whether a dependency is already satisfied, or whether a
// buffered vertex has gone stale because the protocol state already holds it.
type ProtocolState interface {
	Has(dep Dependency) bool
}
