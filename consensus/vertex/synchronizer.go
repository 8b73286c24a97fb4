package vertex

import "github.com/tos-network/consensus-core/common"

// Intake classifies one incoming pre-validated vertex (§2: "peer input ->
// (F) classifies as ready-now, ready-later, or blocked"). If Invalid is set,
// every other field is ignored: the vertex is dropped silently and never
// enters blockedBy/deferredUntil/ready. Otherwise exactly one of MissingDep
// or ReadyAt should be set; if neither is set the vertex is ready now.
type Intake struct {
	Sender     common.PeerID
	Vertex     PreValidatedVertex
	Now        Tick
	MissingDep *Dependency
	ReadyAt    *Tick
	Invalid    bool
}

// Synchronizer glues the Pending-Vertex Store, Dependency Resolver, and
// Fault Handler behind five entry points (HandleVertex,
// ProtocolStateAdvanced, Tick, PopReady, DropDependent), directly modeled on
// consensus/bft.Reactor: a transport-agnostic orchestrator exposing
// synchronous entry points over a shared index. The reactor's scheduling
// model is single-threaded cooperative per instance; Synchronizer never
// blocks and never spawns a goroutine. Each entry point that produces
// outcomes returns them as a newly allocated slice; none of them takes or
// appends to an outcome list owned by the caller.
type Synchronizer struct {
	store    *PendingVertexStore
	resolver *Resolver
	faults   *FaultHandler
}

// NewSynchronizer constructs a Synchronizer whose store enforces timeout as
// its pending_vertex_timeout.
func NewSynchronizer(timeout Tick) *Synchronizer {
	store := NewPendingVertexStore(timeout)
	return &Synchronizer{
		store:    store,
		resolver: NewResolver(store),
		faults:   NewFaultHandler(store),
	}
}

// HandleVertex buffers or schedules one incoming vertex per in's
// classification (§4.D store_deferred / add_missing_dependency /
// schedule_ready), or drops it silently and reports InvalidIncoming if the
// caller has already proven it adversarial (§7 "adversarial input").
func (s *Synchronizer) HandleVertex(in Intake) []Outcome {
	if in.Invalid {
		return []Outcome{{Kind: InvalidIncoming, Peer: in.Sender}}
	}

	pv := PendingVertex{Sender: in.Sender, Vertex: in.Vertex, TimeReceived: in.Now}

	switch {
	case in.MissingDep != nil:
		s.store.AddMissingDependency(*in.MissingDep, pv)
		return []Outcome{{Kind: RequestDependency, Dep: *in.MissingDep, Peer: in.Sender}}
	case in.ReadyAt != nil && *in.ReadyAt > in.Now:
		s.store.StoreDeferred(*in.ReadyAt, pv)
		return []Outcome{{Kind: SetTimer, At: *in.ReadyAt}}
	default:
		return s.store.ScheduleReady([]PendingVertex{pv})
	}
}

// ProtocolStateAdvanced promotes every blockedBy entry whose dependency
// protocolState now satisfies (§4.E resolve).
func (s *Synchronizer) ProtocolStateAdvanced(protocolState ProtocolState) []Outcome {
	return s.resolver.Resolve(protocolState)
}

// Tick promotes every deferredUntil entry due by now and purges entries
// older than the store's pending_vertex_timeout (§4.E due, §4.D purge).
func (s *Synchronizer) Tick(now Tick) []Outcome {
	outcomes := s.resolver.Due(now)
	s.store.Purge(now)
	return outcomes
}

// PopReady pops the next ready vertex not already reflected in
// protocolState (§4.D pop_ready).
func (s *Synchronizer) PopReady(protocolState ProtocolState) (*PendingVertex, []Outcome) {
	return s.store.PopReady(protocolState)
}

// DropDependent transitively drops every vertex blocked on deps and returns
// the senders that transmitted them, for the reactor to consider banning
// (§4.G).
func (s *Synchronizer) DropDependent(deps []Dependency) map[common.PeerID]struct{} {
	return s.faults.DropDependent(deps)
}
