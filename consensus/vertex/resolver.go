package vertex

// Resolver moves vertices from "blocked" to "ready" as dependencies land
// (§4.E). It is grounded on consensus/bft.Reactor.HandleIncomingVote's
// "drain a pool bucket, hand the union to the next stage" shape.
type Resolver struct {
	store *PendingVertexStore
}

// NewResolver wraps store.
func NewResolver(store *PendingVertexStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve enumerates blockedBy keys satisfied by protocolState, drains
// those buckets, and schedules the union as ready (§4.E step 1-2). On an
// unchanged protocol state (nothing satisfied), it moves zero vertices.
func (r *Resolver) Resolve(protocolState ProtocolState) []Outcome {
	union := r.store.drainSatisfied(protocolState.Has)
	return r.store.ScheduleReady(union)
}

// Due enumerates deferredUntil keys with t <= now, drains them in ascending
// time order, and schedules the union as ready (§4.E due).
func (r *Resolver) Due(now Tick) []Outcome {
	union := r.store.drainDue(now)
	return r.store.ScheduleReady(union)
}
