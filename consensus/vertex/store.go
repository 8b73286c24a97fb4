package vertex

import (
	"sort"
	"sync"
)

// PendingVertexStore holds blockedBy, deferredUntil, and ready: the three
// time/dependency-indexed queues of buffered vertices. It is grounded on
// consensus/bft.VotePool: a single sync.RWMutex guards several
// map-of-maps-shaped indexes, with one mutator per index and a single lock
// scope per public method.
//
// The store performs no I/O and never suspends: every method here runs to
// completion synchronously.
type PendingVertexStore struct {
	mu sync.RWMutex

	timeout Tick

	blockedBy     map[Dependency][]PendingVertex
	deferredUntil map[Tick][]PendingVertex
	ready         []PendingVertex
}

// NewPendingVertexStore constructs an empty store with the given
// pending_vertex_timeout (§3, §4.D purge).
func NewPendingVertexStore(timeout Tick) *PendingVertexStore {
	return &PendingVertexStore{
		timeout:       timeout,
		blockedBy:     make(map[Dependency][]PendingVertex),
		deferredUntil: make(map[Tick][]PendingVertex),
	}
}

// StoreDeferred appends pv to deferred_until[tFuture] (§4.D).
func (s *PendingVertexStore) StoreDeferred(tFuture Tick, pv PendingVertex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferredUntil[tFuture] = append(s.deferredUntil[tFuture], pv)
}

// AddMissingDependency appends pv to blocked_by[dep] (§4.D).
func (s *PendingVertexStore) AddMissingDependency(dep Dependency, pv PendingVertex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockedBy[dep] = append(s.blockedBy[dep], pv)
}

// ScheduleReady extends ready with pvs, returning a single QueueAction
// outcome iff ready transitioned from empty to non-empty (§4.D).
func (s *PendingVertexStore) ScheduleReady(pvs []PendingVertex) []Outcome {
	if len(pvs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wasEmpty := len(s.ready) == 0
	s.ready = append(s.ready, pvs...)
	if wasEmpty {
		return []Outcome{{Kind: QueueAction}}
	}
	return nil
}

// PopReady pops until a vertex whose id is not already in protocolState is
// found, silently skipping stale entries. If ready is still non-empty after
// the pop, it returns one QueueAction outcome to re-arm processing (§4.D).
func (s *PendingVertexStore) PopReady(protocolState ProtocolState) (*PendingVertex, []Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.ready) > 0 {
		pv := s.ready[0]
		s.ready = s.ready[1:]
		if protocolState != nil && protocolState.Has(Dependency{Kind: DepUnit, ID: pv.Vertex.ID()}) {
			continue
		}
		if len(s.ready) > 0 {
			return &pv, []Outcome{{Kind: QueueAction}}
		}
		return &pv, nil
	}
	return nil, nil
}

// Purge drops every pending vertex with TimeReceived < now-timeout from all
// three queues, and drops any blockedBy/deferredUntil key whose value-list
// becomes empty (§4.D). Purge is idempotent: a second call at the same now
// finds nothing left to drop.
func (s *PendingVertexStore) Purge(now Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cutoff Tick
	if now > s.timeout {
		cutoff = now - s.timeout
	}

	for dep, pvs := range s.blockedBy {
		kept := filterFresh(pvs, cutoff)
		if len(kept) == 0 {
			delete(s.blockedBy, dep)
		} else {
			s.blockedBy[dep] = kept
		}
	}
	for t, pvs := range s.deferredUntil {
		kept := filterFresh(pvs, cutoff)
		if len(kept) == 0 {
			delete(s.deferredUntil, t)
		} else {
			s.deferredUntil[t] = kept
		}
	}
	s.ready = filterFresh(s.ready, cutoff)
}

func filterFresh(pvs []PendingVertex, cutoff Tick) []PendingVertex {
	if len(pvs) == 0 {
		return nil
	}
	kept := make([]PendingVertex, 0, len(pvs))
	for _, pv := range pvs {
		if pv.TimeReceived >= cutoff {
			kept = append(kept, pv)
		}
	}
	return kept
}

// drainSatisfied removes and returns, in a single lock scope, every entry
// blocked on a dependency for which has reports true, deleting the
// now-satisfied keys (§4.E resolve, step 1-2).
func (s *PendingVertexStore) drainSatisfied(has func(Dependency) bool) []PendingVertex {
	s.mu.Lock()
	defer s.mu.Unlock()

	var satisfied []Dependency
	for dep := range s.blockedBy {
		if has(dep) {
			satisfied = append(satisfied, dep)
		}
	}
	var union []PendingVertex
	for _, dep := range satisfied {
		union = append(union, s.blockedBy[dep]...)
		delete(s.blockedBy, dep)
	}
	return union
}

// drainDue removes and returns every entry in deferredUntil whose key is
// <= now, visiting keys in ascending time order so ties within one key keep
// their insertion order (§4.E due).
func (s *PendingVertexStore) drainDue(now Tick) []PendingVertex {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []Tick
	for t := range s.deferredUntil {
		if t <= now {
			keys = append(keys, t)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var union []PendingVertex
	for _, t := range keys {
		union = append(union, s.deferredUntil[t]...)
		delete(s.deferredUntil, t)
	}
	return union
}

// drainDependents removes and returns, in a single lock scope, the bucket
// blocked on dep, deleting the key (§4.G drop_dependent).
func (s *PendingVertexStore) drainDependents(dep Dependency) []PendingVertex {
	s.mu.Lock()
	defer s.mu.Unlock()
	pvs := s.blockedBy[dep]
	delete(s.blockedBy, dep)
	return pvs
}
