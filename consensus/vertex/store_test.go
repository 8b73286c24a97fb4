package vertex

import (
	"testing"

	"github.com/tos-network/consensus-core/common"
)

type testVertex struct{ id VertexId }

func (v testVertex) ID() VertexId { return v.id }

func idOf(b byte) VertexId {
	var v VertexId
	v[0] = b
	return v
}

type fakeProtocolState struct {
	held map[Dependency]bool
}

func newFakeProtocolState() *fakeProtocolState {
	return &fakeProtocolState{held: make(map[Dependency]bool)}
}

func (p *fakeProtocolState) Has(dep Dependency) bool { return p.held[dep] }

// TestDrainOrdering checks that five ready vertices pop in insertion order,
// each pop re-arming processing until the queue empties.
func TestDrainOrdering(t *testing.T) {
	store := NewPendingVertexStore(1000)
	var pvs []PendingVertex
	for i := byte(0); i < 5; i++ {
		pvs = append(pvs, PendingVertex{Sender: common.PeerID("p"), Vertex: testVertex{idOf(i)}, TimeReceived: 1000})
	}

	outcomes := store.ScheduleReady(pvs)
	if len(outcomes) != 1 || outcomes[0].Kind != QueueAction {
		t.Fatalf("expected exactly one QueueAction, got %v", outcomes)
	}

	state := newFakeProtocolState()
	var popped []VertexId
	var queueActionCount int
	for i := 0; i < 5; i++ {
		pv, out := store.PopReady(state)
		if pv == nil {
			t.Fatalf("pop %d: expected a vertex", i)
		}
		popped = append(popped, pv.Vertex.ID())
		if i < 4 {
			if len(out) != 1 || out[0].Kind != QueueAction {
				t.Fatalf("pop %d: expected a re-arm QueueAction, got %v", i, out)
			}
			queueActionCount++
		} else if len(out) != 0 {
			t.Fatalf("final pop: expected no outcome, got %v", out)
		}
	}
	if queueActionCount != 4 {
		t.Fatalf("queue action count = %d, want 4", queueActionCount)
	}
	for i, id := range popped {
		if id != idOf(byte(i)) {
			t.Fatalf("pop order mismatch at %d", i)
		}
	}
}

// TestAgingDropsStaleDependency checks that a vertex surviving one purge is
// dropped once it crosses the configured timeout, and never yielded again.
func TestAgingDropsStaleDependency(t *testing.T) {
	store := NewPendingVertexStore(100)
	dep := Dependency{Kind: DepUnit, ID: idOf(0xAA)}
	store.AddMissingDependency(dep, PendingVertex{Sender: common.PeerID("p"), Vertex: testVertex{idOf(1)}, TimeReceived: 0})

	store.Purge(50)
	if len(store.blockedBy[dep]) != 1 {
		t.Fatal("purge(50) should retain the vertex")
	}

	store.Purge(101)
	if len(store.blockedBy[dep]) != 0 {
		t.Fatal("purge(101) should drop the vertex")
	}
	if _, ok := store.blockedBy[dep]; ok {
		t.Fatal("emptied bucket should be removed from the map")
	}

	state := newFakeProtocolState()
	resolver := NewResolver(store)
	state.held[dep] = true
	resolver.Resolve(state)
	if pv, _ := store.PopReady(state); pv != nil {
		t.Fatal("a purged vertex must never be yielded by pop_ready")
	}
}

// TestInvariant3PurgeDropsAllStale checks invariant 3: after purge(now), no
// pending vertex has time_received < now-timeout, across all three queues.
func TestInvariant3PurgeDropsAllStale(t *testing.T) {
	store := NewPendingVertexStore(10)
	depA := Dependency{Kind: DepUnit, ID: idOf(1)}
	store.AddMissingDependency(depA, PendingVertex{Vertex: testVertex{idOf(2)}, TimeReceived: 0})
	store.AddMissingDependency(depA, PendingVertex{Vertex: testVertex{idOf(3)}, TimeReceived: 20})
	store.StoreDeferred(5, PendingVertex{Vertex: testVertex{idOf(4)}, TimeReceived: 0})
	store.StoreDeferred(5, PendingVertex{Vertex: testVertex{idOf(5)}, TimeReceived: 20})
	store.ScheduleReady([]PendingVertex{
		{Vertex: testVertex{idOf(6)}, TimeReceived: 0},
		{Vertex: testVertex{idOf(7)}, TimeReceived: 20},
	})

	store.Purge(15) // cutoff = 5

	for _, pv := range store.blockedBy[depA] {
		if pv.TimeReceived < 5 {
			t.Fatalf("stale vertex %v survived purge in blockedBy", pv.Vertex.ID())
		}
	}
	for _, pv := range store.deferredUntil[5] {
		if pv.TimeReceived < 5 {
			t.Fatalf("stale vertex %v survived purge in deferredUntil", pv.Vertex.ID())
		}
	}
	for _, pv := range store.ready {
		if pv.TimeReceived < 5 {
			t.Fatalf("stale vertex %v survived purge in ready", pv.Vertex.ID())
		}
	}
}

// TestPurgeIdempotent checks purge(t) . purge(t) == purge(t).
func TestPurgeIdempotent(t *testing.T) {
	store := NewPendingVertexStore(10)
	dep := Dependency{Kind: DepUnit, ID: idOf(1)}
	store.AddMissingDependency(dep, PendingVertex{Vertex: testVertex{idOf(2)}, TimeReceived: 0})
	store.AddMissingDependency(dep, PendingVertex{Vertex: testVertex{idOf(3)}, TimeReceived: 100})

	store.Purge(20)
	firstBlocked := len(store.blockedBy[dep])
	firstReady := len(store.ready)

	store.Purge(20)
	if len(store.blockedBy[dep]) != firstBlocked || len(store.ready) != firstReady {
		t.Fatal("second purge at the same now changed store contents")
	}
}

// TestInvariant4QueuesDisjointAndNoEmptyBuckets exercises a mixed sequence
// of store_* / schedule_ready / pop_ready and checks that blockedBy and
// deferredUntil never retain an empty bucket, and that no vertex id appears
// in more than one queue at once.
func TestInvariant4QueuesDisjointAndNoEmptyBuckets(t *testing.T) {
	store := NewPendingVertexStore(1000)
	depA := Dependency{Kind: DepUnit, ID: idOf(0x10)}

	store.AddMissingDependency(depA, PendingVertex{Vertex: testVertex{idOf(1)}, TimeReceived: 0})
	store.StoreDeferred(50, PendingVertex{Vertex: testVertex{idOf(2)}, TimeReceived: 0})
	store.ScheduleReady([]PendingVertex{{Vertex: testVertex{idOf(3)}, TimeReceived: 0}})

	state := newFakeProtocolState()
	state.held[depA] = true
	resolver := NewResolver(store)
	resolver.Resolve(state)
	if _, ok := store.blockedBy[depA]; ok {
		t.Fatal("satisfied dependency bucket should be removed, not left empty")
	}

	resolver.Due(50)
	if _, ok := store.deferredUntil[50]; ok {
		t.Fatal("drained deferred bucket should be removed, not left empty")
	}

	seen := make(map[VertexId]int)
	for dep := range store.blockedBy {
		for _, pv := range store.blockedBy[dep] {
			seen[pv.Vertex.ID()]++
		}
	}
	for dt := range store.deferredUntil {
		for _, pv := range store.deferredUntil[dt] {
			seen[pv.Vertex.ID()]++
		}
	}
	for _, pv := range store.ready {
		seen[pv.Vertex.ID()]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("vertex %v present in %d queues, want exactly 1", id, count)
		}
	}
}

// TestResolveOnUnchangedStateMovesNothing checks the round-trip/idempotence
// property: resolve on an unchanged protocol state moves zero vertices.
func TestResolveOnUnchangedStateMovesNothing(t *testing.T) {
	store := NewPendingVertexStore(1000)
	dep := Dependency{Kind: DepUnit, ID: idOf(1)}
	store.AddMissingDependency(dep, PendingVertex{Vertex: testVertex{idOf(2)}, TimeReceived: 0})

	state := newFakeProtocolState() // Has always returns false
	resolver := NewResolver(store)
	if out := resolver.Resolve(state); out != nil {
		t.Fatalf("expected no outcomes, got %v", out)
	}
	if len(store.blockedBy[dep]) != 1 {
		t.Fatal("resolve on an unchanged protocol state must not move the vertex")
	}
}
