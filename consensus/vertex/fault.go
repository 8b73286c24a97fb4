package vertex

import "github.com/tos-network/consensus-core/common"

// FaultHandler drops pending vertices rooted at a dependency the protocol
// state has proven invalid (§4.G). It is grounded, in spirit, on
// consensus/bft.VotePool's equivocation path (ErrEquivocation): both handle
// "a peer proved to be wrong," generalized here from rejecting one vote to
// transitively purging a dependency subtree.
type FaultHandler struct {
	store *PendingVertexStore
}

// NewFaultHandler wraps store.
func NewFaultHandler(store *PendingVertexStore) *FaultHandler {
	return &FaultHandler{store: store}
}

// DropDependent transitively removes every pending vertex rooted at any dep
// in deps and returns the set of senders that transmitted them (§4.G). Only
// unit dependencies are ever drained, whether they appear in the caller's
// initial deps or are produced while walking the closure: a dropped vertex
// becomes a unit dependency for its own dependents, but an evidence/
// endorsement dependency, seed or derived, is never drained, since a valid
// alternative may still arrive from a different peer. Transitive closure is
// computed by repeated draining until the worklist is empty.
func (f *FaultHandler) DropDependent(deps []Dependency) map[common.PeerID]struct{} {
	senders := make(map[common.PeerID]struct{})
	seen := make(map[Dependency]bool, len(deps))
	worklist := append([]Dependency(nil), deps...)

	for len(worklist) > 0 {
		dep := worklist[0]
		worklist = worklist[1:]
		if dep.Kind != DepUnit {
			continue
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true

		for _, pv := range f.store.drainDependents(dep) {
			senders[pv.Sender] = struct{}{}
			worklist = append(worklist, Dependency{Kind: DepUnit, ID: pv.Vertex.ID()})
		}
	}
	return senders
}
