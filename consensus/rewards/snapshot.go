package rewards

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru"

	"github.com/tos-network/consensus-core/common"
)

// defaultSnapshotCacheSize mirrors consensus/dpos's inmemorySnapshots
// constant: the number of recently built snapshots an ARC cache keeps
// in memory before evicting.
const defaultSnapshotCacheSize = 128

// WeightedValidator pairs a validator key with its stake weight.
type WeightedValidator struct {
	Key    common.PublicKey
	Weight *Weight
}

// EraSnapshot is the per-era weights, total weight, and reward pot. Once
// built it is never mutated, the same immutability consensus/dpos's
// Snapshot relies on to be safely shared across readers via an LRU cache.
type EraSnapshot struct {
	EraID          common.EraID
	Weights        []WeightedValidator // sorted ascending by Key
	TotalWeight    *Weight
	RewardPerRound *Rational
}

// WeightOf returns the weight of key in the snapshot, or nil if key is not
// a validator in this era.
func (s *EraSnapshot) WeightOf(key common.PublicKey) *Weight {
	// Weights is small (validator-set sized) and sorted; a linear scan
	// avoids building a second map per snapshot for what is usually a
	// handful of lookups per block.
	for _, wv := range s.Weights {
		if wv.Key == key {
			return wv.Weight
		}
	}
	return nil
}

// SnapshotCache builds and caches EraSnapshot values keyed by era id,
// modeled on consensus/dpos's ARC-cached Snapshot-by-hash pattern (§4.B).
type SnapshotCache struct {
	collaborator Collaborator
	cache        *lru.ARCCache // common.EraID -> *EraSnapshot
}

// NewSnapshotCache constructs a SnapshotCache backed by collaborator.
func NewSnapshotCache(collaborator Collaborator) *SnapshotCache {
	cache, err := lru.NewARC(defaultSnapshotCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// defaultSnapshotCacheSize never is.
		panic(err)
	}
	return &SnapshotCache{collaborator: collaborator, cache: cache}
}

// Get returns the EraSnapshot for era, building it from anchor if it is not
// already cached. All four lookups for a given era target the anchor's
// state root (§4.B); any lookup failure aborts the whole build and nothing
// partial is ever cached or returned.
func (c *SnapshotCache) Get(ctx context.Context, era common.EraID, anchor common.Hash) (*EraSnapshot, error) {
	if cached, ok := c.cache.Get(era); ok {
		return cached.(*EraSnapshot), nil
	}
	snap, err := c.build(ctx, era, anchor)
	if err != nil {
		return nil, err
	}
	c.cache.Add(era, snap)
	return snap, nil
}

func (c *SnapshotCache) build(ctx context.Context, era common.EraID, anchor common.Hash) (*EraSnapshot, error) {
	anchorBlock, ok, err := c.collaborator.GetBlockFromStorage(ctx, anchor)
	if err != nil {
		return nil, &PopulateError{Step: "get_block_from_storage", Hash: anchor, Err: err}
	}
	if !ok {
		return nil, &PopulateError{Step: "get_block_from_storage", Hash: anchor, Err: ErrFailedToFetchBlock}
	}
	stateRoot := anchorBlock.StateRootHash()

	eraValidators, err := c.collaborator.GetEraValidators(ctx, stateRoot)
	if err != nil {
		return nil, &PopulateError{Step: "get_era_validators", Hash: stateRoot, Err: err}
	}
	weights, ok := eraValidators[era]
	if !ok {
		return nil, &PopulateError{Step: "get_era_validators", Hash: stateRoot, Err: ErrNoEraReturned}
	}

	totalSupply, err := c.collaborator.GetTotalSupply(ctx, stateRoot)
	if err != nil {
		return nil, &PopulateError{Step: "get_total_supply", Hash: stateRoot, Err: err}
	}

	rate, err := c.collaborator.GetRoundSeigniorageRate(ctx, stateRoot)
	if err != nil {
		return nil, &PopulateError{Step: "get_round_seigniorage_rate", Hash: stateRoot, Err: err}
	}

	wvs := make([]WeightedValidator, 0, len(weights))
	for key, weight := range weights {
		wvs = append(wvs, WeightedValidator{Key: key, Weight: weight})
	}
	sort.Slice(wvs, func(i, j int) bool { return wvs[i].Key.Less(wvs[j].Key) })

	totals := make([]*Weight, len(wvs))
	for i, wv := range wvs {
		totals[i] = wv.Weight
	}

	return &EraSnapshot{
		EraID:          era,
		Weights:        wvs,
		TotalWeight:    SumWeights(totals),
		RewardPerRound: RewardPot(rate, totalSupply),
	}, nil
}
