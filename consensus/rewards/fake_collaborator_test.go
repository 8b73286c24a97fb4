package rewards

import (
	"context"

	"github.com/tos-network/consensus-core/common"
	"github.com/tos-network/consensus-core/consensus/bitmap"
)

type fakeBlock struct {
	height    uint64
	era       common.EraID
	parent    common.Hash
	proposer  common.PublicKey
	stateRoot common.Hash
	sigs      []bitmap.Bitmap
}

func (b *fakeBlock) Height() uint64                      { return b.height }
func (b *fakeBlock) EraID() common.EraID                 { return b.era }
func (b *fakeBlock) Parent() common.Hash                 { return b.parent }
func (b *fakeBlock) Proposer() common.PublicKey          { return b.proposer }
func (b *fakeBlock) StateRootHash() common.Hash          { return b.stateRoot }
func (b *fakeBlock) RewardedSignatures() []bitmap.Bitmap { return b.sigs }

type eraData struct {
	weights     map[common.PublicKey]*Weight
	totalSupply *Weight
	rate        *Rational
}

// fakeCollaborator is an in-memory Collaborator test double keyed by hash.
type fakeCollaborator struct {
	byHash   map[common.Hash]Block
	byHeight map[uint64]Block
	eras     map[common.Hash]map[common.EraID]*eraData // stateRoot -> eras reachable from it

	failFetchBlock error
	failEraLookup  error
}

func newFakeCollaborator() *fakeCollaborator {
	return &fakeCollaborator{
		byHash:   make(map[common.Hash]Block),
		byHeight: make(map[uint64]Block),
		eras:     make(map[common.Hash]map[common.EraID]*eraData),
	}
}

func (f *fakeCollaborator) addBlock(b *fakeBlock, hash common.Hash) {
	f.byHash[hash] = b
	f.byHeight[b.height] = b
}

func (f *fakeCollaborator) setEra(stateRoot common.Hash, era common.EraID, weights map[common.PublicKey]uint64, totalSupply uint64, rateNum, rateDenom uint64) {
	if f.eras[stateRoot] == nil {
		f.eras[stateRoot] = make(map[common.EraID]*eraData)
	}
	w := make(map[common.PublicKey]*Weight, len(weights))
	for k, v := range weights {
		w[k] = WeightFromUint64(v)
	}
	f.eras[stateRoot][era] = &eraData{
		weights:     w,
		totalSupply: WeightFromUint64(totalSupply),
		rate:        new(Rational).SetFrac64(int64(rateNum), int64(rateDenom)),
	}
}

func (f *fakeCollaborator) GetBlockFromStorage(_ context.Context, hash common.Hash) (Block, bool, error) {
	if f.failFetchBlock != nil {
		return nil, false, f.failFetchBlock
	}
	b, ok := f.byHash[hash]
	return b, ok, nil
}

func (f *fakeCollaborator) CollectPastBlocksWithMetadata(_ context.Context, lo, hi uint64) ([]Block, error) {
	out := make([]Block, hi-lo)
	for h := lo; h < hi; h++ {
		if b, ok := f.byHeight[h]; ok {
			out[h-lo] = b
		}
	}
	return out, nil
}

func (f *fakeCollaborator) GetEraValidators(_ context.Context, stateRoot common.Hash) (map[common.EraID]map[common.PublicKey]*Weight, error) {
	if f.failEraLookup != nil {
		return nil, f.failEraLookup
	}
	out := make(map[common.EraID]map[common.PublicKey]*Weight)
	for era, d := range f.eras[stateRoot] {
		out[era] = d.weights
	}
	return out, nil
}

func (f *fakeCollaborator) GetTotalSupply(_ context.Context, stateRoot common.Hash) (*Weight, error) {
	for _, d := range f.eras[stateRoot] {
		return d.totalSupply, nil
	}
	return nil, ErrFailedToFetchTotalSupply
}

func (f *fakeCollaborator) GetRoundSeigniorageRate(_ context.Context, stateRoot common.Hash) (*Rational, error) {
	for _, d := range f.eras[stateRoot] {
		return d.rate, nil
	}
	return nil, ErrFailedToFetchSeigniorageRate
}
