package rewards

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tos-network/consensus-core/common"
	"github.com/tos-network/consensus-core/consensus/bitmap"
	"github.com/tos-network/consensus-core/params"
)

// fetchBatchSize is the block-fetch batch size §4.C step 1 specifies.
const fetchBatchSize = 100

// RewardsEngine computes the deterministic per-era reward distribution
// (§4.C). It holds no mutable state of its own between calls: every
// RewardsForEra invocation builds and discards its own era snapshots.
type RewardsEngine struct {
	cfg          *params.RewardsConfig
	collaborator Collaborator
}

// NewRewardsEngine constructs a RewardsEngine.
func NewRewardsEngine(cfg *params.RewardsConfig, collaborator Collaborator) *RewardsEngine {
	return &RewardsEngine{
		cfg:          cfg,
		collaborator: collaborator,
	}
}

// RewardsForEra computes the reward distribution for era, given the era's
// start height and how many blocks (including the terminating switch
// block) have been produced in it so far (§4.C).
func (e *RewardsEngine) RewardsForEra(ctx context.Context, era common.EraID, startOfEraHeight, relativeHeight uint64) (map[common.PublicKey]*Weight, error) {
	lo, hi := citedRange(startOfEraHeight, relativeHeight, e.cfg.SignatureRewardsMaxDelay)

	cited, err := e.fetchCitedRange(ctx, lo, hi)
	if err != nil {
		return nil, err
	}

	groups := groupByEra(cited)
	snapshots, skippedGenesis, err := e.buildSnapshots(ctx, groups)
	if err != nil {
		return nil, err
	}

	targetSnap, ok := snapshots[era]
	if !ok {
		if skippedGenesis[era] {
			log.Warn("rewards: target era anchor resolved to genesis, emitting no rewards", "era", era)
			return map[common.PublicKey]*Weight{}, nil
		}
		return nil, EraIdNotInEraRange(era)
	}

	ledger := make(map[common.PublicKey]*Rational)
	creditInto := func(key common.PublicKey, amount *Rational) {
		if cur, ok := ledger[key]; ok {
			cur.Add(cur, amount)
			return
		}
		ledger[key] = new(Rational).Set(amount)
	}

	for height := lo; height < hi; height++ {
		b := cited[height]
		if b == nil || b.EraID() != era {
			continue
		}

		proposer := b.Proposer()
		proposerWeight := targetSnap.WeightOf(proposer)
		if proposerWeight == nil {
			return nil, ValidatorKeyNotInEra(proposer, era)
		}

		production := new(Rational).Mul(e.cfg.ProductionRewardsProportion.Rat(), targetSnap.RewardPerRound)
		creditInto(proposer, production)

		collectionShare := WeightRatio(proposerWeight, targetSnap.TotalWeight)
		collection := new(Rational).Mul(collectionShare, e.cfg.CollectionRewardsProportion.Rat())
		collection.Mul(collection, targetSnap.RewardPerRound)
		creditInto(proposer, collection)

		if err := e.creditContributions(b, height, cited, lo, snapshots, skippedGenesis, creditInto); err != nil {
			return nil, err
		}
	}

	return finalize(ledger), nil
}

// creditContributions credits the signers named by b's rewarded-signature
// bitmaps (§4.C step 3, contribution rewards).
func (e *RewardsEngine) creditContributions(
	b Block,
	height uint64,
	cited map[uint64]Block,
	lo uint64,
	snapshots map[common.EraID]*EraSnapshot,
	skippedGenesis map[common.EraID]bool,
	creditInto func(common.PublicKey, *Rational),
) error {
	for k, bm := range b.RewardedSignatures() {
		if uint64(k) >= height {
			break // signed_height = height-1-k would underflow past genesis
		}
		signedHeight := height - 1 - uint64(k)
		if signedHeight < lo {
			return HeightNotInEraRange(signedHeight)
		}
		signedBlock, ok := cited[signedHeight]
		if !ok || signedBlock == nil {
			return HeightNotInEraRange(signedHeight)
		}

		signedEra := signedBlock.EraID()
		snap, ok := snapshots[signedEra]
		if !ok {
			if skippedGenesis[signedEra] {
				continue
			}
			return EraIdNotInEraRange(signedEra)
		}

		validators := make([]common.PublicKey, len(snap.Weights))
		for i, wv := range snap.Weights {
			validators[i] = wv.Key
		}
		signers := bitmap.UnpackToSet(bm, validators)

		sortedSigners := make([]common.PublicKey, 0, len(signers))
		for s := range signers {
			sortedSigners = append(sortedSigners, s)
		}
		sort.Slice(sortedSigners, func(i, j int) bool { return sortedSigners[i].Less(sortedSigners[j]) })

		for _, signer := range sortedSigners {
			weight := snap.WeightOf(signer)
			if weight == nil {
				return ValidatorKeyNotInEra(signer, signedEra)
			}
			ratio := WeightRatio(weight, snap.TotalWeight)
			credit := new(Rational).Mul(ratio, e.cfg.ContributionRewardsProportion.Rat())
			credit.Mul(credit, snap.RewardPerRound)
			creditInto(signer, credit)
		}
	}
	return nil
}

// citedRange computes [lo, hi) per §4.C step 1.
func citedRange(startOfEraHeight, relativeHeight, maxDelay uint64) (lo, hi uint64) {
	lo = 0
	if startOfEraHeight > maxDelay+1 {
		lo = startOfEraHeight - maxDelay - 1
	}
	hi = startOfEraHeight + relativeHeight
	return lo, hi
}

// fetchCitedRange fetches every height in [lo, hi) in concurrent batches of
// fetchBatchSize (§4.C step 1, §5 "block fetches for disjoint height ranges
// may proceed concurrently").
func (e *RewardsEngine) fetchCitedRange(ctx context.Context, lo, hi uint64) (map[uint64]Block, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		start   uint64
		blocks  []Block
		err     error
	}
	var batches []uint64
	for start := lo; start < hi; start += fetchBatchSize {
		batches = append(batches, start)
	}

	results := make([]batchResult, len(batches))
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for i, start := range batches {
		end := start + fetchBatchSize
		if end > hi {
			end = hi
		}
		wg.Add(1)
		go func(i int, start, end uint64) {
			defer wg.Done()
			blocks, err := e.collaborator.CollectPastBlocksWithMetadata(ctx, start, end)
			if err != nil {
				once.Do(func() {
					firstErr = &PopulateError{Step: "collect_past_blocks_with_metadata", Hash: common.Hash{}, Err: err}
					cancel()
				})
				return
			}
			results[i] = batchResult{start: start, blocks: blocks}
		}(i, start, end)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	out := make(map[uint64]Block, hi-lo)
	for _, r := range results {
		for i, b := range r.blocks {
			if b != nil {
				out[r.start+uint64(i)] = b
			}
		}
	}
	return out, nil
}

// eraGroup is the cited blocks belonging to one era, in ascending height order.
type eraGroup struct {
	era    common.EraID
	blocks []Block
}

// groupByEra groups cited blocks by era (§4.C step 2).
func groupByEra(cited map[uint64]Block) map[common.EraID]*eraGroup {
	heights := make([]uint64, 0, len(cited))
	for h := range cited {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	groups := make(map[common.EraID]*eraGroup)
	for _, h := range heights {
		b := cited[h]
		g, ok := groups[b.EraID()]
		if !ok {
			g = &eraGroup{era: b.EraID()}
			groups[b.EraID()] = g
		}
		g.blocks = append(g.blocks, b)
	}
	return groups
}

// buildSnapshots builds one EraSnapshot per era group concurrently (§5:
// "anchor lookups are one per era and may also proceed concurrently").
// The anchor for a group is the parent of the last (highest) block in that
// group (§4.C step 2): the last block in an era may be its switch block,
// whose state root commits to the next era's validator set, so its parent
// is used instead. If that parent is the zero hash (genesis has none), the
// era is skipped rather than treated as a fetch failure (§9 open question 2).
func (e *RewardsEngine) buildSnapshots(ctx context.Context, groups map[common.EraID]*eraGroup) (map[common.EraID]*EraSnapshot, map[common.EraID]bool, error) {
	type result struct {
		era     common.EraID
		snap    *EraSnapshot
		skipped bool
		err     error
	}

	cache := NewSnapshotCache(e.collaborator)
	results := make(chan result, len(groups))
	var wg sync.WaitGroup
	for era, g := range groups {
		last := g.blocks[len(g.blocks)-1]
		anchor := last.Parent()
		if anchor == (common.Hash{}) {
			log.Warn("rewards: era anchor is genesis, skipping snapshot", "era", era)
			results <- result{era: era, skipped: true}
			continue
		}
		wg.Add(1)
		go func(era common.EraID, anchor common.Hash) {
			defer wg.Done()
			snap, err := cache.Get(ctx, era, anchor)
			results <- result{era: era, snap: snap, err: err}
		}(era, anchor)
	}
	wg.Wait()
	close(results)

	snapshots := make(map[common.EraID]*EraSnapshot)
	skipped := make(map[common.EraID]bool)
	for r := range results {
		if r.err != nil {
			return nil, nil, r.err
		}
		if r.skipped {
			skipped[r.era] = true
			continue
		}
		snapshots[r.era] = r.snap
	}
	return snapshots, skipped, nil
}

// finalize truncates every ledger entry to a Weight (§4.C step 4).
func finalize(ledger map[common.PublicKey]*Rational) map[common.PublicKey]*Weight {
	out := make(map[common.PublicKey]*Weight, len(ledger))
	keys := make([]common.PublicKey, 0, len(ledger))
	for k := range ledger {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		out[k] = Truncate(ledger[k])
	}
	return out
}
