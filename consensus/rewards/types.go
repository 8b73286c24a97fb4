// Package rewards implements the Era Snapshot Cache and the Rewards Engine:
// the deterministic per-era seigniorage distribution among block proposers
// and finality-signature contributors.
//
// The package is grounded on consensus/dpos's validator-snapshot machinery
// (an immutable, LRU-cached snapshot built from on-chain state, with
// validators kept sorted ascending by key for deterministic iteration) and
// on consensus/dpos's config-validation style for RewardsConfig.
package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/tos-network/consensus-core/common"
	"github.com/tos-network/consensus-core/consensus/bitmap"
)

// Block is the subset of block fields the rewards engine consumes (§6).
// The concrete block type belongs to the out-of-scope storage/executor
// collaborator; this engine only ever calls these six accessors.
type Block interface {
	Height() uint64
	EraID() common.EraID
	Parent() common.Hash
	Proposer() common.PublicKey
	StateRootHash() common.Hash
	// RewardedSignatures returns bitmaps ordered so the k-th entry covers
	// height-1-k. A block may carry fewer entries than the chainspec's
	// SignatureRewardsMaxDelay; callers must not pad or error on a short
	// slice, only stop crediting once it is exhausted.
	RewardedSignatures() []bitmap.Bitmap
}

// Collaborator is the effect-builder contract (§6): the five inbound calls
// the core makes into storage/execution. Every method receives the ctx
// passed to RewardsEngine.RewardsForEra (or SnapshotCache.Get), so
// cancelling that context cancels the outstanding lookups, and a cancelled
// caller never leaves partial state behind (§5).
type Collaborator interface {
	// GetBlockFromStorage returns (block, true, nil) if hash is known,
	// (nil, false, nil) if it is not, or a non-nil error on a transient
	// fetch failure.
	GetBlockFromStorage(ctx context.Context, hash common.Hash) (Block, bool, error)

	// CollectPastBlocksWithMetadata returns one entry per height in
	// [lo, hi), nil where a height is unavailable. len(result) == hi-lo
	// always, even on partial availability.
	CollectPastBlocksWithMetadata(ctx context.Context, lo, hi uint64) ([]Block, error)

	// GetEraValidators returns, for the era validator set committed to by
	// stateRoot, a map of era id to that era's validator weights.
	GetEraValidators(ctx context.Context, stateRoot common.Hash) (map[common.EraID]map[common.PublicKey]*Weight, error)

	// GetTotalSupply returns the total token supply committed to by stateRoot.
	GetTotalSupply(ctx context.Context, stateRoot common.Hash) (*Weight, error)

	// GetRoundSeigniorageRate returns the per-round seigniorage rate
	// committed to by stateRoot, as an exact rational.
	GetRoundSeigniorageRate(ctx context.Context, stateRoot common.Hash) (*Rational, error)
}

// Transient-external errors (§7): surfaced unchanged to the caller, never
// retried inside the engine.
var (
	ErrFailedToFetchBlock           = errors.New("rewards: failed to fetch block")
	ErrFailedToFetchEra             = errors.New("rewards: failed to fetch era validators")
	ErrFailedToFetchTotalSupply     = errors.New("rewards: failed to fetch total supply")
	ErrFailedToFetchSeigniorageRate = errors.New("rewards: failed to fetch seigniorage rate")
)

// ErrNoEraReturned is the integrity error (§7): the execution collaborator
// violated its contract by not returning the requested era at all.
var ErrNoEraReturned = errors.New("rewards: execution engine returned no entry for requested era")

// InvariantError marks the three "should not happen" logic errors (§7):
// unreachable in a correct system, fatal if they ever fire.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string { return e.msg }

// Fatal reports that this error is a consensus fault, never a recoverable
// condition. Callers should treat any InvariantError as halt-worthy.
func (e *InvariantError) Fatal() bool { return true }

func newInvariantError(format string, args ...interface{}) *InvariantError {
	return &InvariantError{msg: fmt.Sprintf("rewards: "+format, args...)}
}

// HeightNotInEraRange is raised when a rewarded-signature bitmap points at a
// height the cited-block fetch did not cover or did not resolve.
func HeightNotInEraRange(height uint64) error {
	return newInvariantError("height %d not in cited block range", height)
}

// EraIdNotInEraRange is raised when a block's era has no corresponding
// snapshot in the set built for this rewards computation.
func EraIdNotInEraRange(era common.EraID) error {
	return newInvariantError("era %s has no snapshot in the cited range", era)
}

// ValidatorKeyNotInEra is raised when a bitmap unpacks to a signer absent
// from that era's validator weight map.
func ValidatorKeyNotInEra(key common.PublicKey, era common.EraID) error {
	return newInvariantError("validator %s not present in era %s", key, era)
}

// PopulateError wraps a transient-external error with the step and hash
// that failed, so a snapshot build can "abort with a typed error naming the
// failing step and the failing hash" (§4.B).
type PopulateError struct {
	Step string
	Hash common.Hash
	Err  error
}

func (e *PopulateError) Error() string {
	return fmt.Sprintf("rewards: %s failed for %s: %v", e.Step, e.Hash, e.Err)
}

func (e *PopulateError) Unwrap() error { return e.Err }
