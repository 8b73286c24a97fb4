// Package params holds the chainspec parameters the rewards engine reads:
// the signature-rewards delay bound and the three reward proportions, not
// the full EVM-style chain config (genesis hashes, hard-fork schedule) a
// general-purpose chain config would also carry.
package params

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Ratio64 is a non-negative rational with uint64 numerator and denominator,
// the wire shape of a chainspec-configured Ratio<u64>.
type Ratio64 struct {
	Num   uint64 `json:"num"`
	Denom uint64 `json:"denom"`
}

// Rat returns the ratio as an exact math/big.Rat.
func (r Ratio64) Rat() *big.Rat {
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(r.Num), new(big.Int).SetUint64(r.Denom))
}

func (r Ratio64) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Denom)
}

// RewardsConfig is the consensus engine config for the rewards engine. The
// three proportions are not required to sum to 1; any unallocated fraction
// is simply never distributed.
type RewardsConfig struct {
	SignatureRewardsMaxDelay      uint64  `json:"signatureRewardsMaxDelay"`
	ProductionRewardsProportion   Ratio64 `json:"productionRewardsProportion"`
	CollectionRewardsProportion   Ratio64 `json:"collectionRewardsProportion"`
	ContributionRewardsProportion Ratio64 `json:"contributionRewardsProportion"`
}

// NewRewardsConfig validates and returns a RewardsConfig.
func NewRewardsConfig(maxDelay uint64, production, collection, contribution Ratio64) (*RewardsConfig, error) {
	cfg := &RewardsConfig{
		SignatureRewardsMaxDelay:      maxDelay,
		ProductionRewardsProportion:   production,
		CollectionRewardsProportion:   collection,
		ContributionRewardsProportion: contribution,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RewardsConfig) validate() error {
	for name, r := range map[string]Ratio64{
		"productionRewardsProportion":   c.ProductionRewardsProportion,
		"collectionRewardsProportion":   c.CollectionRewardsProportion,
		"contributionRewardsProportion": c.ContributionRewardsProportion,
	} {
		if r.Denom == 0 {
			return fmt.Errorf("params: %s has zero denominator", name)
		}
	}
	return nil
}

// UnmarshalJSON validates the decoded config before accepting it, rejecting
// a zero-denominator proportion the same way a malformed seal config would
// be rejected at decode time rather than at first use.
func (c *RewardsConfig) UnmarshalJSON(input []byte) error {
	type rewardsConfigAlias RewardsConfig
	var dec rewardsConfigAlias
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	out := RewardsConfig(dec)
	if err := out.validate(); err != nil {
		return err
	}
	*c = out
	return nil
}

func (c *RewardsConfig) String() string {
	return fmt.Sprintf("{maxDelay: %d, production: %s, collection: %s, contribution: %s}",
		c.SignatureRewardsMaxDelay, c.ProductionRewardsProportion, c.CollectionRewardsProportion, c.ContributionRewardsProportion)
}
