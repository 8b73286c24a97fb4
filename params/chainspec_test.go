package params

import "testing"

func TestNewRewardsConfigRejectsZeroDenominator(t *testing.T) {
	_, err := NewRewardsConfig(1, Ratio64{Num: 1, Denom: 0}, Ratio64{Num: 1, Denom: 4}, Ratio64{Num: 1, Denom: 4})
	if err == nil {
		t.Fatal("expected error for zero denominator")
	}
}

func TestNewRewardsConfigHalvesProportion(t *testing.T) {
	cfg, err := NewRewardsConfig(0,
		Ratio64{Num: 1, Denom: 2},
		Ratio64{Num: 1, Denom: 4},
		Ratio64{Num: 1, Denom: 4},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.ProductionRewardsProportion.Rat().RatString(); got != "1/2" {
		t.Fatalf("production ratio = %s, want 1/2", got)
	}
}

func TestUnmarshalJSONRejectsZeroDenominator(t *testing.T) {
	var cfg RewardsConfig
	bad := []byte(`{"signatureRewardsMaxDelay":1,"productionRewardsProportion":{"num":1,"denom":0},"collectionRewardsProportion":{"num":1,"denom":4},"contributionRewardsProportion":{"num":1,"denom":4}}`)
	if err := cfg.UnmarshalJSON(bad); err == nil {
		t.Fatal("expected error for zero denominator")
	}
}
