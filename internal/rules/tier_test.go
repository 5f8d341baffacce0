package rules

import (
	"math"
	"testing"
)

func TestSelectTier(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		score float64
		want  string
	}{
		{100, TierStrong},
		{75, TierStrong},
		{74.99, TierSatisfactory},
		{50, TierSatisfactory},
		{49.9, TierAverage},
		{30, TierAverage},
		{29.99, TierHighRisk},
		{0, TierHighRisk},
		{-5, TierHighRisk},
		{math.NaN(), TierHighRisk},
	}

	for _, tt := range tests {
		got := SelectTier(tt.score, tiers)
		if got.Name != tt.want {
			t.Errorf("SelectTier(%v) = %s, want %s", tt.score, got.Name, tt.want)
		}
	}
}

func TestSelectTierEmpty(t *testing.T) {
	if got := SelectTier(80, nil); got.Name != "" {
		t.Errorf("expected zero tier, got %+v", got)
	}
}
