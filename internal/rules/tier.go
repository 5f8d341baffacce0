package rules

// Tier maps a minimum total score to a recommendation.
type Tier struct {
	Name     string  `json:"name" yaml:"name"`
	MinScore float64 `json:"minScore" yaml:"minScore"`
	Text     string  `json:"text" yaml:"text"`
}

// Tier names.
const (
	TierStrong       = "strong"
	TierSatisfactory = "satisfactory"
	TierAverage      = "average"
	TierHighRisk     = "high-risk"
)

// DefaultTiers returns the recommendation tiers, highest first.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: TierStrong, MinScore: 75, Text: "Strong profile: loan recommended on standard terms."},
		{Name: TierSatisfactory, MinScore: 50, Text: "Satisfactory profile: loan recommended with regular monitoring."},
		{Name: TierAverage, MinScore: 30, Text: "Average profile: loan possible, additional collateral recommended."},
		{Name: TierHighRisk, MinScore: 0, Text: "High-risk profile: loan limited or not advised without substantial collateral."},
	}
}

// SelectTier returns the first tier whose MinScore is at most score.
// Tiers must be ordered highest first. Scores below every tier, and NaN,
// fall into the last tier.
func SelectTier(score float64, tiers []Tier) Tier {
	if len(tiers) == 0 {
		return Tier{}
	}
	for _, t := range tiers {
		if score >= t.MinScore {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
