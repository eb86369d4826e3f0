package scoring

import "math"

// Tier is the canonical maturity classification label, persisted as-is.
type Tier string

const (
	TierTraditional Tier = "Traditional"
	TierAssisted    Tier = "AI-Assisted"
	TierAugmented   Tier = "AI-Augmented"
	TierFirst       Tier = "AI-First"
)

// TierDetails carries the display metadata for one maturity tier.
// MinScore/MaxScore are the one-decimal display band edges.
type TierDetails struct {
	Tier            Tier
	Name            string
	ShortLabel      string
	Description     string
	Characteristics []string
	MinScore        float64
	MaxScore        float64
}

var tierDetails = map[Tier]TierDetails{
	TierTraditional: {
		Tier:        TierTraditional,
		Name:        "Traditional Development",
		ShortLabel:  "Basic",
		Description: "Manual development processes with little or no AI assistance.",
		Characteristics: []string{
			"Manual code writing and review",
			"Conventional testing practices",
			"Limited or experimental AI tool usage",
			"Adoption driven by individual initiative",
		},
		MinScore: 1.0,
		MaxScore: 1.7,
	},
	TierAssisted: {
		Tier:        TierAssisted,
		Name:        "AI-Assisted Development",
		ShortLabel:  "Developing",
		Description: "Teams use AI coding assistants for individual productivity.",
		Characteristics: []string{
			"AI code completion in daily use",
			"Ad hoc prompting practices",
			"Individual productivity gains",
			"Informal sharing of techniques",
		},
		MinScore: 1.8,
		MaxScore: 2.4,
	},
	TierAugmented: {
		Tier:        TierAugmented,
		Name:        "AI-Augmented Development",
		ShortLabel:  "Advanced",
		Description: "AI is embedded across the development lifecycle with team-level standards.",
		Characteristics: []string{
			"AI integrated into review and testing",
			"Shared prompt libraries and standards",
			"Measured productivity impact",
			"Cross-team knowledge sharing",
		},
		MinScore: 2.5,
		MaxScore: 3.2,
	},
	TierFirst: {
		Tier:        TierFirst,
		Name:        "AI-First Development",
		ShortLabel:  "Optimized",
		Description: "AI drives development workflows end to end with governance and continuous optimization.",
		Characteristics: []string{
			"AI-native workflows by default",
			"Enterprise governance and guardrails",
			"Continuous measurement and optimization",
			"Strategic advantage from AI capability",
		},
		MinScore: 3.3,
		MaxScore: 4.0,
	},
}

// Classify bands an overall score into its maturity tier. Bands are
// half-open on the raw score, so every value in [1.0, 4.0] lands in
// exactly one tier and one-decimal boundary values (1.7, 1.8, 2.4, 2.5,
// 3.2, 3.3) stay deterministic.
func Classify(score float64) Tier {
	switch {
	case score >= 3.3:
		return TierFirst
	case score >= 2.5:
		return TierAugmented
	case score >= 1.8:
		return TierAssisted
	default:
		return TierTraditional
	}
}

// Details returns the display metadata for a tier.
func Details(t Tier) TierDetails {
	return tierDetails[t]
}

// AllTiers lists the tiers in ascending maturity order.
func AllTiers() []Tier {
	return []Tier{TierTraditional, TierAssisted, TierAugmented, TierFirst}
}

// Round2 rounds to two decimals, the precision used for persisted
// overall scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to one decimal, the precision used for display scores
// and completion percentages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampScore(v float64) float64 {
	if v < 1.0 {
		return 1.0
	}
	if v > 4.0 {
		return 4.0
	}
	return v
}
