package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{1.0, TierTraditional},
		{1.5, TierTraditional},
		{1.7, TierTraditional},
		{1.79, TierTraditional},
		{1.8, TierAssisted},
		{2.0, TierAssisted},
		{2.4, TierAssisted},
		{2.49, TierAssisted},
		{2.5, TierAugmented},
		{3.0, TierAugmented},
		{3.2, TierAugmented},
		{3.29, TierAugmented},
		{3.3, TierFirst},
		{3.7, TierFirst},
		{4.0, TierFirst},
	}

	for _, tt := range tests {
		got := Classify(tt.score)
		assert.Equal(t, tt.want, got, "Classify(%v)", tt.score)
	}
}

func TestDetails(t *testing.T) {
	for _, tier := range AllTiers() {
		d := Details(tier)
		assert.Equal(t, tier, d.Tier)
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.ShortLabel)
		assert.NotEmpty(t, d.Description)
		assert.NotEmpty(t, d.Characteristics)
		assert.Less(t, d.MinScore, d.MaxScore)
	}
}

func TestTierBandsCoverScoreRange(t *testing.T) {
	tiers := AllTiers()
	require.Len(t, tiers, 4)

	first := Details(tiers[0])
	last := Details(tiers[len(tiers)-1])
	assert.InDelta(t, 1.0, first.MinScore, 1e-9)
	assert.InDelta(t, 4.0, last.MaxScore, 1e-9)

	// Display bands run at one decimal, so each band starts 0.1 above
	// the previous one's end.
	for i := 1; i < len(tiers); i++ {
		prev := Details(tiers[i-1])
		cur := Details(tiers[i])
		assert.InDelta(t, prev.MaxScore+0.1, cur.MinScore, 1e-9,
			"band gap between %s and %s", tiers[i-1], tiers[i])
	}

	// The classifier switches tiers exactly at each band's MinScore.
	for _, tier := range tiers {
		d := Details(tier)
		assert.Equal(t, tier, Classify(d.MinScore))
		assert.Equal(t, tier, Classify(d.MaxScore))
	}
}

func TestRounding(t *testing.T) {
	assert.InDelta(t, 2.38, Round2(2.375), 1e-9)
	assert.InDelta(t, 2.38, Round2(2.378), 1e-9)
	assert.InDelta(t, 3.14, Round2(3.14159), 1e-9)
	assert.InDelta(t, 1.33, Round2(4.0/3.0), 1e-9)
	assert.InDelta(t, 2.0, Round2(2.0), 1e-9)

	assert.InDelta(t, 33.3, Round1(100.0/3.0), 1e-9)
	assert.InDelta(t, 66.7, Round1(200.0/3.0), 1e-9)
	assert.InDelta(t, 80.0, Round1(80.0), 1e-9)
	assert.InDelta(t, 0.0, Round1(0.0), 1e-9)
}

func TestClampScore(t *testing.T) {
	assert.InDelta(t, 1.0, clampScore(0.2), 1e-9)
	assert.InDelta(t, 4.0, clampScore(4.7), 1e-9)
	assert.InDelta(t, 2.5, clampScore(2.5), 1e-9)
}
