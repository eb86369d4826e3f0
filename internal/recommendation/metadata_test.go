package recommendation

import (
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afs-framework/backend/internal/catalog"
)

func toks(words ...string) []prose.Token {
	out := make([]prose.Token, 0, len(words))
	for _, w := range words {
		out = append(out, prose.Token{Text: w})
	}
	return out
}

func TestEffortWeeks(t *testing.T) {
	tests := []struct {
		timeline string
		recType  string
		want     int
	}{
		{"2-4 weeks", TypeQuickWin, 4},
		{"2-3 months", TypeStrategic, 12},
		{"6 weeks", TypeFoundational, 6},
		{"1 month", TypeQuickWin, 4},
		{"3 - 4 Months", TypeStrategic, 16},
		{"about 6 months of work", TypeTransformational, 24},
		{"", TypeQuickWin, 2},
		{"", TypeFoundational, 8},
		{"soon", TypeStrategic, 16},
		{"ongoing", TypeTransformational, 24},
	}

	for _, tt := range tests {
		got := effortWeeks(tt.timeline, tt.recType)
		assert.Equal(t, tt.want, got, "effortWeeks(%q, %s)", tt.timeline, tt.recType)
	}
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name        string
		tokens      []prose.Token
		targetLevel int
		want        string
	}{
		{
			name:   "quick win keywords",
			tokens: toks("Install", "the", "plugin", "and", "license", "a", "pilot"),
			want:   TypeQuickWin,
		},
		{
			name:   "transformational keywords",
			tokens: toks("Executive", "sponsorship", "anchors", "the", "culture", "portfolio"),
			want:   TypeTransformational,
		},
		{
			name:   "majority wins on mixed text",
			tokens: toks("integrate", "the", "workflow", "and", "standardize", "it", "then", "install"),
			want:   TypeStrategic,
		},
		{
			name:        "no keywords falls back by target level 2",
			tokens:      toks("some", "plain", "words"),
			targetLevel: 2,
			want:        TypeFoundational,
		},
		{
			name:        "no keywords falls back by target level 3",
			tokens:      toks("some", "plain", "words"),
			targetLevel: 3,
			want:        TypeStrategic,
		},
		{
			name:        "no keywords falls back by target level 4",
			tokens:      toks("some", "plain", "words"),
			targetLevel: 4,
			want:        TypeTransformational,
		},
		{
			name:        "empty tokens",
			tokens:      nil,
			targetLevel: 3,
			want:        TypeStrategic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyType(tt.tokens, tt.targetLevel)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotateMath(t *testing.T) {
	rule := &catalog.ProgressionRule{
		AreaID:        "alpha",
		TargetLevel:   3,
		Prerequisites: []string{"Quarterly budget sign-off"},
		ActionItems: []catalog.ActionGroup{
			{Category: "Next step", Items: []string{"Ship the next capability wave"}},
		},
		SuccessMetrics: []string{"Usage holds across the quarter"},
		Timeline:       "2-3 months",
	}
	rec := &Recommendation{
		AreaID:           "alpha",
		CurrentScore:     2.0,
		CurrentLevel:     2,
		TargetLevel:      3,
		ScoreImprovement: 1.0,
	}

	annotate(rec, rule, 2.5)

	// Impact (4-2)/3*10, feasibility (5-3)/3*10, urgency 5+(2.5-2)*2.5,
	// priority 0.4I+0.4F+0.2U, rank 0.4P+0.3I+0.2F+0.1*improvement.
	assert.InDelta(t, 6.67, rec.Impact, 1e-9)
	assert.InDelta(t, 6.67, rec.Feasibility, 1e-9)
	assert.InDelta(t, 6.25, rec.Urgency, 1e-9)
	assert.InDelta(t, 6.59, rec.Priority, 1e-9)
	assert.InDelta(t, 6.07, rec.RankScore, 1e-9)
	assert.Equal(t, 12, rec.EffortWeeks)
	assert.NotEmpty(t, rec.Type)
}

func TestAnnotateUrgencyBounds(t *testing.T) {
	rule := &catalog.ProgressionRule{Timeline: "2 weeks"}

	// An area far above the overall score bottoms out at zero urgency.
	ahead := &Recommendation{CurrentScore: 4.0, TargetLevel: 4}
	annotate(ahead, rule, 1.0)
	assert.InDelta(t, 0.0, ahead.Urgency, 1e-9)

	// An area far below it saturates at ten.
	behind := &Recommendation{CurrentScore: 1.0, TargetLevel: 2}
	annotate(behind, rule, 4.0)
	assert.InDelta(t, 10.0, behind.Urgency, 1e-9)
}

func TestClampTen(t *testing.T) {
	assert.InDelta(t, 0.0, clampTen(-1.5), 1e-9)
	assert.InDelta(t, 10.0, clampTen(12.5), 1e-9)
	assert.InDelta(t, 7.33, clampTen(7.333), 1e-9)
}

func TestExtractTags(t *testing.T) {
	// "team" is a stopword, "API" is too short, the second "Training"
	// is a duplicate, and "quickly" is not a noun.
	tokens := []prose.Token{
		{Text: "Training", Tag: "NN"},
		{Text: "team", Tag: "NN"},
		{Text: "API", Tag: "NNP"},
		{Text: "pipeline", Tag: "NN"},
		{Text: "Training", Tag: "NNP"},
		{Text: "quickly", Tag: "RB"},
		{Text: "governance", Tag: "NNS"},
	}

	tags := extractTags(tokens)
	assert.Equal(t, []string{"training", "pipeline", "governance"}, tags)
}

func TestExtractTagsCapped(t *testing.T) {
	words := []string{
		"adoption", "rollout", "telemetry", "dashboard", "retrospective",
		"library", "baseline", "coverage", "latency", "budget",
	}
	tokens := make([]prose.Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, prose.Token{Text: w, Tag: "NN"})
	}

	tags := extractTags(tokens)
	require.Len(t, tags, 8)
	assert.Equal(t, words[:8], tags)
}

func TestRuleText(t *testing.T) {
	rule := &catalog.ProgressionRule{
		Prerequisites: []string{"Budget approved"},
		ActionItems: []catalog.ActionGroup{
			{Category: "Rollout", Items: []string{"Install the assistant"}},
		},
		SuccessMetrics: []string{"Adoption above eighty percent"},
	}

	text := ruleText(rule)
	assert.Contains(t, text, "Budget approved")
	assert.Contains(t, text, "Rollout")
	assert.Contains(t, text, "Install the assistant")
	assert.Contains(t, text, "Adoption above eighty percent")
}

func TestTokenize(t *testing.T) {
	assert.Nil(t, tokenize(""))
	assert.Nil(t, tokenize("   "))

	tokens := tokenize("Install the assistant. Measure adoption weekly.")
	require.NotEmpty(t, tokens)

	seen := map[string]bool{}
	for _, tok := range tokens {
		seen[tok.Text] = true
	}
	assert.True(t, seen["Install"])
	assert.True(t, seen["Measure"])
}
