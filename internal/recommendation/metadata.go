package recommendation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/pkg/logger"
)

// Recommendation types, roughly ordered by the size of the change they
// ask of a team.
const (
	TypeQuickWin         = "quick_win"
	TypeFoundational     = "foundational"
	TypeStrategic        = "strategic"
	TypeTransformational = "transformational"
)

var typeOrder = []string{TypeQuickWin, TypeFoundational, TypeStrategic, TypeTransformational}

var typeKeywords = map[string][]string{
	TypeQuickWin:         {"install", "enable", "license", "pilot", "trial", "activate", "configure"},
	TypeFoundational:     {"training", "adopt", "baseline", "document", "onboard", "establish", "learn"},
	TypeStrategic:        {"integrate", "pipeline", "process", "workflow", "standardize", "measure", "automate"},
	TypeTransformational: {"culture", "organization", "executive", "portfolio", "transform", "strategy", "governance"},
}

// defaultEffortWeeks applies when a rule carries no parseable timeline.
var defaultEffortWeeks = map[string]int{
	TypeQuickWin:         2,
	TypeFoundational:     8,
	TypeStrategic:        16,
	TypeTransformational: 24,
}

var timelinePattern = regexp.MustCompile(`(?i)(\d+)(?:\s*-\s*(\d+))?\s*(week|month)`)

var tagStopwords = map[string]struct{}{
	"team":  {}, "teams": {}, "level": {}, "levels": {}, "area": {}, "areas": {},
	"time": {}, "usage": {}, "percent": {}, "month": {}, "months": {}, "week": {}, "weeks": {},
}

// annotate derives the presentation metadata for one recommendation:
// its type, priority breakdown, effort estimate, and tags.
func annotate(rec *Recommendation, rule *catalog.ProgressionRule, overall float64) {
	tokens := tokenize(ruleText(rule))

	rec.Type = classifyType(tokens, rec.TargetLevel)
	rec.Impact = clampTen((4 - rec.CurrentScore) / 3 * 10)
	rec.Feasibility = clampTen(float64(5-rec.TargetLevel) / 3 * 10)
	rec.Urgency = clampTen(5 + (overall-rec.CurrentScore)*2.5)
	rec.Priority = scoring.Round2(rec.Impact*0.4 + rec.Feasibility*0.4 + rec.Urgency*0.2)
	rec.EffortWeeks = effortWeeks(rule.Timeline, rec.Type)
	rec.Tags = extractTags(tokens)
	rec.RankScore = scoring.Round2(rec.Priority*0.4 + rec.Impact*0.3 + rec.Feasibility*0.2 + rec.ScoreImprovement*0.1)
}

func ruleText(rule *catalog.ProgressionRule) string {
	var b strings.Builder
	for _, p := range rule.Prerequisites {
		b.WriteString(p)
		b.WriteString(". ")
	}
	for _, g := range rule.ActionItems {
		b.WriteString(g.Category)
		b.WriteString(". ")
		for _, item := range g.Items {
			b.WriteString(item)
			b.WriteString(". ")
		}
	}
	for _, m := range rule.SuccessMetrics {
		b.WriteString(m)
		b.WriteString(". ")
	}
	return b.String()
}

// tokenize runs the rule text through prose for tokens with POS tags.
// Falls back to whitespace splitting if the document cannot be built.
func tokenize(text string) []prose.Token {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		logger.Warn("Failed to tokenize rule text", zap.Error(err))
		tokens := make([]prose.Token, 0)
		for _, w := range strings.Fields(text) {
			tokens = append(tokens, prose.Token{Text: w})
		}
		return tokens
	}
	return doc.Tokens()
}

func classifyType(tokens []prose.Token, targetLevel int) string {
	words := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		words[strings.ToLower(tok.Text)]++
	}

	best := ""
	bestHits := 0
	for _, t := range typeOrder {
		hits := 0
		for _, kw := range typeKeywords[t] {
			hits += words[kw]
		}
		if hits > bestHits {
			best = t
			bestHits = hits
		}
	}
	if best != "" {
		return best
	}

	switch targetLevel {
	case 2:
		return TypeFoundational
	case 4:
		return TypeTransformational
	default:
		return TypeStrategic
	}
}

// effortWeeks converts a timeline like "2-3 months" into weeks, taking
// the upper bound of a range. Unparseable timelines fall back to the
// per-type defaults.
func effortWeeks(timeline, recType string) int {
	m := timelinePattern.FindStringSubmatch(timeline)
	if m == nil {
		return defaultEffortWeeks[recType]
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultEffortWeeks[recType]
	}
	if m[2] != "" {
		if upper, err := strconv.Atoi(m[2]); err == nil {
			n = upper
		}
	}
	if strings.EqualFold(m[3], "month") {
		n *= 4
	}
	return n
}

// extractTags keeps the nouns prose finds in the rule text, lowercased
// and deduplicated in first-seen order, capped at eight.
func extractTags(tokens []prose.Token) []string {
	const maxTags = 8

	var tags []string
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		word := strings.ToLower(tok.Text)
		if len(word) < 4 {
			continue
		}
		if _, skip := tagStopwords[word]; skip {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, word)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func clampTen(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return scoring.Round2(v)
}
