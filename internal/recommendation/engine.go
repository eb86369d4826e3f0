// Package recommendation selects and ranks next-level roadmap entries
// from the progression knowledge base, given a scored assessment.
package recommendation

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/pkg/logger"
)

// Recommendation is one area's next-step roadmap entry.
type Recommendation struct {
	AreaID      string
	AreaName    string
	SectionID   string
	SectionName string

	CurrentScore float64
	CurrentLevel int
	TargetLevel  int

	Prerequisites  []string
	ActionItems    []catalog.ActionGroup
	SuccessMetrics []string
	Timeline       string
	CommonPitfall  string

	Type             string
	Priority         float64
	Impact           float64
	Feasibility      float64
	Urgency          float64
	EffortWeeks      int
	Tags             []string
	ScoreImprovement float64
	RankScore        float64
}

// SelectRecommendations produces one roadmap entry per scored area below
// level 4, ordered by ascending area score. Ties keep the catalog's
// static display order. Unscored areas are skipped, as are areas whose
// progression rule is missing from the knowledge base.
func SelectRecommendations(result *scoring.Result, cat *catalog.Catalog) []Recommendation {
	recs := make([]Recommendation, 0, len(result.AreaScores))

	for _, area := range cat.AllAreas() {
		as, ok := result.AreaScore(area.ID)
		if !ok {
			continue
		}

		current := CurrentLevel(as.Score)
		if current >= 4 {
			continue
		}
		target := current + 1

		rule, ok := cat.Rule(area.ID, target)
		if !ok {
			logger.Warn("No progression rule for area",
				zap.String("area_id", area.ID),
				zap.Int("target_level", target),
			)
			continue
		}

		section, _ := cat.Section(area.SectionID)

		rec := Recommendation{
			AreaID:           area.ID,
			AreaName:         area.Name,
			SectionID:        area.SectionID,
			CurrentScore:     as.Score,
			CurrentLevel:     current,
			TargetLevel:      target,
			Prerequisites:    rule.Prerequisites,
			ActionItems:      rule.ActionItems,
			SuccessMetrics:   rule.SuccessMetrics,
			Timeline:         rule.Timeline,
			CommonPitfall:    rule.CommonPitfall,
			ScoreImprovement: scoring.Round2(float64(target) - as.Score),
		}
		if section != nil {
			rec.SectionName = section.Name
		}

		annotate(&rec, rule, result.Overall)
		recs = append(recs, rec)
	}

	// Iteration above follows static display order, so a stable sort on
	// score alone keeps that order for ties.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CurrentScore < recs[j].CurrentScore
	})

	return recs
}

// CurrentLevel maps an area score to the level the area has fully
// reached: the floor of the score, clipped to [1, 4]. A score of
// exactly 2.5 is level 2 and targets level 3.
func CurrentLevel(score float64) int {
	level := int(math.Floor(score))
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return level
}
