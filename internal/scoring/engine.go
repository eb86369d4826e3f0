// Package scoring turns a set of per-question scores into area, section,
// and overall maturity scores plus a tier classification. Everything here
// is pure computation over an immutable catalog snapshot.
package scoring

import (
	"errors"

	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/pkg/logger"
)

// ErrNotScoreable signals an assessment with no usable responses. It is
// an explicit result state, never reported as a zero score.
var ErrNotScoreable = errors.New("assessment has no scoreable responses")

// SubstantialThreshold is the minimum completion percentage for
// finalizing an assessment without forcing.
const SubstantialThreshold = 80.0

// AreaScore is the mean of an area's answered active questions.
type AreaScore struct {
	AreaID    string
	SectionID string
	Name      string
	Score     float64
	Answered  int
	Questions int
}

// SectionScore is the mean of a section's scored areas. Unscored areas
// are excluded from the mean, not counted as zero.
type SectionScore struct {
	SectionID string
	Name      string
	Score     float64
	Scored    int
	Areas     int
}

// SkippedResponse records a response that was excluded from scoring.
type SkippedResponse struct {
	QuestionID string
	Reason     string
}

// Result is the outcome of one scoring pass.
type Result struct {
	Overall              float64
	Classification       Tier
	ImprovementPotential float64
	AreaScores           []AreaScore
	SectionScores        []SectionScore
	Skipped              []SkippedResponse
	Completion           Completion

	areasByID map[string]AreaScore
}

// AreaScore looks up a scored area; ok is false when the area had no
// responses.
func (r *Result) AreaScore(areaID string) (AreaScore, bool) {
	s, ok := r.areasByID[areaID]
	return s, ok
}

// Completion describes how much of the questionnaire has been answered.
type Completion struct {
	Answered      int
	Total         int
	Percent       float64
	IsComplete    bool
	IsSubstantial bool
	Sections      []SectionCompletion
}

type SectionCompletion struct {
	SectionID string
	Name      string
	Answered  int
	Total     int
	Percent   float64
}

// ComputeScores aggregates responses (question id -> score) into area,
// section, and overall scores and classifies the result. Areas and
// sections keep the catalog's canonical order. Responses that cannot be
// scored are collected in Result.Skipped rather than failing the pass.
func ComputeScores(responses map[string]int, cat *catalog.Catalog) (*Result, error) {
	result := &Result{
		areasByID: make(map[string]AreaScore),
	}

	matched := make(map[string]int, len(responses))
	for _, area := range cat.AllAreas() {
		var sum, answered int
		questions := cat.Questions(area.ID, true)
		for _, q := range questions {
			score, ok := responses[q.ID]
			if !ok {
				continue
			}
			if score < 1 || score > 4 {
				// Ingestion rejects these; stored data can still be off.
				logger.Warn("Clamping out-of-range response score",
					zap.String("question_id", q.ID),
					zap.Int("score", score),
				)
				if score < 1 {
					score = 1
				} else {
					score = 4
				}
			}
			sum += score
			answered++
			matched[q.ID] = score
		}

		if answered == 0 {
			continue
		}

		as := AreaScore{
			AreaID:    area.ID,
			SectionID: area.SectionID,
			Name:      area.Name,
			Score:     float64(sum) / float64(answered),
			Answered:  answered,
			Questions: len(questions),
		}
		result.AreaScores = append(result.AreaScores, as)
		result.areasByID[area.ID] = as
	}

	for qid := range responses {
		if _, ok := matched[qid]; ok {
			continue
		}
		reason := "unknown question"
		if q, ok := cat.Question(qid); ok && !q.Active {
			reason = "inactive question"
		}
		logger.Warn("Skipping response",
			zap.String("question_id", qid),
			zap.String("reason", reason),
		)
		result.Skipped = append(result.Skipped, SkippedResponse{QuestionID: qid, Reason: reason})
	}

	if len(result.AreaScores) == 0 {
		return nil, ErrNotScoreable
	}

	var overallSum float64
	var scoredSections int
	for _, section := range cat.Sections() {
		areas := cat.Areas(section.ID)
		var sum float64
		var scored int
		for _, area := range areas {
			if as, ok := result.areasByID[area.ID]; ok {
				sum += as.Score
				scored++
			}
		}
		if scored == 0 {
			continue
		}
		ss := SectionScore{
			SectionID: section.ID,
			Name:      section.Name,
			Score:     sum / float64(scored),
			Scored:    scored,
			Areas:     len(areas),
		}
		result.SectionScores = append(result.SectionScores, ss)
		overallSum += ss.Score
		scoredSections++
	}

	result.Overall = Round2(clampScore(overallSum / float64(scoredSections)))
	result.Classification = Classify(result.Overall)
	result.ImprovementPotential = Round2(4.0 - result.Overall)
	if result.ImprovementPotential < 0 {
		result.ImprovementPotential = 0
	}
	result.Completion = ComputeCompletion(responses, cat)

	return result, nil
}

// ComputeCompletion counts answered active questions overall and per
// section. It only considers responses that map to active catalog
// questions, so stray or stale responses never inflate progress.
func ComputeCompletion(responses map[string]int, cat *catalog.Catalog) Completion {
	completion := Completion{
		Total: cat.ActiveQuestionCount(),
	}

	for _, section := range cat.Sections() {
		sc := SectionCompletion{
			SectionID: section.ID,
			Name:      section.Name,
		}
		for _, area := range cat.Areas(section.ID) {
			for _, q := range cat.Questions(area.ID, true) {
				sc.Total++
				if _, ok := responses[q.ID]; ok {
					sc.Answered++
				}
			}
		}
		if sc.Total > 0 {
			sc.Percent = Round1(float64(sc.Answered) / float64(sc.Total) * 100)
		}
		completion.Answered += sc.Answered
		completion.Sections = append(completion.Sections, sc)
	}

	if completion.Total > 0 {
		completion.Percent = Round1(float64(completion.Answered) / float64(completion.Total) * 100)
	}
	completion.IsComplete = completion.Percent >= 100
	completion.IsSubstantial = completion.Percent >= SubstantialThreshold

	return completion
}
