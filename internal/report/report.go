// Package report shapes scored assessments into the single result
// structure persisted as results_json and served to clients. Nothing
// here computes scores; upstream values pass through as-is.
package report

import (
	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/recommendation"
	"github.com/afs-framework/backend/internal/scoring"
)

// Meta is the assessment context stamped onto a report.
type Meta struct {
	AssessmentID string
	TeamName     string
	GeneratedAt  int64
}

type Report struct {
	AssessmentID         string         `json:"assessment_id"`
	TeamName             string         `json:"team_name,omitempty"`
	GeneratedAt          int64          `json:"generated_at"`
	OverallScore         float64        `json:"overall_score"`
	Classification       TierInfo       `json:"classification"`
	ImprovementPotential float64        `json:"improvement_potential"`
	Completion           CompletionInfo `json:"completion"`
	Sections             []SectionBlock `json:"sections"`
	Recommendations      []Entry        `json:"recommendations"`
	SkippedResponses     []Skipped      `json:"skipped_responses,omitempty"`
}

type TierInfo struct {
	Tier            string   `json:"tier"`
	Name            string   `json:"name"`
	ShortLabel      string   `json:"short_label"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	MinScore        float64  `json:"min_score"`
	MaxScore        float64  `json:"max_score"`
}

type CompletionInfo struct {
	Answered      int                 `json:"answered"`
	Total         int                 `json:"total"`
	Percent       float64             `json:"percent"`
	IsComplete    bool                `json:"is_complete"`
	IsSubstantial bool                `json:"is_substantial"`
	Sections      []SectionCompletion `json:"sections"`
}

type SectionCompletion struct {
	SectionID string  `json:"section_id"`
	Name      string  `json:"name"`
	Answered  int     `json:"answered"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// SectionBlock groups one section's scores and its slice of the
// prioritized roadmap.
type SectionBlock struct {
	SectionID       string      `json:"section_id"`
	Name            string      `json:"name"`
	Score           float64     `json:"score"`
	Scored          bool        `json:"scored"`
	AreasScored     int         `json:"areas_scored"`
	AreasTotal      int         `json:"areas_total"`
	Areas           []AreaBlock `json:"areas"`
	Recommendations []Entry     `json:"recommendations"`
}

type AreaBlock struct {
	AreaID       string  `json:"area_id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Scored       bool    `json:"scored"`
	CurrentLevel int     `json:"current_level"`
	Answered     int     `json:"answered"`
	Questions    int     `json:"questions"`
}

// Entry is one roadmap recommendation as presented to clients.
type Entry struct {
	AreaID           string                `json:"area_id"`
	AreaName         string                `json:"area_name"`
	SectionID        string                `json:"section_id"`
	SectionName      string                `json:"section_name"`
	CurrentScore     float64               `json:"current_score"`
	CurrentLevel     int                   `json:"current_level"`
	TargetLevel      int                   `json:"target_level"`
	Type             string                `json:"type"`
	Priority         float64               `json:"priority"`
	Impact           float64               `json:"impact"`
	Feasibility      float64               `json:"feasibility"`
	Urgency          float64               `json:"urgency"`
	EffortWeeks      int                   `json:"effort_weeks"`
	Tags             []string              `json:"tags,omitempty"`
	ScoreImprovement float64               `json:"score_improvement"`
	RankScore        float64               `json:"rank_score"`
	Prerequisites    []string              `json:"prerequisites"`
	ActionItems      []catalog.ActionGroup `json:"action_items"`
	SuccessMetrics   []string              `json:"success_metrics"`
	Timeline         string                `json:"timeline"`
	CommonPitfall    string                `json:"common_pitfall"`
}

type Skipped struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// Assemble combines a score result and its recommendations into the
// report shape. Area and section scores display at one decimal; the
// overall score keeps the two-decimal precision it was computed at.
func Assemble(result *scoring.Result, recs []recommendation.Recommendation, cat *catalog.Catalog, meta Meta) *Report {
	details := scoring.Details(result.Classification)

	rep := &Report{
		AssessmentID: meta.AssessmentID,
		TeamName:     meta.TeamName,
		GeneratedAt:  meta.GeneratedAt,
		OverallScore: result.Overall,
		Classification: TierInfo{
			Tier:            string(details.Tier),
			Name:            details.Name,
			ShortLabel:      details.ShortLabel,
			Description:     details.Description,
			Characteristics: details.Characteristics,
			MinScore:        details.MinScore,
			MaxScore:        details.MaxScore,
		},
		ImprovementPotential: result.ImprovementPotential,
		Completion: CompletionInfo{
			Answered:      result.Completion.Answered,
			Total:         result.Completion.Total,
			Percent:       result.Completion.Percent,
			IsComplete:    result.Completion.IsComplete,
			IsSubstantial: result.Completion.IsSubstantial,
		},
	}

	for _, sc := range result.Completion.Sections {
		rep.Completion.Sections = append(rep.Completion.Sections, SectionCompletion{
			SectionID: sc.SectionID,
			Name:      sc.Name,
			Answered:  sc.Answered,
			Total:     sc.Total,
			Percent:   sc.Percent,
		})
	}

	for _, r := range recs {
		rep.Recommendations = append(rep.Recommendations, entryFrom(r))
	}

	sectionScores := make(map[string]scoring.SectionScore, len(result.SectionScores))
	for _, ss := range result.SectionScores {
		sectionScores[ss.SectionID] = ss
	}

	for _, section := range cat.Sections() {
		block := SectionBlock{
			SectionID: section.ID,
			Name:      section.Name,
		}
		if ss, ok := sectionScores[section.ID]; ok {
			block.Score = scoring.Round1(ss.Score)
			block.Scored = true
			block.AreasScored = ss.Scored
		}

		areas := cat.Areas(section.ID)
		block.AreasTotal = len(areas)
		for _, area := range areas {
			ab := AreaBlock{
				AreaID: area.ID,
				Name:   area.Name,
			}
			if as, ok := result.AreaScore(area.ID); ok {
				ab.Score = scoring.Round1(as.Score)
				ab.Scored = true
				ab.CurrentLevel = recommendation.CurrentLevel(as.Score)
				ab.Answered = as.Answered
				ab.Questions = as.Questions
			}
			block.Areas = append(block.Areas, ab)
		}

		for _, e := range rep.Recommendations {
			if e.SectionID == section.ID {
				block.Recommendations = append(block.Recommendations, e)
			}
		}

		rep.Sections = append(rep.Sections, block)
	}

	for _, s := range result.Skipped {
		rep.SkippedResponses = append(rep.SkippedResponses, Skipped{
			QuestionID: s.QuestionID,
			Reason:     s.Reason,
		})
	}

	return rep
}

// SectionScore returns a section's display score, or zero with ok false
// when the section had nothing to score. Used to fill the flattened
// per-section columns on the assessment record.
func (r *Report) SectionScore(sectionID string) (float64, bool) {
	for _, s := range r.Sections {
		if s.SectionID == sectionID {
			return s.Score, s.Scored
		}
	}
	return 0, false
}

func entryFrom(r recommendation.Recommendation) Entry {
	return Entry{
		AreaID:           r.AreaID,
		AreaName:         r.AreaName,
		SectionID:        r.SectionID,
		SectionName:      r.SectionName,
		CurrentScore:     scoring.Round1(r.CurrentScore),
		CurrentLevel:     r.CurrentLevel,
		TargetLevel:      r.TargetLevel,
		Type:             r.Type,
		Priority:         r.Priority,
		Impact:           r.Impact,
		Feasibility:      r.Feasibility,
		Urgency:          r.Urgency,
		EffortWeeks:      r.EffortWeeks,
		Tags:             r.Tags,
		ScoreImprovement: r.ScoreImprovement,
		RankScore:        r.RankScore,
		Prerequisites:    r.Prerequisites,
		ActionItems:      r.ActionItems,
		SuccessMetrics:   r.SuccessMetrics,
		Timeline:         r.Timeline,
		CommonPitfall:    r.CommonPitfall,
	}
}
