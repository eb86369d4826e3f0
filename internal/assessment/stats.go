package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/report"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
)

// opportunityLimit caps the ranked improvement areas in the stats view.
const opportunityLimit = 5

// statsScanLimit bounds how many completed assessments the opportunity
// aggregation reads per request.
const statsScanLimit = 500

type Stats struct {
	Total            int            `json:"total_assessments"`
	ByStatus         map[string]int `json:"by_status"`
	ByClassification map[string]int `json:"by_classification"`
	AvgOverallScore  float64        `json:"avg_overall_score"`
	TopOpportunities []Opportunity  `json:"top_opportunities"`
}

// Opportunity is an improvement area aggregated across completed
// assessments, ranked by how often it was recommended.
type Opportunity struct {
	AreaID      string  `json:"area_id"`
	AreaName    string  `json:"area_name"`
	SectionID   string  `json:"section_id"`
	Occurrences int     `json:"occurrences"`
	AvgScore    float64 `json:"avg_score"`
	AvgRank     float64 `json:"avg_rank_score"`
}

// Stats aggregates counts and averages over all assessments plus the
// most common improvement areas across completed reports.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	base, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	stats := &Stats{
		Total:            base.Total,
		ByStatus:         base.ByStatus,
		ByClassification: base.ByClassification,
		AvgOverallScore:  scoring.Round2(base.AvgOverallScore),
	}

	opportunities, err := s.topOpportunities(ctx)
	if err != nil {
		logger.Warn("Failed to aggregate top opportunities", zap.Error(err))
		return stats, nil
	}
	stats.TopOpportunities = opportunities

	return stats, nil
}

func (s *Service) topOpportunities(ctx context.Context) ([]Opportunity, error) {
	completed, err := s.repo.ListAssessments(ctx, models.ListFilters{
		Status: models.StatusCompleted,
		Limit:  statsScanLimit,
	})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count    int
		scoreSum float64
		rankSum  float64
	}
	buckets := make(map[string]*bucket)

	for _, a := range completed {
		if a.ResultsJSON == "" {
			continue
		}
		var rep report.Report
		if err := json.Unmarshal([]byte(a.ResultsJSON), &rep); err != nil {
			logger.Warn("Skipping unreadable stored report",
				zap.String("assessment_id", a.ID),
				zap.Error(err),
			)
			continue
		}
		for _, rec := range rep.Recommendations {
			b := buckets[rec.AreaID]
			if b == nil {
				b = &bucket{}
				buckets[rec.AreaID] = b
			}
			b.count++
			b.scoreSum += rec.CurrentScore
			b.rankSum += rec.RankScore
		}
	}

	opportunities := make([]Opportunity, 0, len(buckets))
	for areaID, b := range buckets {
		area, ok := s.cat.Area(areaID)
		if !ok {
			continue
		}
		opportunities = append(opportunities, Opportunity{
			AreaID:      areaID,
			AreaName:    area.Name,
			SectionID:   area.SectionID,
			Occurrences: b.count,
			AvgScore:    scoring.Round2(b.scoreSum / float64(b.count)),
			AvgRank:     scoring.Round2(b.rankSum / float64(b.count)),
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].Occurrences != opportunities[j].Occurrences {
			return opportunities[i].Occurrences > opportunities[j].Occurrences
		}
		if opportunities[i].AvgRank != opportunities[j].AvgRank {
			return opportunities[i].AvgRank > opportunities[j].AvgRank
		}
		return opportunities[i].AreaID < opportunities[j].AreaID
	})
	if len(opportunities) > opportunityLimit {
		opportunities = opportunities[:opportunityLimit]
	}

	return opportunities, nil
}
