package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/metrics"
	"github.com/afs-framework/backend/internal/recommendation"
	"github.com/afs-framework/backend/internal/report"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
	"github.com/afs-framework/backend/pkg/utils"
)

// Finalize scores the assessment, freezes the report, and marks the
// record COMPLETED. Finalizing requires a substantially complete
// questionnaire unless force is set. A completed assessment cannot be
// finalized again.
func (s *Service) Finalize(ctx context.Context, assessmentID string, force bool) (*report.Report, error) {
	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusCompleted {
		return nil, ErrAlreadyFinalized
	}

	scores, err := s.responseScores(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	result, err := s.score(scores)
	if err != nil {
		return nil, err
	}
	if !result.Completion.IsSubstantial && !force {
		return nil, fmt.Errorf("%w: %.1f%% answered, %.0f%% required",
			ErrIncomplete, result.Completion.Percent, scoring.SubstantialThreshold)
	}

	recs := recommendation.SelectRecommendations(result, s.cat)
	metrics.RecommendationCount.Observe(float64(len(recs)))

	now := time.Now()
	rep := report.Assemble(result, recs, s.cat, report.Meta{
		AssessmentID: a.ID,
		TeamName:     a.TeamName,
		GeneratedAt:  now.Unix(),
	})

	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	a.Status = models.StatusCompleted
	a.CompletionDate = &now
	a.DurationMinutes = int(now.Sub(a.CreatedAt).Minutes())
	a.OverallScore = result.Overall
	applySectionScores(a, result.SectionScores)
	a.Classification = string(result.Classification)
	a.ResultsJSON = string(payload)
	a.UpdatedAt = now

	if err := s.repo.UpdateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to persist finalized assessment: %w", err)
	}

	metrics.AssessmentsFinalized.WithLabelValues(strconv.FormatBool(force)).Inc()
	metrics.ClassificationTotal.WithLabelValues(string(result.Classification)).Inc()

	s.warmCache(ctx, a.ID, utils.Fingerprint(scores), rep)
	s.publishProgress(ctx, a)

	logger.Info("Assessment finalized",
		zap.String("assessment_id", a.ID),
		zap.Float64("overall_score", result.Overall),
		zap.String("classification", string(result.Classification)),
		zap.Int("recommendations", len(recs)),
		zap.Bool("forced", force),
	)

	return rep, nil
}

// Results returns the report for an assessment. Completed assessments
// serve the frozen report saved at finalization; open ones get a live
// preview computed from the responses recorded so far.
func (s *Service) Results(ctx context.Context, assessmentID string) (*report.Report, error) {
	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	if a.Status == models.StatusCompleted && a.ResultsJSON != "" {
		var rep report.Report
		if err := json.Unmarshal([]byte(a.ResultsJSON), &rep); err != nil {
			logger.Warn("Stored report is unreadable, recomputing",
				zap.String("assessment_id", assessmentID),
				zap.Error(err),
			)
		} else {
			return &rep, nil
		}
	}

	scores, err := s.responseScores(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	fingerprint := utils.Fingerprint(scores)

	if s.cache != nil {
		var cached report.Report
		found, err := s.cache.GetResults(ctx, assessmentID, fingerprint, &cached)
		if err != nil {
			logger.Warn("Results cache read failed", zap.Error(err))
		} else if found {
			metrics.CacheHits.WithLabelValues("results").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("results").Inc()
	}

	result, err := s.score(scores)
	if err != nil {
		return nil, err
	}
	recs := recommendation.SelectRecommendations(result, s.cat)

	rep := report.Assemble(result, recs, s.cat, report.Meta{
		AssessmentID: a.ID,
		TeamName:     a.TeamName,
		GeneratedAt:  time.Now().Unix(),
	})

	s.warmCache(ctx, assessmentID, fingerprint, rep)

	return rep, nil
}

func (s *Service) score(scores map[string]int) (*scoring.Result, error) {
	start := time.Now()
	result, err := scoring.ComputeScores(scores, s.cat)
	if err != nil {
		return nil, err
	}
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func (s *Service) warmCache(ctx context.Context, assessmentID, fingerprint string, rep *report.Report) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetResults(ctx, assessmentID, fingerprint, rep); err != nil {
		logger.Warn("Results cache write failed",
			zap.String("assessment_id", assessmentID),
			zap.Error(err),
		)
	}
}

// Section scores are denormalized into fixed columns so list views and
// stats queries avoid parsing report JSON. Sections outside the
// standard four still live in the report itself.
func applySectionScores(a *models.Assessment, sections []scoring.SectionScore) {
	for _, sc := range sections {
		score := scoring.Round2(sc.Score)
		switch sc.SectionID {
		case "foundational":
			a.FoundationalScore = score
		case "transformation":
			a.TransformationScore = score
		case "enterprise":
			a.EnterpriseScore = score
		case "governance":
			a.GovernanceScore = score
		}
	}
}
