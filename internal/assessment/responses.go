package assessment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/metrics"
	"github.com/afs-framework/backend/internal/progress"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
)

type ResponseInput struct {
	QuestionID          string
	Score               int
	Notes               string
	ResponseTimeSeconds int
}

// SaveResponse upserts one answer. Writes are independent per question;
// concurrent saves to the same question are last-write-wins.
func (s *Service) SaveResponse(ctx context.Context, assessmentID string, input ResponseInput) (*models.Response, error) {
	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusCompleted {
		return nil, ErrAssessmentCompleted
	}

	if err := s.validateResponse(input); err != nil {
		return nil, err
	}

	now := time.Now()
	r := &models.Response{
		AssessmentID:        assessmentID,
		QuestionID:          input.QuestionID,
		Score:               input.Score,
		Notes:               input.Notes,
		ResponseTimeSeconds: input.ResponseTimeSeconds,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.UpsertResponse(ctx, r); err != nil {
		return nil, err
	}
	metrics.ResponsesRecorded.Inc()

	if err := s.touchAfterResponse(ctx, a, now); err != nil {
		logger.Warn("Failed to update assessment after response",
			zap.String("assessment_id", assessmentID),
			zap.Error(err),
		)
	}

	s.publishProgress(ctx, a)

	return r, nil
}

// BulkResult reports the per-item outcome of a bulk save.
type BulkResult struct {
	Saved  int         `json:"saved"`
	Errors []BulkError `json:"errors,omitempty"`
}

type BulkError struct {
	QuestionID string `json:"question_id"`
	Message    string `json:"message"`
}

// BulkSaveResponses upserts a batch of answers, validating each one
// independently so a single bad item does not sink the batch.
func (s *Service) BulkSaveResponses(ctx context.Context, assessmentID string, inputs []ResponseInput) (*BulkResult, error) {
	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusCompleted {
		return nil, ErrAssessmentCompleted
	}

	result := &BulkResult{}
	now := time.Now()

	for _, input := range inputs {
		if err := s.validateResponse(input); err != nil {
			result.Errors = append(result.Errors, BulkError{
				QuestionID: input.QuestionID,
				Message:    err.Error(),
			})
			continue
		}

		r := &models.Response{
			AssessmentID:        assessmentID,
			QuestionID:          input.QuestionID,
			Score:               input.Score,
			Notes:               input.Notes,
			ResponseTimeSeconds: input.ResponseTimeSeconds,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.repo.UpsertResponse(ctx, r); err != nil {
			result.Errors = append(result.Errors, BulkError{
				QuestionID: input.QuestionID,
				Message:    err.Error(),
			})
			continue
		}
		result.Saved++
		metrics.ResponsesRecorded.Inc()
	}

	if result.Saved > 0 {
		if err := s.touchAfterResponse(ctx, a, now); err != nil {
			logger.Warn("Failed to update assessment after bulk save",
				zap.String("assessment_id", assessmentID),
				zap.Error(err),
			)
		}
		s.publishProgress(ctx, a)
	}

	logger.Info("Bulk responses saved",
		zap.String("assessment_id", assessmentID),
		zap.Int("saved", result.Saved),
		zap.Int("rejected", len(result.Errors)),
	)

	return result, nil
}

func (s *Service) Responses(ctx context.Context, assessmentID string) ([]*models.Response, error) {
	if _, err := s.repo.GetAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}
	return s.repo.GetResponses(ctx, assessmentID)
}

// Progress reports completion for one assessment, overall and per
// section.
func (s *Service) Progress(ctx context.Context, assessmentID string) (*progress.Snapshot, error) {
	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	scores, err := s.responseScores(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	snap := snapshotFrom(a, scoring.ComputeCompletion(scores, s.cat))
	return &snap, nil
}

func (s *Service) validateResponse(input ResponseInput) error {
	q, ok := s.cat.Question(input.QuestionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if !q.Active {
		return ErrInactiveQuestion
	}
	if input.Score < 1 || input.Score > 4 {
		return ErrInvalidScore
	}
	return nil
}

// touchAfterResponse bumps the assessment's updated time and promotes a
// draft to in-progress on its first answer.
func (s *Service) touchAfterResponse(ctx context.Context, a *models.Assessment, now time.Time) error {
	if a.Status == models.StatusDraft {
		a.Status = models.StatusInProgress
	}
	a.UpdatedAt = now
	return s.repo.UpdateAssessment(ctx, a)
}

// publishProgress pushes a fresh snapshot to websocket subscribers.
// Failures only cost the update, never the request.
func (s *Service) publishProgress(ctx context.Context, a *models.Assessment) {
	if s.hub == nil || s.hub.Subscribers(a.ID) == 0 {
		return
	}

	scores, err := s.responseScores(ctx, a.ID)
	if err != nil {
		logger.Warn("Failed to compute progress snapshot", zap.Error(err))
		return
	}

	s.hub.Publish(snapshotFrom(a, scoring.ComputeCompletion(scores, s.cat)))
}

func snapshotFrom(a *models.Assessment, completion scoring.Completion) progress.Snapshot {
	snap := progress.Snapshot{
		AssessmentID:  a.ID,
		Status:        a.Status,
		Answered:      completion.Answered,
		Total:         completion.Total,
		Percent:       completion.Percent,
		IsComplete:    completion.IsComplete,
		IsSubstantial: completion.IsSubstantial,
		UpdatedAt:     time.Now().Unix(),
	}
	for _, sc := range completion.Sections {
		snap.Sections = append(snap.Sections, progress.SectionSnapshot{
			SectionID: sc.SectionID,
			Name:      sc.Name,
			Answered:  sc.Answered,
			Total:     sc.Total,
			Percent:   sc.Percent,
		})
	}
	return snap
}
