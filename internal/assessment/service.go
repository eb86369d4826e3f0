// Package assessment orchestrates the questionnaire lifecycle: creating
// assessments, collecting responses, tracking progress, and finalizing
// results through the scoring pipeline.
package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/cache/redis"
	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/metrics"
	"github.com/afs-framework/backend/internal/progress"
	"github.com/afs-framework/backend/internal/storage"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
)

type Service struct {
	repo  storage.Repository
	cat   *catalog.Catalog
	cache *redis.Client
	hub   *progress.Hub
}

// NewService wires the assessment service. cache may be nil; results
// are then recomputed on every read.
func NewService(repo storage.Repository, cat *catalog.Catalog, cache *redis.Client, hub *progress.Hub) *Service {
	return &Service{
		repo:  repo,
		cat:   cat,
		cache: cache,
		hub:   hub,
	}
}

// Catalog exposes the service's catalog snapshot to handlers.
func (s *Service) Catalog() *catalog.Catalog {
	return s.cat
}

type CreateInput struct {
	TeamName   string
	Email      string
	Company    string
	Consultant string
	IPAddress  string
	UserAgent  string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Assessment, error) {
	now := time.Now()
	a := &models.Assessment{
		ID:         uuid.New().String(),
		TeamName:   input.TeamName,
		Email:      input.Email,
		Company:    input.Company,
		Consultant: input.Consultant,
		Status:     models.StatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
	}

	if err := s.repo.CreateAssessment(ctx, a); err != nil {
		return nil, err
	}

	metrics.AssessmentsCreated.Inc()
	logger.Info("Assessment created",
		zap.String("assessment_id", a.ID),
		zap.String("team", a.TeamName),
	)

	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Assessment, error) {
	return s.repo.GetAssessment(ctx, id)
}

func (s *Service) List(ctx context.Context, filters models.ListFilters) ([]*models.Assessment, error) {
	return s.repo.ListAssessments(ctx, filters)
}

// UpdateInput carries contact-metadata patches. Nil fields are left
// untouched.
type UpdateInput struct {
	TeamName   *string
	Email      *string
	Company    *string
	Consultant *string
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*models.Assessment, error) {
	a, err := s.repo.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusCompleted {
		return nil, ErrAssessmentCompleted
	}

	if input.TeamName != nil {
		a.TeamName = *input.TeamName
	}
	if input.Email != nil {
		a.Email = *input.Email
	}
	if input.Company != nil {
		a.Company = *input.Company
	}
	if input.Consultant != nil {
		a.Consultant = *input.Consultant
	}
	a.UpdatedAt = time.Now()

	if err := s.repo.UpdateAssessment(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteAssessment(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAssessment(ctx, id); err != nil {
			logger.Warn("Failed to invalidate results cache", zap.Error(err))
		}
	}

	logger.Info("Assessment deleted", zap.String("assessment_id", id))
	return nil
}

// responseScores flattens stored responses into the question->score map
// the scoring engine consumes.
func (s *Service) responseScores(ctx context.Context, assessmentID string) (map[string]int, error) {
	responses, err := s.repo.GetResponses(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	scores := make(map[string]int, len(responses))
	for _, r := range responses {
		scores[r.QuestionID] = r.Score
	}
	return scores, nil
}
