// Package storage defines the persistence contract for assessments and
// responses. The sqlite subpackage is the production implementation;
// service tests run against an in-memory fake.
package storage

import (
	"context"
	"errors"

	"github.com/afs-framework/backend/internal/storage/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Repository interface {
	// Assessments
	CreateAssessment(ctx context.Context, a *models.Assessment) error
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)
	UpdateAssessment(ctx context.Context, a *models.Assessment) error
	DeleteAssessment(ctx context.Context, id string) error
	ListAssessments(ctx context.Context, filters models.ListFilters) ([]*models.Assessment, error)

	// Responses
	UpsertResponse(ctx context.Context, r *models.Response) error
	GetResponses(ctx context.Context, assessmentID string) ([]*models.Response, error)

	// Stats
	GetStats(ctx context.Context) (*models.AssessmentStats, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
