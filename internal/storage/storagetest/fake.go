// Package storagetest provides an in-memory Repository for tests. It
// mirrors the sqlite implementation's observable behavior: not-found
// errors, upserts keyed on (assessment, question), list ordering, and
// the stats aggregation shape.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/afs-framework/backend/internal/storage"
	"github.com/afs-framework/backend/internal/storage/models"
)

type Fake struct {
	mu          sync.Mutex
	assessments map[string]*models.Assessment
	responses   map[string]map[string]*models.Response
	nextID      int64

	// PingErr makes Ping fail, for readiness tests.
	PingErr error
}

func NewFake() *Fake {
	return &Fake{
		assessments: make(map[string]*models.Assessment),
		responses:   make(map[string]map[string]*models.Response),
	}
}

func (f *Fake) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.assessments[a.ID]; exists {
		return fmt.Errorf("assessment %q already exists", a.ID)
	}
	cp := *a
	f.assessments[a.ID] = &cp
	return nil
}

func (f *Fake) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.assessments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *Fake) UpdateAssessment(ctx context.Context, a *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.assessments[a.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *a
	f.assessments[a.ID] = &cp
	return nil
}

func (f *Fake) DeleteAssessment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.assessments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.assessments, id)
	delete(f.responses, id)
	return nil
}

func (f *Fake) ListAssessments(ctx context.Context, filters models.ListFilters) ([]*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []*models.Assessment
	for _, a := range f.assessments {
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	if filters.Offset >= len(all) {
		return nil, nil
	}
	all = all[filters.Offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *Fake) UpsertResponse(ctx context.Context, r *models.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byQuestion, ok := f.responses[r.AssessmentID]
	if !ok {
		byQuestion = make(map[string]*models.Response)
		f.responses[r.AssessmentID] = byQuestion
	}

	cp := *r
	if existing, ok := byQuestion[r.QuestionID]; ok {
		// The insert's created_at wins, as in the sqlite upsert.
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		f.nextID++
		cp.ID = f.nextID
	}
	byQuestion[r.QuestionID] = &cp
	return nil
}

func (f *Fake) GetResponses(ctx context.Context, assessmentID string) ([]*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Response
	for _, r := range f.responses[assessmentID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}

func (f *Fake) GetStats(ctx context.Context) (*models.AssessmentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &models.AssessmentStats{
		ByStatus:         make(map[string]int),
		ByClassification: make(map[string]int),
	}

	var scoreSum float64
	var completed int
	for _, a := range f.assessments {
		stats.ByStatus[a.Status]++
		stats.Total++
		if a.Status == models.StatusCompleted && a.Classification != "" {
			stats.ByClassification[a.Classification]++
			scoreSum += a.OverallScore
			completed++
		}
	}
	if completed > 0 {
		stats.AvgOverallScore = scoreSum / float64(completed)
	}
	return stats, nil
}

func (f *Fake) Ping(ctx context.Context) error {
	return f.PingErr
}

func (f *Fake) Close() error {
	return nil
}
