package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afs-framework/backend/internal/assessment"
	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/progress"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/internal/storage/storagetest"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	sections := []*catalog.Section{
		{ID: "foundational", Name: "Foundational", DisplayOrder: 1},
		{ID: "transformation", Name: "Transformation", DisplayOrder: 2},
		{ID: "enterprise", Name: "Enterprise", DisplayOrder: 3},
		{ID: "governance", Name: "Governance", DisplayOrder: 4},
	}
	areas := []*catalog.Area{
		{ID: "alpha", SectionID: "foundational", Name: "Alpha", DisplayOrder: 1},
		{ID: "beta", SectionID: "transformation", Name: "Beta", DisplayOrder: 1},
		{ID: "gamma", SectionID: "enterprise", Name: "Gamma", DisplayOrder: 1},
		{ID: "delta", SectionID: "governance", Name: "Delta", DisplayOrder: 1},
	}
	questions := []*catalog.Question{
		{ID: "q_a1", AreaID: "alpha", Text: "Alpha one", DisplayOrder: 1, Active: true},
		{ID: "q_a2", AreaID: "alpha", Text: "Alpha two", DisplayOrder: 2, Active: true},
		{ID: "q_b1", AreaID: "beta", Text: "Beta one", DisplayOrder: 1, Active: true},
		{ID: "q_b2", AreaID: "beta", Text: "Beta retired", DisplayOrder: 2, Active: false},
		{ID: "q_g1", AreaID: "gamma", Text: "Gamma one", DisplayOrder: 1, Active: true},
		{ID: "q_d1", AreaID: "delta", Text: "Delta one", DisplayOrder: 1, Active: true},
	}

	var rules []*catalog.ProgressionRule
	timelines := map[int]string{2: "2-4 weeks", 3: "2-3 months", 4: "4-6 months"}
	for _, area := range []string{"alpha", "beta", "gamma", "delta"} {
		for level := 2; level <= 4; level++ {
			rules = append(rules, &catalog.ProgressionRule{
				AreaID:        area,
				TargetLevel:   level,
				Prerequisites: []string{"Budget approved"},
				ActionItems: []catalog.ActionGroup{
					{Category: "Rollout", Items: []string{"Run the rollout"}},
				},
				SuccessMetrics: []string{"Adoption holds"},
				Timeline:       timelines[level],
				CommonPitfall:  "Stopping early.",
			})
		}
	}

	cat, err := catalog.New(sections, areas, questions, rules)
	require.NoError(t, err)
	return cat
}

// newTestApp wires the handlers onto the same routes the server
// registers, backed by the in-memory repository.
func newTestApp(t *testing.T) (*fiber.App, *assessment.Service, *storagetest.Fake) {
	t.Helper()

	cat := testCatalog(t)
	repo := storagetest.NewFake()
	service := assessment.NewService(repo, cat, nil, progress.NewHub())

	assessmentHandler := NewAssessmentHandler(service)
	catalogHandler := NewCatalogHandler(cat)
	statsHandler := NewStatsHandler(service)
	healthHandler := NewHealthHandler(repo, nil)

	app := fiber.New()
	api := app.Group("/api/v1")

	assessments := api.Group("/assessments")
	assessments.Post("/", assessmentHandler.CreateAssessment)
	assessments.Get("/", assessmentHandler.ListAssessments)
	assessments.Get("/:id", assessmentHandler.GetAssessment)
	assessments.Patch("/:id", assessmentHandler.UpdateAssessment)
	assessments.Delete("/:id", assessmentHandler.DeleteAssessment)
	assessments.Put("/:id/responses/:questionID", assessmentHandler.SaveResponse)
	assessments.Post("/:id/responses", assessmentHandler.BulkSaveResponses)
	assessments.Get("/:id/responses", assessmentHandler.GetResponses)
	assessments.Get("/:id/progress", assessmentHandler.GetProgress)
	assessments.Post("/:id/finalize", assessmentHandler.FinalizeAssessment)
	assessments.Get("/:id/results", assessmentHandler.GetResults)

	api.Get("/catalog/sections", catalogHandler.GetSections)
	api.Get("/catalog/areas/:id/questions", catalogHandler.GetAreaQuestions)
	api.Get("/catalog/areas/:id/progressions", catalogHandler.GetAreaProgressions)
	api.Get("/stats", statsHandler.GetStats)
	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	return app, service, repo
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedAssessment(t *testing.T, service *assessment.Service) *models.Assessment {
	t.Helper()
	a, err := service.Create(context.Background(), assessment.CreateInput{TeamName: "Platform"})
	require.NoError(t, err)
	return a
}

func answerAll(t *testing.T, service *assessment.Service, id string) {
	t.Helper()
	for _, q := range []string{"q_a1", "q_a2", "q_b1", "q_g1", "q_d1"} {
		_, err := service.SaveResponse(context.Background(), id, assessment.ResponseInput{
			QuestionID: q,
			Score:      2,
		})
		require.NoError(t, err)
	}
}

func TestCreateAssessment(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/assessments",
		`{"team_name":"Platform","email":"lead@example.com"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Len(t, body["id"], 36)
	assert.Equal(t, models.StatusDraft, body["status"])
	assert.Equal(t, "Platform", body["team_name"])
}

func TestCreateAssessmentValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing team name", `{"email":"lead@example.com"}`, "TeamName"},
		{"team name too short", `{"team_name":"X"}`, "TeamName"},
		{"bad email", `{"team_name":"Platform","email":"not-an-email"}`, "Email"},
		{"malformed body", `{"team_name":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, fiber.MethodPost, "/api/v1/assessments", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestGetAssessment(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/"+a.ID, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, a.ID, body["id"])

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/missing", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Assessment not found", body["error"])
}

func TestListAssessments(t *testing.T) {
	app, service, _ := newTestApp(t)
	seedAssessment(t, service)
	seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/assessments", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 2, body["count"])

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/assessments?status=COMPLETED", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 0, body["count"])

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/assessments?status=BOGUS", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAssessment(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodPatch, "/api/v1/assessments/"+a.ID,
		`{"team_name":"Platform Renamed"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Platform Renamed", body["team_name"])
}

func TestUpdateCompletedAssessmentConflicts(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)
	answerAll(t, service, a.ID)
	_, err := service.Finalize(context.Background(), a.ID, false)
	require.NoError(t, err)

	resp := doJSON(t, app, fiber.MethodPatch, "/api/v1/assessments/"+a.ID,
		`{"team_name":"Too Late"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Assessment is completed and read-only", body["error"])
}

func TestDeleteAssessment(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodDelete, "/api/v1/assessments/"+a.ID, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodDelete, "/api/v1/assessments/"+a.ID, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSaveResponse(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodPut,
		"/api/v1/assessments/"+a.ID+"/responses/q_a1", `{"score":3,"notes":"going well"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 3, body["score"])
	assert.Equal(t, "q_a1", body["question_id"])
}

func TestSaveResponseErrors(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown question",
			path:       "/api/v1/assessments/" + a.ID + "/responses/q_zz",
			body:       `{"score":3}`,
			wantStatus: fiber.StatusNotFound,
			wantError:  "Question not found",
		},
		{
			name:       "inactive question",
			path:       "/api/v1/assessments/" + a.ID + "/responses/q_b2",
			body:       `{"score":3}`,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Question is no longer active",
		},
		{
			name:       "score out of range",
			path:       "/api/v1/assessments/" + a.ID + "/responses/q_a1",
			body:       `{"score":5}`,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Score",
		},
		{
			name:       "missing assessment",
			path:       "/api/v1/assessments/missing/responses/q_a1",
			body:       `{"score":3}`,
			wantStatus: fiber.StatusNotFound,
			wantError:  "Assessment not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, fiber.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Contains(t, body["error"], tt.wantError)
		})
	}
}

func TestBulkSaveResponses(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/assessments/"+a.ID+"/responses",
		`{"responses":[{"question_id":"q_a1","score":2},{"question_id":"q_zz","score":2}]}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["saved"])
	require.Len(t, body["errors"], 1)

	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/assessments/"+a.ID+"/responses",
		`{"responses":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetProgress(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)
	answerAll(t, service, a.ID)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/"+a.ID+"/progress", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 5, body["answered"])
	assert.EqualValues(t, 5, body["total"])
	assert.Equal(t, true, body["is_complete"])
}

func TestFinalizeAssessment(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	// Two of five answered: rejected without force.
	for _, q := range []string{"q_a1", "q_a2"} {
		_, err := service.SaveResponse(context.Background(), a.ID, assessment.ResponseInput{
			QuestionID: q,
			Score:      3,
		})
		require.NoError(t, err)
	}

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/assessments/"+a.ID+"/finalize", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "40.0% answered")

	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/assessments/"+a.ID+"/finalize",
		`{"force":true}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, a.ID, body["assessment_id"])
	assert.NotEmpty(t, body["classification"])

	resp = doJSON(t, app, fiber.MethodPost, "/api/v1/assessments/"+a.ID+"/finalize",
		`{"force":true}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Assessment is already finalized", body["error"])
}

func TestGetResults(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)
	answerAll(t, service, a.ID)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/"+a.ID+"/results", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, a.ID, body["assessment_id"])
	assert.EqualValues(t, 2.0, body["overall_score"])

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/missing/results", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetResultsWithNothingAnswered(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/assessments/"+a.ID+"/results", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "No scoreable responses recorded", body["error"])
}
