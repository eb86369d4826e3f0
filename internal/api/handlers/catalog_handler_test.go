package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSections(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/sections", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 5, body["question_count"])

	sections, ok := body["sections"].([]interface{})
	require.True(t, ok)
	require.Len(t, sections, 4)

	first, ok := sections[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "foundational", first["id"])

	areas, ok := first["areas"].([]interface{})
	require.True(t, ok)
	require.Len(t, areas, 1)
	alpha, ok := areas[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alpha", alpha["id"])
	assert.EqualValues(t, 2, alpha["question_count"])
}

func TestGetAreaQuestions(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/areas/beta/questions", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "beta", body["area_id"])
	questions, ok := body["questions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, questions, 1, "inactive questions stay out of the questionnaire")

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/areas/ghost/questions", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetAreaProgressions(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/areas/gamma/progressions", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "gamma", body["area_id"])
	progressions, ok := body["progressions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, progressions, 3)

	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/catalog/areas/ghost/progressions", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetStats(t *testing.T) {
	app, service, _ := newTestApp(t)
	a := seedAssessment(t, service)
	answerAll(t, service, a.ID)
	_, err := service.Finalize(context.Background(), a.ID, false)
	require.NoError(t, err)
	seedAssessment(t, service)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 2, body["total_assessments"])

	byStatus, ok := body["by_status"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, byStatus["COMPLETED"])
	assert.EqualValues(t, 1, byStatus["DRAFT"])
}

func TestHealth(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/health", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	app, _, repo := newTestApp(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.Equal(t, "disabled", body["cache"])

	repo.PingErr = errors.New("database is gone")
	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "down", body["database"])
}
