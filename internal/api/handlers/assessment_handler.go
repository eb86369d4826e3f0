package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/assessment"
	"github.com/afs-framework/backend/internal/storage/models"
	"github.com/afs-framework/backend/pkg/logger"
)

type AssessmentHandler struct {
	service *assessment.Service
}

func NewAssessmentHandler(service *assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
	}
}

type createAssessmentRequest struct {
	TeamName   string `json:"team_name" validate:"required,min=2,max=200"`
	Email      string `json:"email" validate:"omitempty,email,max=320"`
	Company    string `json:"company" validate:"omitempty,max=200"`
	Consultant string `json:"consultant" validate:"omitempty,max=200"`
}

func (h *AssessmentHandler) CreateAssessment(c *fiber.Ctx) error {
	var req createAssessmentRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	a, err := h.service.Create(c.Context(), assessment.CreateInput{
		TeamName:   req.TeamName,
		Email:      req.Email,
		Company:    req.Company,
		Consultant: req.Consultant,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *AssessmentHandler) GetAssessment(c *fiber.Ctx) error {
	a, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(a)
}

func (h *AssessmentHandler) ListAssessments(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", models.StatusDraft, models.StatusInProgress, models.StatusCompleted:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown status filter",
		})
	}

	list, err := h.service.List(c.Context(), models.ListFilters{
		Status: status,
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"assessments": list,
		"count":       len(list),
	})
}

type updateAssessmentRequest struct {
	TeamName   *string `json:"team_name" validate:"omitempty,min=2,max=200"`
	Email      *string `json:"email" validate:"omitempty,email,max=320"`
	Company    *string `json:"company" validate:"omitempty,max=200"`
	Consultant *string `json:"consultant" validate:"omitempty,max=200"`
}

func (h *AssessmentHandler) UpdateAssessment(c *fiber.Ctx) error {
	var req updateAssessmentRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	a, err := h.service.Update(c.Context(), c.Params("id"), assessment.UpdateInput{
		TeamName:   req.TeamName,
		Email:      req.Email,
		Company:    req.Company,
		Consultant: req.Consultant,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(a)
}

func (h *AssessmentHandler) DeleteAssessment(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "deleted",
	})
}

type saveResponseRequest struct {
	Score               int    `json:"score" validate:"required,min=1,max=4"`
	Notes               string `json:"notes" validate:"omitempty,max=2000"`
	ResponseTimeSeconds int    `json:"response_time_seconds" validate:"omitempty,min=0"`
}

func (h *AssessmentHandler) SaveResponse(c *fiber.Ctx) error {
	var req saveResponseRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	r, err := h.service.SaveResponse(c.Context(), c.Params("id"), assessment.ResponseInput{
		QuestionID:          c.Params("questionID"),
		Score:               req.Score,
		Notes:               req.Notes,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(r)
}

type bulkResponsesRequest struct {
	Responses []bulkResponseItem `json:"responses" validate:"required,min=1"`
}

// bulkResponseItem carries no validate tags on purpose: items are
// checked one by one in the service so a bad item reports an error
// without sinking the batch.
type bulkResponseItem struct {
	QuestionID          string `json:"question_id"`
	Score               int    `json:"score"`
	Notes               string `json:"notes"`
	ResponseTimeSeconds int    `json:"response_time_seconds"`
}

func (h *AssessmentHandler) BulkSaveResponses(c *fiber.Ctx) error {
	var req bulkResponsesRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}

	inputs := make([]assessment.ResponseInput, 0, len(req.Responses))
	for _, item := range req.Responses {
		inputs = append(inputs, assessment.ResponseInput{
			QuestionID:          item.QuestionID,
			Score:               item.Score,
			Notes:               item.Notes,
			ResponseTimeSeconds: item.ResponseTimeSeconds,
		})
	}

	result, err := h.service.BulkSaveResponses(c.Context(), c.Params("id"), inputs)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *AssessmentHandler) GetResponses(c *fiber.Ctx) error {
	responses, err := h.service.Responses(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"responses": responses,
		"count":     len(responses),
	})
}

func (h *AssessmentHandler) GetProgress(c *fiber.Ctx) error {
	snap, err := h.service.Progress(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(snap)
}

type finalizeRequest struct {
	Force bool `json:"force"`
}

func (h *AssessmentHandler) FinalizeAssessment(c *fiber.Ctx) error {
	var req finalizeRequest

	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	rep, err := h.service.Finalize(c.Context(), c.Params("id"), req.Force)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(rep)
}

func (h *AssessmentHandler) GetResults(c *fiber.Ctx) error {
	rep, err := h.service.Results(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(rep)
}
