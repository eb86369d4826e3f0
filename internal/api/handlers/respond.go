package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/assessment"
	"github.com/afs-framework/backend/internal/scoring"
	"github.com/afs-framework/backend/internal/storage"
	"github.com/afs-framework/backend/pkg/logger"
)

var validate = validator.New()

// mapServiceError translates service failures into JSON error responses.
// Unrecognized errors become a logged 500.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assessment not found",
		})
	case errors.Is(err, assessment.ErrUnknownQuestion):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Question not found",
		})
	case errors.Is(err, assessment.ErrInactiveQuestion):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is no longer active",
		})
	case errors.Is(err, assessment.ErrInvalidScore):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Score must be between 1 and 4",
		})
	case errors.Is(err, assessment.ErrAssessmentCompleted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Assessment is completed and read-only",
		})
	case errors.Is(err, assessment.ErrAlreadyFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Assessment is already finalized",
		})
	case errors.Is(err, assessment.ErrIncomplete):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, scoring.ErrNotScoreable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "No scoreable responses recorded",
		})
	default:
		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

// validationMessage flattens the first struct validation failure into a
// client-friendly message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Field '%s' failed validation (%s)", fe.Field(), fe.Tag())
	}
	return "Validation failed"
}
