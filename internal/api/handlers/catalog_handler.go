package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/afs-framework/backend/internal/catalog"
)

type CatalogHandler struct {
	cat *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{
		cat: cat,
	}
}

// GetSections returns the questionnaire structure as a tree: sections
// with their areas nested, plus active question counts.
func (h *CatalogHandler) GetSections(c *fiber.Ctx) error {
	sections := h.cat.Sections()

	out := make([]fiber.Map, 0, len(sections))
	for _, s := range sections {
		areas := h.cat.Areas(s.ID)

		areaList := make([]fiber.Map, 0, len(areas))
		for _, a := range areas {
			areaList = append(areaList, fiber.Map{
				"id":             a.ID,
				"name":           a.Name,
				"description":    a.Description,
				"display_order":  a.DisplayOrder,
				"question_count": len(h.cat.Questions(a.ID, true)),
			})
		}

		out = append(out, fiber.Map{
			"id":            s.ID,
			"name":          s.Name,
			"description":   s.Description,
			"display_order": s.DisplayOrder,
			"areas":         areaList,
		})
	}

	return c.JSON(fiber.Map{
		"sections":       out,
		"question_count": h.cat.ActiveQuestionCount(),
	})
}

func (h *CatalogHandler) GetAreaQuestions(c *fiber.Ctx) error {
	areaID := c.Params("id")

	area, ok := h.cat.Area(areaID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Area not found",
		})
	}

	return c.JSON(fiber.Map{
		"area_id":   area.ID,
		"area_name": area.Name,
		"questions": h.cat.Questions(areaID, true),
	})
}

func (h *CatalogHandler) GetAreaProgressions(c *fiber.Ctx) error {
	areaID := c.Params("id")

	area, ok := h.cat.Area(areaID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Area not found",
		})
	}

	return c.JSON(fiber.Map{
		"area_id":      area.ID,
		"area_name":    area.Name,
		"progressions": h.cat.Rules(areaID),
	})
}
