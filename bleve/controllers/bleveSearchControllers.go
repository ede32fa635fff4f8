package controllers

import (
	"student-roster-backend/bleve/models"
	"student-roster-backend/bleve/repositories"
	"student-roster-backend/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxSearchResults = 50

type SearchController struct {
	repo repositories.BleveRepositoryInterface
}

func NewSearchController(repo repositories.BleveRepositoryInterface) *SearchController {
	return &SearchController{repo: repo}
}

func (c *SearchController) SearchStudentsController(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	if query == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Search query is required",
			"data":    nil,
			"error":   "missing q parameter",
		})
	}

	size := ctx.QueryInt("size", 20)
	if size < 1 || size > maxSearchResults {
		size = 20
	}

	results, err := c.repo.SearchStudents(query, size)
	if err != nil {
		config.Logger.Error("Student search failed", zap.String("query", query), zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Search failed",
			"data":    nil,
			"error":   err.Error(),
		})
	}

	response := models.SearchResponse{Hits: make([]models.SearchHit, 0, len(results.Hits)), Total: results.Total}
	for _, hit := range results.Hits {
		response.Hits = append(response.Hits, models.SearchHit{ID: hit.ID, Score: hit.Score, Fields: hit.Fields})
	}

	return ctx.JSON(fiber.Map{
		"message": "Search completed",
		"data":    response,
		"error":   nil,
	})
}
