package routes

import (
	"student-roster-backend/bleve/controllers"

	"github.com/gofiber/fiber/v2"
)

// InitBleveRoutes mounts the search endpoints on an already protected group.
func InitBleveRoutes(router fiber.Router, controller *controllers.SearchController) {
	router.Get("/search", controller.SearchStudentsController)
}
