package routes

import (
	bleve_controllers "student-roster-backend/bleve/controllers"
	bleve_repositories "student-roster-backend/bleve/repositories"
	bleve_routes "student-roster-backend/bleve/routes"
	"student-roster-backend/db/models"
	"student-roster-backend/middleware"
	"student-roster-backend/students/controllers"

	"github.com/gofiber/fiber/v2"
)

func StudentRouterInit(
	app *fiber.App,
	appContext *middleware.AppContext,
	studentController *controllers.StudentController,
	bleveRepo bleve_repositories.BleveRepositoryInterface,
) {
	adminOnly := middleware.RequireRoles(models.AdminRole)

	studentRoutes := app.Group("/api/v1/students", middleware.ProtectedRoute(appContext))

	// Fixed paths go before /:id.
	if bleveRepo != nil {
		bleve_routes.InitBleveRoutes(studentRoutes, bleve_controllers.NewSearchController(bleveRepo))
	}
	studentRoutes.Get("/export", studentController.ExportStudentsController)
	studentRoutes.Post("/export/link", studentController.ExportStudentsLinkController)
	studentRoutes.Get("/qrcode", studentController.QRCodeController)
	studentRoutes.Post("/import", adminOnly, studentController.ImportStudentsController)
	studentRoutes.Get("/imports", adminOnly, studentController.GetImportLogsController)

	studentRoutes.Get("/", studentController.GetFilteredStudentsController)
	studentRoutes.Post("/", adminOnly, studentController.CreateStudentController)
	studentRoutes.Get("/:id", studentController.GetStudentController)
	studentRoutes.Put("/:id", adminOnly, studentController.UpdateStudentController)
	studentRoutes.Delete("/:id", adminOnly, studentController.DeleteStudentController)
}
