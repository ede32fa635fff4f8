package controllers

import (
	"context"
	"encoding/json"
	"io"

	"student-roster-backend/config"
	"student-roster-backend/db/models"
	"student-roster-backend/middleware"
	"student-roster-backend/students/services"
	"student-roster-backend/utils"
	"student-roster-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ImportStudentsController accepts a multipart "file" field holding an .xlsx
// workbook. The body is always an ImportOutcome.
func (sc *StudentController) ImportStudentsController(c *fiber.Ctx) error {
	importedBy := "unknown"
	if user := middleware.CurrentUser(c); user != nil {
		importedBy = user.Email
	}

	var (
		data     []byte
		fileName string
	)
	if fileHeader, err := c.FormFile("file"); err == nil {
		fileName = fileHeader.Filename
		file, err := fileHeader.Open()
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", err.Error())
		}
		data, err = io.ReadAll(file)
		file.Close()
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", err.Error())
		}
	}

	ctx := context.Background()
	if sc.ImportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.ImportTimeout)
		defer cancel()
	}

	outcome := sc.Pipeline.Import(ctx, data, fileName, importedBy)

	importID := uuid.New()
	sc.recordImport(importID, fileName, outcome)

	if outcome.Success {
		if sc.BleveRepo != nil {
			if err := sc.BleveRepo.IndexExistingStudents(outcome.Students); err != nil {
				config.Logger.Warn("Imported students not indexed", zap.Error(err))
			}
		}
		if sc.RedisClient != nil {
			utils.InvalidateCacheAsync(sc.RedisClient, studentCacheNamespace)
		}
	}

	if outcome.SkippedCount > 0 {
		sc.enqueueErrorReport(importID, fileName, outcome)
	}

	status := fiber.StatusOK
	if !outcome.Success {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(outcome)
}

func (sc *StudentController) recordImport(id uuid.UUID, fileName string, outcome services.ImportOutcome) {
	diagnostics, err := json.Marshal(outcome.Diagnostics)
	if err != nil {
		diagnostics = []byte("[]")
	}

	entry := &models.StudentImport{
		ID:            id,
		FileName:      fileName,
		Success:       outcome.Success,
		AcceptedCount: outcome.AcceptedCount,
		SkippedCount:  outcome.SkippedCount,
		Message:       outcome.Message,
		Diagnostics:   datatypes.JSON(diagnostics),
		ImportedBy:    outcome.ImportedBy,
		ImportedAt:    outcome.ImportedAt,
	}
	if err := sc.StudentRepo.LogImport(context.Background(), entry); err != nil {
		config.Logger.Error("Failed to record student import", zap.String("file", fileName), zap.Error(err))
	}
}

func (sc *StudentController) enqueueErrorReport(id uuid.UUID, fileName string, outcome services.ImportOutcome) {
	if sc.TaskQueue == nil {
		return
	}

	task, err := services.NewImportErrorReportTask(services.ImportErrorReportPayload{
		ImportID:    id,
		FileName:    fileName,
		Recipient:   outcome.ImportedBy,
		Accepted:    outcome.AcceptedCount,
		Diagnostics: outcome.Diagnostics,
	})
	if err != nil {
		config.Logger.Error("Failed to build import error report task", zap.Error(err))
		return
	}

	info, err := sc.TaskQueue.Enqueue(task)
	if err != nil {
		config.Logger.Error("Failed to enqueue import error report", zap.String("import_id", id.String()), zap.Error(err))
		return
	}
	config.Logger.Info("Import error report enqueued", zap.String("import_id", id.String()), zap.String("task_id", info.ID))
}

func (sc *StudentController) GetImportLogsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", err.Error())
	}

	logs, total, err := sc.StudentRepo.GetImportLogs(c.Context(), params.PageSize, params.Offset())
	if err != nil {
		config.Logger.Error("Failed to fetch import logs", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch import logs", err.Error())
	}

	return c.JSON(fiber.Map{
		"message": "Import logs retrieved successfully",
		"data":    pagination.NewPaginatedResponse(c, logs, total, params),
		"error":   nil,
	})
}
