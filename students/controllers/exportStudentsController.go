package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"student-roster-backend/config"
	"student-roster-backend/students/services"
	"student-roster-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const exportFileName = "students.xlsx"

type exportLink struct {
	FileName      string `json:"file_name"`
	FileURL       string `json:"file_url"`
	QRCodeURL     string `json:"qr_code_url"`
	ProcessedRows int    `json:"processed_rows"`
}

type cachedExport struct {
	FilePath string `json:"file_path"`
	Rows     int    `json:"rows"`
}

func (sc *StudentController) ExportStudentsController(c *fiber.Ctx) error {
	students, err := sc.StudentRepo.GetAllStudents(c.Context())
	if err != nil {
		config.Logger.Error("Failed to load students for export", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export students", err.Error())
	}
	if len(students) == 0 {
		return errorResponse(c, fiber.StatusNotFound, "No students to export", "the roster is empty")
	}

	data, err := services.ExportStudentsToExcel(students)
	if err != nil {
		config.Logger.Error("Failed to build export workbook", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export students", err.Error())
	}

	c.Set(fiber.HeaderContentType, utils.ExcelContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, exportFileName))
	return c.Send(data)
}

// ExportStudentsLinkController saves the workbook under the public files
// directory and returns its URL plus a QR code pointing at it. A workbook
// generated earlier the same day is reused until the roster changes.
func (sc *StudentController) ExportStudentsLinkController(c *fiber.Ctx) error {
	searchKey, storageKey := utils.GenerateHash(studentCacheNamespace, map[string]string{"export": "all"}, 0, 0)

	if cached, ok := sc.cachedExport(c, searchKey); ok {
		return c.JSON(fiber.Map{
			"message": "Export link retrieved from cache",
			"data":    sc.exportLink(c, cached.FilePath, cached.Rows),
			"error":   nil,
		})
	}

	students, err := sc.StudentRepo.GetAllStudents(c.Context())
	if err != nil {
		config.Logger.Error("Failed to load students for export", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export students", err.Error())
	}
	if len(students) == 0 {
		return errorResponse(c, fiber.StatusNotFound, "No students to export", "the roster is empty")
	}

	data, err := services.ExportStudentsToExcel(students)
	if err != nil {
		config.Logger.Error("Failed to build export workbook", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export students", err.Error())
	}

	filePath, err := sc.Storage.UploadFileFromReader(bytes.NewReader(data), utils.ExcelFileName("Students", utils.Now()))
	if err != nil {
		config.Logger.Error("Failed to save export workbook", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export students", err.Error())
	}

	if sc.RedisClient != nil {
		value, _ := json.Marshal(cachedExport{FilePath: filePath, Rows: len(students)})
		if err := sc.RedisClient.Set(c.Context(), storageKey, value, utils.ExportFileTTL).Err(); err != nil {
			config.Logger.Warn("Failed to cache export file", zap.String("key", storageKey), zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"message": "Export file generated successfully",
		"data":    sc.exportLink(c, filePath, len(students)),
		"error":   nil,
	})
}

func (sc *StudentController) cachedExport(c *fiber.Ctx, searchKey string) (cachedExport, bool) {
	var cached cachedExport
	if sc.RedisClient == nil {
		return cached, false
	}

	raw, err := utils.FindMatchingFile(c.Context(), sc.RedisClient, searchKey)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			config.Logger.Warn("Export cache lookup failed", zap.Error(err))
		}
		return cached, false
	}
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return cached, false
	}
	exists, err := sc.Storage.FileExists(cached.FilePath)
	if err != nil || !exists {
		return cached, false
	}
	return cached, true
}

func (sc *StudentController) exportLink(c *fiber.Ctx, filePath string, rows int) exportLink {
	fileURL := utils.GetDownloadURL(c, filePath)
	return exportLink{
		FileName:      filepath.Base(filePath),
		FileURL:       fileURL,
		QRCodeURL:     utils.GetDownloadURL(c, "api/v1/students/qrcode?url="+url.QueryEscape(fileURL)),
		ProcessedRows: rows,
	}
}

// QRCodeController renders a PNG QR code for an exported-file URL on this host.
func (sc *StudentController) QRCodeController(c *fiber.Ctx) error {
	target := c.Query("url")
	if target == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Missing url parameter", "url is required")
	}
	if !utils.IsLocalDownloadURL(c, target) {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid url parameter", "url must point at a file served by this host")
	}

	size := c.QueryInt("size", utils.DefaultQRCodeSize)
	if size < 64 || size > 1024 {
		size = utils.DefaultQRCodeSize
	}

	png, err := utils.GenerateQRCodePNG(target, size)
	if err != nil {
		config.Logger.Error("Failed to generate QR code", zap.String("url", target), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate QR code", err.Error())
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
