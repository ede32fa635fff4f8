package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	bleve_repositories "student-roster-backend/bleve/repositories"
	"student-roster-backend/config"
	"student-roster-backend/db/models"
	"student-roster-backend/middleware"
	"student-roster-backend/students/repositories"
	"student-roster-backend/students/services"
	"student-roster-backend/utils"
	"student-roster-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const studentCacheNamespace = "student"

type StudentController struct {
	StudentRepo   repositories.StudentRepository
	Pipeline      *services.ImportPipeline
	BleveRepo     bleve_repositories.BleveRepositoryInterface
	RedisClient   *redis.Client
	TaskQueue     services.Enqueuer
	Storage       utils.FileStorage
	ImportTimeout time.Duration
}

type StudentRequest struct {
	Name   string         `json:"name"`
	DOB    utils.DateOnly `json:"dob"`
	Email  string         `json:"email"`
	Mobile string         `json:"mobile"`
}

func (r StudentRequest) toModel() models.Student {
	return models.Student{
		Name:   strings.TrimSpace(r.Name),
		DOB:    r.DOB.Time(),
		Email:  strings.TrimSpace(r.Email),
		Mobile: strings.TrimSpace(r.Mobile),
	}
}

func studentID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("student id must be a positive integer")
	}
	return uint(id), nil
}

func errorResponse(c *fiber.Ctx, status int, message string, err string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"data":    nil,
		"error":   err,
	})
}

// afterMutation keeps the export cache and search index in step with the table.
func (sc *StudentController) afterMutation(indexed *models.Student, deletedID uint) {
	if sc.RedisClient != nil {
		utils.InvalidateCacheAsync(sc.RedisClient, studentCacheNamespace)
	}
	if sc.BleveRepo == nil {
		return
	}
	var err error
	if indexed != nil {
		err = sc.BleveRepo.IndexSingleStudent(*indexed)
	} else {
		err = sc.BleveRepo.DeleteStudent(deletedID)
	}
	if err != nil {
		config.Logger.Warn("Search index out of date", zap.Error(err))
	}
}

func (sc *StudentController) GetFilteredStudentsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", err.Error())
	}

	students, total, err := sc.StudentRepo.GetFilteredStudents(c.Context(), params.Filters, true, params.PageSize, params.Offset())
	if err != nil {
		config.Logger.Error("Failed to fetch students", zap.Any("filters", params.Filters), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch students", err.Error())
	}

	return c.JSON(fiber.Map{
		"message": "Students retrieved successfully",
		"data":    pagination.NewPaginatedResponse(c, students, total, params),
		"error":   nil,
	})
}

func (sc *StudentController) GetStudentController(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid student id", err.Error())
	}

	student, err := sc.StudentRepo.GetStudentByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Student not found", err.Error())
		}
		config.Logger.Error("Failed to fetch student", zap.Uint("student_id", id), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch student", err.Error())
	}

	return c.JSON(fiber.Map{
		"message": "Student retrieved successfully",
		"data":    student,
		"error":   nil,
	})
}

func (sc *StudentController) CreateStudentController(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}

	student := req.toModel()
	if reason := services.ValidateStudent(&student, utils.Now()); reason != "" {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", reason)
	}
	if user := middleware.CurrentUser(c); user != nil {
		student.CreatedBy = user.Email
	}

	created, err := sc.StudentRepo.CreateStudent(c.Context(), &student)
	if err != nil {
		config.Logger.Error("Failed to create student", zap.String("email", student.Email), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create student", err.Error())
	}

	sc.afterMutation(created, 0)
	config.Logger.Info("Student created", zap.Uint("student_id", created.ID), zap.String("created_by", created.CreatedBy))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"data":    created,
		"error":   nil,
	})
}

func (sc *StudentController) UpdateStudentController(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid student id", err.Error())
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}

	student := req.toModel()
	student.ID = id
	if reason := services.ValidateStudent(&student, utils.Now()); reason != "" {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", reason)
	}

	updated, err := sc.StudentRepo.UpdateStudent(c.Context(), &student)
	if err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Student not found", err.Error())
		}
		config.Logger.Error("Failed to update student", zap.Uint("student_id", id), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update student", err.Error())
	}

	sc.afterMutation(updated, 0)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"data":    updated,
		"error":   nil,
	})
}

func (sc *StudentController) DeleteStudentController(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid student id", err.Error())
	}

	if err := sc.StudentRepo.DeleteStudent(c.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrStudentNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "Student not found", err.Error())
		}
		config.Logger.Error("Failed to delete student", zap.Uint("student_id", id), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete student", err.Error())
	}

	sc.afterMutation(nil, id)
	config.Logger.Info("Student deleted", zap.Uint("student_id", id))

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
		"data":    nil,
		"error":   nil,
	})
}
