package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"student-roster-backend/db/models"
	"student-roster-backend/utils"

	"go.uber.org/zap"
)

const (
	MsgEmptyFile         = "No file uploaded or the file is empty."
	MsgUnsupportedFormat = "Invalid file format. Only .xlsx files are supported."
	MsgUnreadableFile    = "The file could not be read as an .xlsx workbook."
	MsgNoWorksheets      = "The workbook does not contain any worksheets."
	MsgNoData            = "No data found in the spreadsheet."
	MsgNoValidData       = "No valid data found to import."
)

// StudentBulkInserter persists a batch of students atomically and returns
// the number of rows written.
type StudentBulkInserter interface {
	BulkCreateStudents(ctx context.Context, students []models.Student) (int, error)
}

// RowResult is the result of turning one data row into a student: exactly one
// of Student (accepted) or Reason (skipped) is meaningful.
type RowResult struct {
	Row      int
	Accepted bool
	Student  models.Student
	Reason   string
}

func accepted(row int, s models.Student) RowResult {
	return RowResult{Row: row, Accepted: true, Student: s}
}

func skipped(row int, reason string) RowResult {
	return RowResult{Row: row, Reason: reason}
}

// Diagnostic renders the skip reason with its 1-based spreadsheet row.
func (r RowResult) Diagnostic() string {
	return fmt.Sprintf("Row %d: %s", r.Row, r.Reason)
}

// EvaluateRow parses and validates one row without side effects.
func EvaluateRow(grid CellSource, row int, now time.Time) RowResult {
	student, err := ParseStudentRow(grid, row, now)
	if err != nil {
		return skipped(row, err.Error())
	}
	if reason := ValidateStudent(&student, now); reason != "" {
		return skipped(row, "invalid or incomplete data")
	}
	return accepted(row, student)
}

type ImportOutcome struct {
	Success       bool             `json:"success"`
	AcceptedCount int              `json:"accepted_count"`
	SkippedCount  int              `json:"skipped_count"`
	Message       string           `json:"message"`
	Diagnostics   []string         `json:"diagnostics"`
	Students      []models.Student `json:"students"`
	ImportedAt    time.Time        `json:"imported_at"`
	ImportedBy    string           `json:"imported_by"`
}

func newImportOutcome(importedBy string, now time.Time) *ImportOutcome {
	return &ImportOutcome{
		Diagnostics: []string{},
		Students:    []models.Student{},
		ImportedAt:  now,
		ImportedBy:  importedBy,
	}
}

func (o *ImportOutcome) fold(r RowResult) {
	if r.Accepted {
		o.Students = append(o.Students, r.Student)
		return
	}
	o.SkippedCount++
	o.Diagnostics = append(o.Diagnostics, r.Diagnostic())
}

func (o *ImportOutcome) reject(message string) ImportOutcome {
	o.Success = false
	o.Message = message
	return *o
}

// ImportPipeline turns an uploaded workbook into persisted students, keeping
// every valid row and reporting every skipped one.
type ImportPipeline struct {
	store  StudentBulkInserter
	logger *zap.Logger
	now    func() time.Time
}

func NewImportPipeline(store StudentBulkInserter, logger *zap.Logger) *ImportPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportPipeline{store: store, logger: logger, now: utils.Now}
}

// WithClock replaces the time source used for date defaults and validation.
func (p *ImportPipeline) WithClock(now func() time.Time) *ImportPipeline {
	p.now = now
	return p
}

// Import never returns an error: every failure is described by the outcome.
func (p *ImportPipeline) Import(ctx context.Context, data []byte, declaredName, importedBy string) ImportOutcome {
	now := p.now()
	outcome := newImportOutcome(importedBy, now)
	log := p.logger.With(zap.String("file", declaredName), zap.String("imported_by", importedBy))

	if len(data) == 0 {
		return outcome.reject(MsgEmptyFile)
	}
	if !utils.HasExcelExtension(declaredName) {
		return outcome.reject(MsgUnsupportedFormat)
	}

	grid, err := utils.DecodeGrid(data, declaredName)
	if err != nil {
		log.Warn("Rejected student import", zap.Error(err))
		if errors.Is(err, utils.ErrNoData) {
			return outcome.reject(MsgNoWorksheets)
		}
		return outcome.reject(MsgUnreadableFile)
	}
	defer grid.Close()

	return p.importGrid(ctx, grid, outcome, now, log)
}

// ImportGrid runs the row scan and persistence over an already decoded grid.
func (p *ImportPipeline) ImportGrid(ctx context.Context, grid CellSource, importedBy string) ImportOutcome {
	now := p.now()
	return p.importGrid(ctx, grid, newImportOutcome(importedBy, now), now, p.logger.With(zap.String("imported_by", importedBy)))
}

func (p *ImportPipeline) importGrid(ctx context.Context, grid CellSource, outcome *ImportOutcome, now time.Time, log *zap.Logger) ImportOutcome {
	rowCount := grid.RowCount()
	if rowCount < 2 {
		return outcome.reject(MsgNoData)
	}

	for row := 2; row <= rowCount; row++ {
		outcome.fold(EvaluateRow(grid, row, now))
	}

	if len(outcome.Students) == 0 {
		outcome.Success = false
		if len(outcome.Diagnostics) == 0 {
			outcome.Message = MsgNoValidData
		}
		log.Info("Student import found no valid rows", zap.Int("skipped", outcome.SkippedCount))
		return *outcome
	}

	inserted, err := p.store.BulkCreateStudents(ctx, outcome.Students)
	if err != nil {
		log.Error("Failed to save imported students", zap.Int("rows", len(outcome.Students)), zap.Error(err))
		outcome.Success = false
		outcome.AcceptedCount = 0
		outcome.Message = fmt.Sprintf("Error saving students: %v", err)
		return *outcome
	}

	outcome.Success = true
	outcome.AcceptedCount = inserted
	outcome.Message = fmt.Sprintf("%d student(s) imported successfully.", inserted)
	if outcome.SkippedCount > 0 {
		outcome.Message = fmt.Sprintf("%d student(s) imported, %d row(s) skipped.", inserted, outcome.SkippedCount)
	}
	log.Info("Student import completed",
		zap.Int("accepted", outcome.AcceptedCount),
		zap.Int("skipped", outcome.SkippedCount),
	)
	return *outcome
}
