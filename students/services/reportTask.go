package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"student-roster-backend/db/models"
	"student-roster-backend/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TypeImportErrorReport = "student:import_error_report"

// ImportErrorReportPayload is the asynq payload for TypeImportErrorReport.
type ImportErrorReportPayload struct {
	ImportID    uuid.UUID `json:"import_id"`
	FileName    string    `json:"file_name"`
	Recipient   string    `json:"recipient"`
	Accepted    int       `json:"accepted"`
	Diagnostics []string  `json:"diagnostics"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewImportErrorReportTask(p ImportErrorReportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import error report payload: %w", err)
	}
	return asynq.NewTask(TypeImportErrorReport, payload, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// EmailSender matches utils.SendEmail.
type EmailSender func(email, message, title, attachmentPath string) error

// ImportReportHandler writes skipped-row diagnostics to a workbook and mails
// it to whoever ran the import.
type ImportReportHandler struct {
	storage utils.FileStorage
	send    EmailSender
	db      *gorm.DB
	logger  *zap.Logger
}

func NewImportReportHandler(storage utils.FileStorage, send EmailSender, db *gorm.DB, logger *zap.Logger) *ImportReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportReportHandler{storage: storage, send: send, db: db, logger: logger}
}

// BuildImportErrorReport renders diagnostics as a two-column workbook.
func BuildImportErrorReport(diagnostics []string) ([]byte, error) {
	rows := make([][]interface{}, 0, len(diagnostics))
	for i, d := range diagnostics {
		rows = append(rows, []interface{}{i + 1, d})
	}
	return utils.EncodeGrid("Skipped Rows", []utils.Column{
		{Title: "#", Width: 6},
		{Title: "Diagnostic", Width: 80},
	}, rows)
}

func (h *ImportReportHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ImportErrorReportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid import error report payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Recipient == "" || len(p.Diagnostics) == 0 {
		h.logger.Debug("Nothing to report for import", zap.String("import_id", p.ImportID.String()))
		return nil
	}

	report, err := BuildImportErrorReport(p.Diagnostics)
	if err != nil {
		return err
	}

	fileName := utils.ExcelFileName("Import_Errors_"+p.FileName, utils.Now())
	path, err := h.storage.UploadFileFromReader(bytes.NewReader(report), fileName)
	if err != nil {
		return fmt.Errorf("failed to save import error report: %w", err)
	}

	subject := "Student import: skipped rows"
	message := fmt.Sprintf(
		"Your import of %s finished with %d student(s) saved and %d row(s) skipped.\nThe attached workbook lists every skipped row.",
		p.FileName, p.Accepted, len(p.Diagnostics),
	)
	if err := h.send(p.Recipient, message, subject, path); err != nil {
		return fmt.Errorf("failed to email import error report: %w", err)
	}

	if h.db != nil {
		active := true
		emailLog := models.EmailLog{
			ID:             uuid.New(),
			Recipient:      p.Recipient,
			Subject:        subject,
			Message:        message,
			SentAt:         time.Now(),
			Active:         &active,
			AttachmentPath: path,
		}
		if err := h.db.WithContext(ctx).Create(&emailLog).Error; err != nil {
			h.logger.Warn("Failed to record email log", zap.String("recipient", p.Recipient), zap.Error(err))
		}
	}

	h.logger.Info("Import error report sent",
		zap.String("import_id", p.ImportID.String()),
		zap.String("recipient", p.Recipient),
		zap.Int("diagnostics", len(p.Diagnostics)),
	)
	return nil
}
