package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"student-roster-backend/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to, message, title, attachment string
}

func TestImportReportHandlerSendsWorkbook(t *testing.T) {
	dir := t.TempDir()
	var sent []sentEmail
	send := func(email, message, title, attachmentPath string) error {
		sent = append(sent, sentEmail{email, message, title, attachmentPath})
		return nil
	}
	handler := NewImportReportHandler(utils.NewLocalFileStorage(dir), send, nil, nil)

	task, err := NewImportErrorReportTask(ImportErrorReportPayload{
		ImportID:    uuid.New(),
		FileName:    "roster.xlsx",
		Recipient:   "admin@example.com",
		Accepted:    4,
		Diagnostics: []string{"Row 4: invalid or incomplete data"},
	})
	require.NoError(t, err)
	assert.Equal(t, TypeImportErrorReport, task.Type())

	require.NoError(t, handler.ProcessTask(context.Background(), task))

	require.Len(t, sent, 1)
	assert.Equal(t, "admin@example.com", sent[0].to)
	assert.Contains(t, sent[0].message, "1 row(s) skipped")
	assert.Equal(t, dir, filepath.Dir(sent[0].attachment))
	assert.FileExists(t, sent[0].attachment)
}

func TestImportReportHandlerSkipsEmptyReports(t *testing.T) {
	called := false
	send := func(string, string, string, string) error { called = true; return nil }
	handler := NewImportReportHandler(utils.NewLocalFileStorage(t.TempDir()), send, nil, nil)

	task, err := NewImportErrorReportTask(ImportErrorReportPayload{Recipient: "admin@example.com"})
	require.NoError(t, err)

	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.False(t, called)
}

func TestImportReportHandlerRejectsBadPayload(t *testing.T) {
	handler := NewImportReportHandler(utils.NewLocalFileStorage(t.TempDir()), nil, nil, nil)

	err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeImportErrorReport, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestBuildImportErrorReport(t *testing.T) {
	data, err := BuildImportErrorReport([]string{"Row 2: a", "Row 5: b"})
	require.NoError(t, err)

	grid, err := utils.DecodeGrid(data, "report.xlsx")
	require.NoError(t, err)
	defer grid.Close()

	assert.Equal(t, 3, grid.RowCount())
	cell, err := grid.Cell(3, 2)
	require.NoError(t, err)
	assert.Equal(t, "Row 5: b", cell)
}
