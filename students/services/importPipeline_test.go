package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	"student-roster-backend/db/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeGrid holds data rows below an implicit header row.
type fakeGrid struct {
	rows    [][]string
	failRow int
}

func (g *fakeGrid) RowCount() int { return len(g.rows) + 1 }

func (g *fakeGrid) Cell(row, col int) (string, error) {
	if row == g.failRow {
		return "", errors.New("cannot read cell")
	}
	idx := row - 2
	if idx < 0 || idx >= len(g.rows) || col < 1 || col > len(g.rows[idx]) {
		return "", nil
	}
	return g.rows[idx][col-1], nil
}

type fakeStore struct {
	calls    int
	received []models.Student
	err      error
}

func (s *fakeStore) BulkCreateStudents(ctx context.Context, students []models.Student) (int, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.err != nil {
		return 0, s.err
	}
	s.received = append(s.received, students...)
	return len(students), nil
}

func validRow(i int) []string {
	return []string{"", fmt.Sprintf("Student %d", i), "2005-03-0" + fmt.Sprint(i%9+1), fmt.Sprintf("student%d@example.com", i), "0771234567"}
}

func newTestPipeline(store StudentBulkInserter) *ImportPipeline {
	return NewImportPipeline(store, nil).WithClock(fixedClock)
}

func TestImportGridAllValid(t *testing.T) {
	store := &fakeStore{}
	grid := &fakeGrid{rows: [][]string{validRow(1), validRow(2), validRow(3)}}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), grid, "admin@example.com")

	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.AcceptedCount)
	assert.Zero(t, outcome.SkippedCount)
	assert.Empty(t, outcome.Diagnostics)
	assert.Len(t, outcome.Students, 3)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "admin@example.com", outcome.ImportedBy)
	assert.Equal(t, fixedNow, outcome.ImportedAt)
}

func TestImportGridSkipsInvalidRow(t *testing.T) {
	store := &fakeStore{}
	rows := [][]string{validRow(1), validRow(2), validRow(3), validRow(4), validRow(5)}
	rows[2][3] = ""
	grid := &fakeGrid{rows: rows}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), grid, "admin@example.com")

	assert.True(t, outcome.Success)
	assert.Equal(t, 4, outcome.AcceptedCount)
	assert.Equal(t, 1, outcome.SkippedCount)
	assert.Equal(t, []string{"Row 4: invalid or incomplete data"}, outcome.Diagnostics)
	require.Len(t, store.received, 4)
	for _, s := range store.received {
		assert.NotEqual(t, "Student 3", s.Name)
	}
}

func TestImportGridHeaderOnly(t *testing.T) {
	store := &fakeStore{}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), &fakeGrid{}, "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Equal(t, MsgNoData, outcome.Message)
	assert.Empty(t, outcome.Diagnostics)
	assert.Zero(t, store.calls)
}

func TestImportGridNoValidRows(t *testing.T) {
	store := &fakeStore{}
	grid := &fakeGrid{rows: [][]string{
		{"", "", "2005-01-01", "a@example.com", ""},
		{"", "Bob", "2005-01-01", "not-an-email", ""},
	}}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), grid, "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Message)
	assert.Equal(t, 2, outcome.SkippedCount)
	assert.Equal(t, []string{
		"Row 2: invalid or incomplete data",
		"Row 3: invalid or incomplete data",
	}, outcome.Diagnostics)
	assert.Zero(t, store.calls)
}

func TestImportGridBlankRowsOnly(t *testing.T) {
	store := &fakeStore{}
	outcome := newTestPipeline(store).ImportGrid(context.Background(), &fakeGrid{rows: [][]string{{}}}, "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Equal(t, []string{"Row 2: invalid or incomplete data"}, outcome.Diagnostics)
}

func TestImportGridCellReadFailureDoesNotAbort(t *testing.T) {
	store := &fakeStore{}
	grid := &fakeGrid{rows: [][]string{validRow(1), validRow(2), validRow(3)}, failRow: 3}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), grid, "admin@example.com")

	assert.True(t, outcome.Success)
	assert.Equal(t, 2, outcome.AcceptedCount)
	assert.Equal(t, []string{"Row 3: cannot read cell"}, outcome.Diagnostics)
}

func TestImportGridStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection lost")}
	grid := &fakeGrid{rows: [][]string{validRow(1)}}

	outcome := newTestPipeline(store).ImportGrid(context.Background(), grid, "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Zero(t, outcome.AcceptedCount)
	assert.Equal(t, "Error saving students: connection lost", outcome.Message)
	assert.Equal(t, 1, store.calls)
}

func TestImportGridHonoursContext(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newTestPipeline(store).ImportGrid(ctx, &fakeGrid{rows: [][]string{validRow(1)}}, "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, context.Canceled.Error())
}

func TestImportRejectsUpfront(t *testing.T) {
	workbook, err := ExportStudentsToExcel([]models.Student{{ID: 1, Name: "Ada", DOB: fixedNow.AddDate(-20, 0, 0), Email: "ada@example.com"}})
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     string
	}{
		{"empty payload", nil, "students.xlsx", MsgEmptyFile},
		{"xls extension", workbook, "students.xls", MsgUnsupportedFormat},
		{"csv extension", []byte("a,b"), "students.csv", MsgUnsupportedFormat},
		{"unreadable workbook", []byte("definitely not a zip"), "students.xlsx", MsgUnreadableFile},
		{"no worksheets", withoutSheets(t, workbook), "students.xlsx", MsgNoWorksheets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			outcome := newTestPipeline(store).Import(context.Background(), tt.data, tt.fileName, "admin@example.com")

			assert.False(t, outcome.Success)
			assert.Equal(t, tt.want, outcome.Message)
			assert.Empty(t, outcome.Diagnostics)
			assert.Zero(t, outcome.SkippedCount)
			assert.Zero(t, store.calls)
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	students := []models.Student{
		{ID: 7, Name: "Ada Lovelace", DOB: time.Date(2001, time.May, 4, 0, 0, 0, 0, time.UTC), Email: "ada@example.com", Mobile: "0771000000"},
		{ID: 8, Name: "Alan Turing", DOB: time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC), Email: "alan@example.com", Mobile: "0772000000"},
	}

	workbook, err := ExportStudentsToExcel(students)
	require.NoError(t, err)

	store := &fakeStore{}
	outcome := newTestPipeline(store).Import(context.Background(), workbook, "Roster.XLSX", "admin@example.com")

	require.True(t, outcome.Success, outcome.Message)
	assert.Equal(t, 2, outcome.AcceptedCount)
	require.Len(t, store.received, 2)
	for i, got := range store.received {
		assert.Zero(t, got.ID, "ids are assigned by the store")
		assert.Equal(t, students[i].Name, got.Name)
		assert.Equal(t, students[i].Email, got.Email)
		assert.Equal(t, students[i].Mobile, got.Mobile)
		assert.True(t, students[i].DOB.Equal(got.DOB), "dob %s != %s", students[i].DOB, got.DOB)
	}
}

func TestImportHeaderOnlyWorkbook(t *testing.T) {
	workbook, err := ExportStudentsToExcel(nil)
	require.NoError(t, err)

	outcome := newTestPipeline(&fakeStore{}).Import(context.Background(), workbook, "students.xlsx", "admin@example.com")

	assert.False(t, outcome.Success)
	assert.Equal(t, MsgNoData, outcome.Message)
	assert.Empty(t, outcome.Diagnostics)
}

var sheetEntry = regexp.MustCompile(`<sheet\s[^>]*?(/>|>\s*</sheet>)`)

// withoutSheets rewrites xl/workbook.xml of an .xlsx payload so it lists no
// worksheets, leaving every other part untouched.
func withoutSheets(t *testing.T, workbook []byte) []byte {
	t.Helper()

	src, err := zip.NewReader(bytes.NewReader(workbook), int64(len(workbook)))
	require.NoError(t, err)

	var out bytes.Buffer
	dst := zip.NewWriter(&out)
	for _, f := range src.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		if f.Name == "xl/workbook.xml" {
			stripped := sheetEntry.ReplaceAll(content, nil)
			require.NotEqual(t, content, stripped, "workbook.xml should list a sheet")
			content = stripped
		}

		w, err := dst.Create(f.Name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, dst.Close())
	return out.Bytes()
}

func TestImportGridHundredYearBoundary(t *testing.T) {
	row := func(dob string) []string {
		return []string{"", "Old Timer", dob, "old@example.com", "0771234567"}
	}

	tests := []struct {
		name     string
		dob      string
		accepted bool
	}{
		{"exactly 100 years ago", "1924-06-15", true},
		{"100 years and a day ago", "1924-06-14", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			outcome := newTestPipeline(store).ImportGrid(context.Background(), &fakeGrid{rows: [][]string{row(tt.dob)}}, "admin@example.com")

			if tt.accepted {
				require.True(t, outcome.Success, outcome.Message)
				assert.Equal(t, 1, outcome.AcceptedCount)
				assert.Empty(t, outcome.Diagnostics)
				require.Len(t, store.received, 1)
				assert.Equal(t, time.Date(1924, time.June, 15, 0, 0, 0, 0, time.UTC), store.received[0].DOB)
				return
			}
			assert.False(t, outcome.Success)
			assert.Zero(t, outcome.AcceptedCount)
			assert.Equal(t, []string{"Row 2: invalid or incomplete data"}, outcome.Diagnostics)
			assert.Zero(t, store.calls)
		})
	}
}
