package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	ExcelExtension   = ".xlsx"
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoData            = errors.New("spreadsheet contains no data")
)

// HasExcelExtension reports whether name ends in .xlsx, ignoring case.
func HasExcelExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ExcelExtension)
}

// EnsureDirectoryExists ensures the specified directory exists before file saving
func EnsureDirectoryExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	return nil
}

// Grid is a read-only view of the first worksheet of a workbook.
// Rows and columns are 1-indexed; row 1 holds the column headers.
type Grid struct {
	file  *excelize.File
	sheet string
	rows  int
}

// DecodeGrid opens an .xlsx payload and exposes its first worksheet.
func DecodeGrid(data []byte, declaredName string) (*Grid, error) {
	if !HasExcelExtension(declaredName) {
		return nil, fmt.Errorf("%w: %q is not an %s file", ErrUnsupportedFormat, declaredName, ExcelExtension)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrNoData)
	}

	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}

	return &Grid{file: f, sheet: sheet, rows: len(rows)}, nil
}

// RowCount is the number of rows including the header.
func (g *Grid) RowCount() int {
	return g.rows
}

// DataRowCount is the number of rows below the header.
func (g *Grid) DataRowCount() int {
	if g.rows < 1 {
		return 0
	}
	return g.rows - 1
}

// Cell returns the displayed text of a cell. Coordinates outside the sheet
// yield an empty string.
func (g *Grid) Cell(row, col int) (string, error) {
	if row < 1 || col < 1 || row > g.rows {
		return "", nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", nil
	}
	value, err := g.file.GetCellValue(g.sheet, name)
	if err != nil {
		return "", fmt.Errorf("cannot read cell %s: %w", name, err)
	}
	return value, nil
}

func (g *Grid) Close() error {
	return g.file.Close()
}

// Column describes one column written by EncodeGrid. NumFmt, when set, is
// applied to every data cell of the column (e.g. "yyyy-mm-dd").
type Column struct {
	Title  string
	NumFmt string
	Width  float64
}

// EncodeGrid writes a single-sheet workbook: a bold header row followed by
// rows in order. Cell values are written with their Go types, so time.Time
// becomes a date-typed cell.
func EncodeGrid(sheetName string, columns []Column, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return nil, fmt.Errorf("error naming sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %w", err)
	}

	for col, column := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, column.Title); err != nil {
			return nil, fmt.Errorf("error setting header %s: %w", column.Title, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("error styling header %s: %w", column.Title, err)
		}
		if column.Width > 0 {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sheetName, name, name, column.Width); err != nil {
				return nil, fmt.Errorf("error sizing column %s: %w", name, err)
			}
		}
	}

	for i, values := range rows {
		rowNum := i + 2
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("error setting value at %s: %w", cell, err)
			}
		}
	}

	if len(rows) > 0 {
		for col, column := range columns {
			if column.NumFmt == "" {
				continue
			}
			numFmt := column.NumFmt
			style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
			if err != nil {
				return nil, fmt.Errorf("error creating number format %q: %w", numFmt, err)
			}
			first, _ := excelize.CoordinatesToCellName(col+1, 2)
			last, _ := excelize.CoordinatesToCellName(col+1, len(rows)+1)
			if err := f.SetCellStyle(sheetName, first, last, style); err != nil {
				return nil, fmt.Errorf("error applying number format to %s:%s: %w", first, last, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExcelFileName builds a file name for a generated workbook using the task
// name and a readable timestamp.
func ExcelFileName(taskName string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d_%d_at_%s%s",
		CleanStringForFilename(taskName),
		now.Weekday().String(),
		now.Month().String(),
		now.Day(),
		now.Year(),
		now.Format("15-04-05"),
		ExcelExtension,
	)
}
