package services

import (
	"strconv"
	"strings"
	"time"

	"student-roster-backend/db/models"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// Fixed import column layout. Column 1 carries the exported ID and is ignored.
const (
	colName   = 2
	colDOB    = 3
	colEmail  = 4
	colMobile = 5
)

// CellSource is the read side of a decoded spreadsheet (see utils.Grid).
type CellSource interface {
	Cell(row, col int) (string, error)
	RowCount() int
}

// dobLayouts are tried in order, exact match only.
var dobLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01-02-06",
	"02.01.2006",
	// Ambiguous slash dates read day-first; month-first only matches when day > 12.
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseStudentRow maps one data row to a candidate student. It only fails
// when a cell cannot be read; malformed values are left for ValidateStudent.
func ParseStudentRow(grid CellSource, row int, now time.Time) (models.Student, error) {
	name, err := grid.Cell(row, colName)
	if err != nil {
		return models.Student{}, err
	}
	rawDOB, err := grid.Cell(row, colDOB)
	if err != nil {
		return models.Student{}, err
	}
	email, err := grid.Cell(row, colEmail)
	if err != nil {
		return models.Student{}, err
	}
	mobile, err := grid.Cell(row, colMobile)
	if err != nil {
		return models.Student{}, err
	}

	return models.Student{
		Name:   strings.TrimSpace(name),
		DOB:    ParseDOB(rawDOB, now),
		Email:  strings.TrimSpace(email),
		Mobile: strings.TrimSpace(mobile),
	}, nil
}

// DefaultDOB is used when a date of birth is missing or unparseable.
func DefaultDOB(now time.Time) time.Time {
	return now.AddDate(-18, 0, 0)
}

// ParseDOB never fails: explicit layouts, then an Excel serial number, then
// flexible parsing, then DefaultDOB.
func ParseDOB(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDOB(now)
	}

	loc := now.Location()
	for _, layout := range dobLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc)
		}
	}

	if t, err := cast.StringToDateInDefaultLocation(raw, loc); err == nil {
		return t
	}

	return DefaultDOB(now)
}
