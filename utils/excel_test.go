package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasExcelExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"students.xlsx", true},
		{"STUDENTS.XLSX", true},
		{" roster.XlSx ", true},
		{"students.xls", false},
		{"students.csv", false},
		{"xlsx", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasExcelExtension(tt.name))
		})
	}
}

func TestEncodeDecodeGrid(t *testing.T) {
	dob := time.Date(2001, time.May, 4, 0, 0, 0, 0, time.UTC)
	columns := []Column{
		{Title: "ID"},
		{Title: "Name"},
		{Title: "Date of Birth", NumFmt: "yyyy-mm-dd"},
	}
	rows := [][]interface{}{
		{1, "Ada Lovelace", dob},
		{2, "Alan Turing", dob.AddDate(1, 0, 0)},
	}

	data, err := EncodeGrid("Students", columns, rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	grid, err := DecodeGrid(data, "export.xlsx")
	require.NoError(t, err)
	defer grid.Close()

	assert.Equal(t, 3, grid.RowCount())
	assert.Equal(t, 2, grid.DataRowCount())

	header, err := grid.Cell(1, 3)
	require.NoError(t, err)
	assert.Equal(t, "Date of Birth", header)

	name, err := grid.Cell(2, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	date, err := grid.Cell(3, 3)
	require.NoError(t, err)
	assert.Equal(t, "2002-05-04", date)
}

func TestGridCellOutOfRange(t *testing.T) {
	data, err := EncodeGrid("", []Column{{Title: "ID"}, {Title: "Name"}}, [][]interface{}{{1, "Ada"}})
	require.NoError(t, err)

	grid, err := DecodeGrid(data, "a.xlsx")
	require.NoError(t, err)
	defer grid.Close()

	for _, coords := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {2, 9}, {-1, -1}} {
		value, err := grid.Cell(coords[0], coords[1])
		assert.NoError(t, err)
		assert.Empty(t, value)
	}
}

func TestDecodeGridHeaderOnly(t *testing.T) {
	data, err := EncodeGrid("Sheet1", []Column{{Title: "ID"}}, nil)
	require.NoError(t, err)

	grid, err := DecodeGrid(data, "empty.xlsx")
	require.NoError(t, err)
	defer grid.Close()

	assert.Equal(t, 1, grid.RowCount())
	assert.Equal(t, 0, grid.DataRowCount())
}

func TestDecodeGridRejectsInput(t *testing.T) {
	valid, err := EncodeGrid("Sheet1", []Column{{Title: "ID"}}, nil)
	require.NoError(t, err)

	t.Run("wrong extension", func(t *testing.T) {
		_, err := DecodeGrid(valid, "students.csv")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := DecodeGrid([]byte("id,name\n1,Ada\n"), "students.xlsx")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestExcelFileName(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "Students_Export_Tuesday_March_5_2024_at_14-07-09.xlsx", ExcelFileName("Students Export", now))
}
