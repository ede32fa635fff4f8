package services

import (
	"student-roster-backend/db/models"
	"student-roster-backend/utils"
)

const ExportSheetName = "Students"

var exportColumns = []utils.Column{
	{Title: "ID", Width: 8},
	{Title: "Name", Width: 30},
	{Title: "Date of Birth", NumFmt: "yyyy-mm-dd", Width: 15},
	{Title: "Email", Width: 35},
	{Title: "Mobile", Width: 18},
}

// ExportStudentsToExcel writes students in the import column layout, so an
// exported workbook can be imported again.
func ExportStudentsToExcel(students []models.Student) ([]byte, error) {
	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		rows = append(rows, []interface{}{s.ID, s.Name, s.DOB, s.Email, s.Mobile})
	}
	return utils.EncodeGrid(ExportSheetName, exportColumns, rows)
}
