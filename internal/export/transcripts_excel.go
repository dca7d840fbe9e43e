package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-api/internal/models"
)

const (
	StudentsSheet = "Students"
	GradesSheet   = "Grades"
)

// NewTranscriptsWorkbook lays the transcripts out on two sheets: one row per student with the
// GPA, and one row per graded course.
func NewTranscriptsWorkbook(transcripts []models.Transcript) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(GradesSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	students := [][]any{{"Student Id", "First Name", "Last Name", "GPA", "Courses"}}
	grades := [][]any{{"Student Id", "Course Id", "Title", "Credits", "Grade"}}
	for _, t := range transcripts {
		students = append(students, []any{t.StudentID, t.FirstName, t.LastName, cellDecimal(t.GPA), len(t.Grades)})
		for _, g := range t.Grades {
			grades = append(grades, []any{t.StudentID, g.CourseID, g.Title, g.Credits, cellDecimal(g.Grade)})
		}
	}

	for sheet, rows := range map[string][][]any{StudentsSheet: students, GradesSheet: grades} {
		if err := writeRows(f, sheet, rows); err != nil {
			return nil, err
		}
		if err := ApplyDefaultExcelFormatting(f, sheet); err != nil {
			return nil, fmt.Errorf("format %s: %w", sheet, err)
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell := "A" + strconv.Itoa(i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("set row %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellDecimal leaves missing values blank and writes the rest as numbers.
func cellDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
