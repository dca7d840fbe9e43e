package models

import "github.com/shopspring/decimal"

func init() {
	// grades and GPAs are rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// StudentGrade is a stored grade row. Grade is null until the instructor records it.
type StudentGrade struct {
	EnrollmentID int64               `db:"enrollment_id"`
	CourseID     int64               `db:"course_id"`
	StudentID    int64               `db:"student_id"`
	Grade        decimal.NullDecimal `db:"grade"`
}

// CourseGrade is the API view of a StudentGrade.
type CourseGrade struct {
	GradeID   int64               `json:"gradeId"`
	StudentID int64               `json:"studentId"`
	CourseID  int64               `json:"courseId"`
	Grade     decimal.NullDecimal `json:"grade"`
}

func (g StudentGrade) CourseGrade() CourseGrade {
	return CourseGrade{
		GradeID:   g.EnrollmentID,
		StudentID: g.StudentID,
		CourseID:  g.CourseID,
		Grade:     g.Grade,
	}
}

// GradeSubmission is a request to record one student's grade for one course.
type GradeSubmission struct {
	StudentID int64               `json:"studentId"`
	CourseID  int64               `json:"courseId"`
	Grade     decimal.NullDecimal `json:"grade"`
}

func (s GradeSubmission) StudentGrade() StudentGrade {
	return StudentGrade{
		CourseID:  s.CourseID,
		StudentID: s.StudentID,
		Grade:     s.Grade,
	}
}
