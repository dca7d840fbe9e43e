package models

import "github.com/shopspring/decimal"

type TranscriptGrade struct {
	CourseID int64               `json:"courseId"`
	Title    string              `json:"title"`
	Credits  int                 `json:"credits"`
	Grade    decimal.NullDecimal `json:"grade"`
}

type Transcript struct {
	StudentID int64               `json:"studentId"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	GPA       decimal.NullDecimal `json:"gpa"`
	Grades    []TranscriptGrade   `json:"grades"`
}

// StudentGPA is the list view of a transcript.
type StudentGPA struct {
	StudentID int64               `json:"studentId"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	GPA       decimal.NullDecimal `json:"gpa"`
}

func (t Transcript) StudentGPA() StudentGPA {
	return StudentGPA{
		StudentID: t.StudentID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		GPA:       t.GPA,
	}
}

// TranscriptRow is one student/grade/course join row.
type TranscriptRow struct {
	StudentID int64               `db:"person_id"`
	FirstName string              `db:"first_name"`
	LastName  string              `db:"last_name"`
	CourseID  int64               `db:"course_id"`
	Title     string              `db:"title"`
	Credits   int                 `db:"credits"`
	Grade     decimal.NullDecimal `db:"grade"`
}

func (r TranscriptRow) Header() StudentHeader {
	return StudentHeader{StudentID: r.StudentID, FirstName: r.FirstName, LastName: r.LastName}
}

func (r TranscriptRow) TranscriptGrade() TranscriptGrade {
	return TranscriptGrade{CourseID: r.CourseID, Title: r.Title, Credits: r.Credits, Grade: r.Grade}
}
