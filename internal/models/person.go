package models

import (
	"strings"
	"time"
)

// Role is the value of the person discriminator column.
type Role string

const (
	Student    Role = "Student"
	Instructor Role = "Instructor"
)

// Is compares roles the way the discriminator column is queried: case-insensitively.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), string(other))
}

type Person struct {
	ID             int64      `db:"person_id"`
	LastName       string     `db:"last_name"`
	FirstName      string     `db:"first_name"`
	HireDate       *time.Time `db:"hire_date"`
	EnrollmentDate *time.Time `db:"enrollment_date"`
	Discriminator  Role       `db:"discriminator"`
}

func (p Person) IsStudent() bool { return p.Discriminator.Is(Student) }

// StudentHeader identifies the owner of a transcript.
type StudentHeader struct {
	StudentID int64  `db:"person_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}
