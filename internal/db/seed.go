package db

import (
	"context"
	"database/sql"
	"fmt"
)

type seedPerson struct {
	id          int64
	last, first string
	role        string
}

type seedCourse struct {
	id      int64
	title   string
	credits int
	dept    int64
}

type seedGrade struct {
	course, student int64
	grade           *string
}

func gradeOf(s string) *string { return &s }

// SeedDemo loads the sample school. Existing rows are left untouched.
func SeedDemo(ctx context.Context, database *sql.DB) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	departments := map[int64]string{1: "English", 2: "Mathematics", 4: "Economics", 7: "Engineering"}
	for id, name := range departments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO department (department_id, name) VALUES ($1, $2)
			ON CONFLICT (department_id) DO NOTHING`, id, name); err != nil {
			return fmt.Errorf("seed department %d: %w", id, err)
		}
	}

	people := []seedPerson{
		{1, "Abercrombie", "Kim", "Instructor"},
		{2, "Barzdukas", "Gytis", "Student"},
		{3, "Justice", "Peggy", "Student"},
		{4, "Fakhouri", "Fadi", "Instructor"},
		{6, "Li", "Yan", "Student"},
		{7, "Norman", "Laura", "Student"},
		{8, "Olivotto", "Nino", "Student"},
	}
	for _, p := range people {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO person (person_id, last_name, first_name, discriminator) VALUES ($1, $2, $3, $4)
			ON CONFLICT (person_id) DO NOTHING`, p.id, p.last, p.first, p.role); err != nil {
			return fmt.Errorf("seed person %d: %w", p.id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('person', 'person_id'), (SELECT max(person_id) FROM person))`); err != nil {
		return fmt.Errorf("reset person sequence: %w", err)
	}

	courses := []seedCourse{
		{1045, "Calculus", 4, 2},
		{1050, "Chemistry", 4, 7},
		{2021, "Composition", 3, 1},
		{2030, "Poetry", 2, 1},
		{2042, "Literature", 4, 1},
		{4041, "Macroeconomics", 3, 4},
	}
	for _, c := range courses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO course (course_id, title, credits, department_id) VALUES ($1, $2, $3, $4)
			ON CONFLICT (course_id) DO NOTHING`, c.id, c.title, c.credits, c.dept); err != nil {
			return fmt.Errorf("seed course %d: %w", c.id, err)
		}
	}

	grades := []seedGrade{
		{2021, 2, gradeOf("4.00")},
		{2030, 2, gradeOf("3.50")},
		{2021, 3, gradeOf("3.00")},
		{2042, 3, gradeOf("3.50")},
		{1045, 6, gradeOf("2.00")},
		{1050, 6, nil},
		{4041, 7, gradeOf("3.00")},
		{1045, 8, nil},
	}
	for _, g := range grades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO student_grade (course_id, student_id, grade) VALUES ($1, $2, $3)
			ON CONFLICT (course_id, student_id) DO NOTHING`, g.course, g.student, g.grade); err != nil {
			return fmt.Errorf("seed grade %d/%d: %w", g.student, g.course, err)
		}
	}

	return tx.Commit()
}
