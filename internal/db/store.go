package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Spok95/school-api/internal/ctxutil"
	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/school"
)

const (
	uniqueViolation       = "23505"
	gradeUniqueConstraint = "student_grade_course_student_unique"
)

// Store answers the transcript and grade queries over Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

func (s *Store) StudentExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM person
			WHERE person_id = $1 AND lower(discriminator) = 'student'
		)`, id).Scan(&ok)
	return ok, err
}

func (s *Store) CourseExists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM course WHERE course_id = $1)`, id).Scan(&ok)
	return ok, err
}

// FindGradeRow returns nil when the student has no grade row for the course.
func (s *Store) FindGradeRow(ctx context.Context, studentID, courseID int64) (*models.StudentGrade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var g models.StudentGrade
	err := s.db.QueryRowContext(ctx, `
		SELECT enrollment_id, course_id, student_id, grade
		FROM student_grade
		WHERE course_id = $1 AND student_id = $2
		LIMIT 1`, courseID, studentID).Scan(&g.EnrollmentID, &g.CourseID, &g.StudentID, &g.Grade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FetchAllTranscriptRows returns every grade row of every student, null grades included,
// joined with the student and the course.
func (s *Store) FetchAllTranscriptRows(ctx context.Context) ([]models.TranscriptRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.person_id, p.first_name, p.last_name, c.course_id, c.title, c.credits, g.grade
		FROM person p
		JOIN student_grade g ON g.student_id = p.person_id
		JOIN course c ON c.course_id = g.course_id
		WHERE lower(p.discriminator) = 'student'
		ORDER BY p.person_id, c.course_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.TranscriptRow
	for rows.Next() {
		var r models.TranscriptRow
		if err := rows.Scan(&r.StudentID, &r.FirstName, &r.LastName, &r.CourseID, &r.Title, &r.Credits, &r.Grade); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchStudentHeader only finds students that have at least one grade row.
func (s *Store) FetchStudentHeader(ctx context.Context, studentID int64) (*models.StudentHeader, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var h models.StudentHeader
	err := s.db.QueryRowContext(ctx, `
		SELECT p.person_id, p.first_name, p.last_name
		FROM person p
		JOIN student_grade g ON g.student_id = p.person_id
		WHERE p.person_id = $1
		LIMIT 1`, studentID).Scan(&h.StudentID, &h.FirstName, &h.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) FetchStudentGrades(ctx context.Context, studentID int64) ([]models.TranscriptGrade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.course_id, c.title, c.credits, g.grade
		FROM student_grade g
		JOIN course c ON c.course_id = g.course_id
		WHERE g.student_id = $1 AND g.grade IS NOT NULL
		ORDER BY c.course_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.TranscriptGrade, 0)
	for rows.Next() {
		var g models.TranscriptGrade
		if err := rows.Scan(&g.CourseID, &g.Title, &g.Credits, &g.Grade); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// BeginGrades starts a read-committed transaction for grade inserts.
// ctx must outlive the transaction: cancelling it rolls the transaction back.
func (s *Store) BeginGrades(ctx context.Context) (school.GradeWriter, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return &gradeTx{tx: tx}, nil
}

type gradeTx struct {
	tx       *sql.Tx
	inserted int
	done     bool
}

func (t *gradeTx) InsertGrade(ctx context.Context, g models.StudentGrade) (models.StudentGrade, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO student_grade (course_id, student_id, grade)
		VALUES ($1, $2, $3)
		RETURNING enrollment_id, grade`, g.CourseID, g.StudentID, g.Grade).Scan(&g.EnrollmentID, &g.Grade)
	if err != nil {
		return models.StudentGrade{}, translate(err)
	}
	t.inserted++
	return g, nil
}

// Commit returns the number of rows written by the transaction.
func (t *gradeTx) Commit() (int, error) {
	if err := t.tx.Commit(); err != nil {
		return 0, translate(err)
	}
	t.done = true
	return t.inserted, nil
}

func (t *gradeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// translate maps a violation of the (course, student) unique index from either driver onto
// school.ErrDuplicateGrade. Other unique violations pass through.
func translate(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", school.ErrDuplicateGrade, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == gradeUniqueConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == gradeUniqueConstraint
	}
	return false
}
