package school

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/ctxutil"
	"github.com/Spok95/school-api/internal/models"
)

var (
	minGrade = decimal.Zero
	maxGrade = decimal.NewFromInt(4)
)

// GradeService validates and records new course grades.
type GradeService struct {
	store DataAccess
	log   *zap.Logger
}

func NewGradeService(store DataAccess, log *zap.Logger) *GradeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GradeService{store: store, log: log.Named("grades")}
}

// Validate checks a submission against the business rules in order and stops at the first
// failure: student, course, grade range, then uniqueness.
func (s *GradeService) Validate(ctx context.Context, sub models.GradeSubmission) error {
	ok, err := s.store.StudentExists(ctx, sub.StudentID)
	if err != nil {
		return fmt.Errorf("check student %d: %w", sub.StudentID, err)
	}
	if !ok {
		return newError(InvalidReference, "Student Id = %d does not exist", sub.StudentID)
	}

	ok, err = s.store.CourseExists(ctx, sub.CourseID)
	if err != nil {
		return fmt.Errorf("check course %d: %w", sub.CourseID, err)
	}
	if !ok {
		return newError(InvalidReference, "Course Id = %d does not exist", sub.CourseID)
	}

	if sub.Grade.Valid {
		g := sub.Grade.Decimal
		if g.LessThan(minGrade) || g.GreaterThan(maxGrade) {
			return newError(OutOfRange, "Invalid Grade Value %s: A value of null or between 0 and 4 is required.", g.String())
		}
	}

	existing, err := s.store.FindGradeRow(ctx, sub.StudentID, sub.CourseID)
	if err != nil {
		return fmt.Errorf("find grade of student %d course %d: %w", sub.StudentID, sub.CourseID, err)
	}
	if existing != nil {
		return duplicateGrade(nil)
	}
	return nil
}

// SubmitGrade records a validated grade and returns it with its generated id.
// The uniqueness check and the insert are not one serializable transaction; a concurrent
// duplicate is caught by the unique index and still reported as a conflict.
func (s *GradeService) SubmitGrade(ctx context.Context, sub models.GradeSubmission) (models.CourseGrade, error) {
	ctx = ctxutil.WithStudentID(ctxutil.WithOp(ctx, "grades.submit"), sub.StudentID)
	log := s.log.With(zap.Int64("student_id", sub.StudentID), zap.Int64("course_id", sub.CourseID))

	if err := s.Validate(ctx, sub); err != nil {
		log.Debug("grade rejected", zap.Error(err))
		return models.CourseGrade{}, err
	}

	w, err := s.store.BeginGrades(ctx)
	if err != nil {
		return models.CourseGrade{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = w.Rollback() }()

	stored, err := w.InsertGrade(ctx, sub.StudentGrade())
	if err != nil {
		if errors.Is(err, ErrDuplicateGrade) {
			return models.CourseGrade{}, duplicateGrade(err)
		}
		return models.CourseGrade{}, fmt.Errorf("insert grade: %w", err)
	}
	n, err := w.Commit()
	if err != nil {
		if errors.Is(err, ErrDuplicateGrade) {
			return models.CourseGrade{}, duplicateGrade(err)
		}
		return models.CourseGrade{}, fmt.Errorf("commit grade: %w", err)
	}

	log.Debug("grade recorded", zap.Int64("grade_id", stored.EnrollmentID), zap.Int("rows", n))
	return stored.CourseGrade(), nil
}

func duplicateGrade(cause error) *Error {
	e := newError(Conflict, "The student already has a grade entered. Use a PUT action rather than a POST")
	e.Err = cause
	return e
}
