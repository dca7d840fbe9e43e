package school

import (
	"context"

	"github.com/Spok95/school-api/internal/models"
)

// DataAccess is the storage the services read from and write to.
type DataAccess interface {
	// StudentExists is true only for persons whose discriminator is Student.
	StudentExists(ctx context.Context, id int64) (bool, error)
	CourseExists(ctx context.Context, id int64) (bool, error)
	FindGradeRow(ctx context.Context, studentID, courseID int64) (*models.StudentGrade, error)
	FetchAllTranscriptRows(ctx context.Context) ([]models.TranscriptRow, error)
	FetchStudentHeader(ctx context.Context, studentID int64) (*models.StudentHeader, error)
	// FetchStudentGrades returns non-null grades only, ordered by course id.
	FetchStudentGrades(ctx context.Context, studentID int64) ([]models.TranscriptGrade, error)
	BeginGrades(ctx context.Context) (GradeWriter, error)
}

// GradeWriter is a unit of work for inserting grades. Rollback after Commit is a no-op.
type GradeWriter interface {
	InsertGrade(ctx context.Context, g models.StudentGrade) (models.StudentGrade, error)
	Commit() (int, error)
	Rollback() error
}
