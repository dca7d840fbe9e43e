package school

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/ctxutil"
	"github.com/Spok95/school-api/internal/models"
)

// TranscriptService builds student transcripts and their GPAs.
type TranscriptService struct {
	store DataAccess
	log   *zap.Logger
}

func NewTranscriptService(store DataAccess, log *zap.Logger) *TranscriptService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TranscriptService{store: store, log: log.Named("transcripts")}
}

// GetAllTranscripts returns one transcript per student that has at least one grade row,
// ordered by student id. It can be slow on a large school.
func (s *TranscriptService) GetAllTranscripts(ctx context.Context) ([]models.Transcript, error) {
	ctx = ctxutil.WithOp(ctx, "transcripts.all")
	s.log.Debug("getting all student transcripts")

	rows, err := s.store.FetchAllTranscriptRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript rows: %w", err)
	}
	if len(rows) == 0 {
		s.log.Warn("no student transcripts found")
		return nil, newError(NotFound, "Unable to retrieve student transcripts")
	}

	transcripts := assemble(rows)

	s.log.Debug("calculating GPA", zap.Int("students", len(transcripts)))
	for i := range transcripts {
		gpa, err := CalculateGPA(transcripts[i].Grades)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", transcripts[i].StudentID, err)
		}
		transcripts[i].GPA = gpa
	}

	sort.SliceStable(transcripts, func(i, j int) bool {
		return transcripts[i].StudentID < transcripts[j].StudentID
	})

	s.log.Debug("returning transcripts", zap.Int("count", len(transcripts)))
	return transcripts, nil
}

// assemble groups join rows by student keeping the first header seen for each one.
// Rows without a recorded grade still produce a transcript, just not a grade line.
func assemble(rows []models.TranscriptRow) []models.Transcript {
	index := make(map[int64]int, len(rows))
	out := make([]models.Transcript, 0)
	for _, r := range rows {
		i, ok := index[r.StudentID]
		if !ok {
			i = len(out)
			index[r.StudentID] = i
			out = append(out, models.Transcript{
				StudentID: r.StudentID,
				FirstName: r.FirstName,
				LastName:  r.LastName,
				Grades:    []models.TranscriptGrade{},
			})
		}
		if r.Grade.Valid {
			out[i].Grades = append(out[i].Grades, r.TranscriptGrade())
		}
	}
	return out
}

// GetTranscript returns the transcript of one student.
func (s *TranscriptService) GetTranscript(ctx context.Context, studentID int64) (models.Transcript, error) {
	ctx = ctxutil.WithStudentID(ctxutil.WithOp(ctx, "transcripts.one"), studentID)
	log := s.log.With(zap.Int64("student_id", studentID))
	log.Debug("getting transcript")

	exists, err := s.store.StudentExists(ctx, studentID)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("check student %d: %w", studentID, err)
	}
	if !exists {
		log.Warn("student does not exist")
		return models.Transcript{}, newError(NotFound, "Student Id %d does not exist", studentID)
	}

	header, err := s.store.FetchStudentHeader(ctx, studentID)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("fetch student %d: %w", studentID, err)
	}
	if header == nil {
		log.Warn("student exists but no transcript header was found")
		return models.Transcript{}, newError(InconsistentState, "Unable to find a student transcript for Student Id %d", studentID)
	}

	grades, err := s.store.FetchStudentGrades(ctx, studentID)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("fetch grades of student %d: %w", studentID, err)
	}
	if grades == nil {
		grades = []models.TranscriptGrade{}
	}

	gpa, err := CalculateGPA(grades)
	if err != nil {
		return models.Transcript{}, err
	}

	return models.Transcript{
		StudentID: header.StudentID,
		FirstName: header.FirstName,
		LastName:  header.LastName,
		GPA:       gpa,
		Grades:    grades,
	}, nil
}

// Summaries projects transcripts onto the student list view.
func Summaries(transcripts []models.Transcript) []models.StudentGPA {
	out := make([]models.StudentGPA, 0, len(transcripts))
	for _, t := range transcripts {
		out = append(out, t.StudentGPA())
	}
	return out
}
