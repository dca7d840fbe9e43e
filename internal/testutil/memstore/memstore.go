// Package memstore is an in-memory school.DataAccess for tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/school"
)

// Store keeps persons, courses and grade rows in maps. Err, when set, is returned by every call.
type Store struct {
	mu      sync.Mutex
	persons map[int64]models.Person
	courses map[int64]models.Course
	grades  []models.StudentGrade
	nextID  int64

	Err error
	// Calls records the facade methods in the order they were invoked.
	Calls []string
	// HideHeaders makes FetchStudentHeader find nothing.
	HideHeaders bool
}

func New() *Store {
	return &Store{
		persons: make(map[int64]models.Person),
		courses: make(map[int64]models.Course),
		nextID:  1,
	}
}

func (s *Store) AddPerson(p models.Person) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
	return s
}

func (s *Store) AddStudent(id int64, first, last string) *Store {
	return s.AddPerson(models.Person{ID: id, FirstName: first, LastName: last, Discriminator: models.Student})
}

func (s *Store) AddCourse(c models.Course) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
	return s
}

// AddGrade stores a row directly, bypassing validation.
func (s *Store) AddGrade(g models.StudentGrade) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.EnrollmentID = s.nextID
	s.nextID++
	s.grades = append(s.grades, g)
	return s
}

func (s *Store) Grades() []models.StudentGrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StudentGrade(nil), s.grades...)
}

func (s *Store) call(name string) error {
	s.Calls = append(s.Calls, name)
	return s.Err
}

func (s *Store) StudentExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("StudentExists"); err != nil {
		return false, err
	}
	p, ok := s.persons[id]
	return ok && p.IsStudent(), nil
}

func (s *Store) CourseExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("CourseExists"); err != nil {
		return false, err
	}
	_, ok := s.courses[id]
	return ok, nil
}

func (s *Store) FindGradeRow(_ context.Context, studentID, courseID int64) (*models.StudentGrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("FindGradeRow"); err != nil {
		return nil, err
	}
	for _, g := range s.grades {
		if g.StudentID == studentID && g.CourseID == courseID {
			g := g
			return &g, nil
		}
	}
	return nil, nil
}

func (s *Store) FetchAllTranscriptRows(_ context.Context) ([]models.TranscriptRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("FetchAllTranscriptRows"); err != nil {
		return nil, err
	}
	var out []models.TranscriptRow
	for _, g := range s.grades {
		p, ok := s.persons[g.StudentID]
		if !ok || !p.IsStudent() {
			continue
		}
		c := s.courses[g.CourseID]
		out = append(out, models.TranscriptRow{
			StudentID: p.ID, FirstName: p.FirstName, LastName: p.LastName,
			CourseID: c.ID, Title: c.Title, Credits: c.Credits, Grade: g.Grade,
		})
	}
	return out, nil
}

func (s *Store) FetchStudentHeader(_ context.Context, studentID int64) (*models.StudentHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("FetchStudentHeader"); err != nil {
		return nil, err
	}
	if s.HideHeaders {
		return nil, nil
	}
	p, ok := s.persons[studentID]
	if !ok {
		return nil, nil
	}
	for _, g := range s.grades {
		if g.StudentID == studentID {
			return &models.StudentHeader{StudentID: p.ID, FirstName: p.FirstName, LastName: p.LastName}, nil
		}
	}
	return nil, nil
}

func (s *Store) FetchStudentGrades(_ context.Context, studentID int64) ([]models.TranscriptGrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("FetchStudentGrades"); err != nil {
		return nil, err
	}
	out := make([]models.TranscriptGrade, 0)
	for _, g := range s.grades {
		if g.StudentID != studentID || !g.Grade.Valid {
			continue
		}
		c := s.courses[g.CourseID]
		out = append(out, models.TranscriptGrade{CourseID: c.ID, Title: c.Title, Credits: c.Credits, Grade: g.Grade})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (s *Store) BeginGrades(_ context.Context) (school.GradeWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("BeginGrades"); err != nil {
		return nil, err
	}
	return &writer{store: s}, nil
}

type writer struct {
	store   *Store
	pending []models.StudentGrade
	done    bool
}

func (w *writer) InsertGrade(_ context.Context, g models.StudentGrade) (models.StudentGrade, error) {
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.done {
		return models.StudentGrade{}, errors.New("memstore: transaction finished")
	}
	g.EnrollmentID = s.nextID
	s.nextID++
	w.pending = append(w.pending, g)
	return g, nil
}

// Commit rejects rows that were committed by someone else since InsertGrade.
func (w *writer) Commit() (int, error) {
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.done {
		return 0, errors.New("memstore: transaction finished")
	}
	w.done = true
	for _, p := range w.pending {
		for _, g := range s.grades {
			if g.StudentID == p.StudentID && g.CourseID == p.CourseID {
				return 0, school.ErrDuplicateGrade
			}
		}
	}
	s.grades = append(s.grades, w.pending...)
	return len(w.pending), nil
}

func (w *writer) Rollback() error {
	w.done = true
	return nil
}
