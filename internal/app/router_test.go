package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/school"
	"github.com/Spok95/school-api/internal/testutil/memstore"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func sampleSchool() *memstore.Store {
	return memstore.New().
		AddStudent(2, "Gytis", "Barzdukas").
		AddStudent(3, "Peggy", "Justice").
		AddPerson(models.Person{ID: 1, FirstName: "Kim", LastName: "Abercrombie", Discriminator: models.Instructor}).
		AddCourse(models.Course{ID: 2021, Title: "Composition", Credits: 3}).
		AddCourse(models.Course{ID: 2030, Title: "Poetry", Credits: 2}).
		AddCourse(models.Course{ID: 2042, Title: "Literature", Credits: 4})
}

type recordingNotifier struct {
	mu     sync.Mutex
	grades []models.CourseGrade
}

func (n *recordingNotifier) GradeRecorded(_ context.Context, g models.CourseGrade) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.grades = append(n.grades, g)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func newTestRouter(store *memstore.Store, n GradeNotifier) http.Handler {
	return NewRouter(Deps{
		Transcripts: school.NewTranscriptService(store, nil),
		Grades:      school.NewGradeService(store, nil),
		DB:          pinger{},
		Notifier:    n,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestListStudents(t *testing.T) {
	store := sampleSchool().
		AddGrade(models.StudentGrade{StudentID: 3, CourseID: 2042, Grade: dec("3.5")}).
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2021, Grade: dec("4")}).
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2030, Grade: dec("3.5")})
	rec := do(t, newTestRouter(store, nil), http.MethodGet, "/students", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 students, got %d", len(got))
	}
	if got[0]["studentId"] != float64(2) || got[0]["gpa"] != 3.8 {
		t.Fatalf("unexpected first student %v", got[0])
	}
	if _, ok := got[0]["grades"]; ok {
		t.Fatal("list must not carry grades")
	}
}

func TestListStudents_EmptySchool(t *testing.T) {
	rec := do(t, newTestRouter(sampleSchool(), nil), http.MethodGet, "/students", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.StatusCode != 400 || resp.StatusDescription != "BadRequest" || resp.Message != "Unable to retrieve student transcripts" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestListStudents_StorageFailure(t *testing.T) {
	store := sampleSchool()
	store.Err = errors.New("connection refused")
	rec := do(t, newTestRouter(store, nil), http.MethodGet, "/students", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.StatusDescription != "InternalServerError" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestAllTranscripts(t *testing.T) {
	store := sampleSchool().
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2021, Grade: dec("4")}).
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2042})
	h := newTestRouter(store, nil)

	rec := do(t, h, http.MethodGet, "/students/alltranscripts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var got []models.Transcript
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Grades) != 1 || got[0].Grades[0].Title != "Composition" {
		t.Fatalf("unexpected transcripts %+v", got)
	}

	rec = do(t, newTestRouter(sampleSchool(), nil), http.MethodGet, "/students/alltranscripts", "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Message != "Unable to find any student transcripts" {
		t.Fatalf("empty school: %d %s", rec.Code, rec.Body.String())
	}
}

func TestTranscript(t *testing.T) {
	store := sampleSchool().
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2030, Grade: dec("3.5")}).
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2021, Grade: dec("4")})
	h := newTestRouter(store, nil)

	rec := do(t, h, http.MethodGet, "/students/2/transcript", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"studentId":2`, `"firstName":"Gytis"`, `"gpa":3.8`, `"courseId":2021`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %s lacks %s", body, want)
		}
	}
}

func TestTranscript_Errors(t *testing.T) {
	store := sampleSchool().AddStudent(8, "Nino", "Olivotto")
	h := newTestRouter(store, nil)

	cases := []struct {
		path string
		code int
		msg  string
	}{
		{"/students/99/transcript", http.StatusNotFound, "Student Id 99 does not exist"},
		{"/students/1/transcript", http.StatusNotFound, "Student Id 1 does not exist"},
		{"/students/8/transcript", http.StatusBadRequest, "Unable to find a student transcript for Student Id 8"},
		{"/students/abc/transcript", http.StatusBadRequest, "Student Id must be an integer"},
	}
	for _, c := range cases {
		rec := do(t, h, http.MethodGet, c.path, "")
		if rec.Code != c.code {
			t.Fatalf("%s: status %d", c.path, rec.Code)
		}
		resp := decodeError(t, rec)
		if resp.Message != c.msg || resp.StatusCode != c.code {
			t.Fatalf("%s: unexpected body %+v", c.path, resp)
		}
	}
	if resp := decodeError(t, do(t, h, http.MethodGet, "/students/99/transcript", "")); resp.StatusDescription != "NotFound" {
		t.Fatalf("unexpected description %q", resp.StatusDescription)
	}
}

func TestPostGrade(t *testing.T) {
	store := sampleSchool()
	n := &recordingNotifier{}
	h := newTestRouter(store, n)

	rec := do(t, h, http.MethodPost, "/students/grades", `{"studentId":2,"courseId":2042,"grade":3.25}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/students/2/transcript" {
		t.Fatalf("location %q", loc)
	}
	var g models.CourseGrade
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatal(err)
	}
	if g.GradeID == 0 || g.StudentID != 2 || g.CourseID != 2042 || !g.Grade.Decimal.Equal(decimal.RequireFromString("3.25")) {
		t.Fatalf("unexpected grade %+v", g)
	}
	if len(n.grades) != 1 || n.grades[0].GradeID != g.GradeID {
		t.Fatalf("notifier saw %+v", n.grades)
	}

	rec = do(t, h, http.MethodPost, "/students/grades", `{"studentId":2,"courseId":2042,"grade":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: status %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; msg != "The student already has a grade entered. Use a PUT action rather than a POST" {
		t.Fatalf("duplicate: message %q", msg)
	}
	if len(n.grades) != 1 {
		t.Fatal("rejected grades must not be announced")
	}
}

func TestPostGrade_NullGrade(t *testing.T) {
	rec := do(t, newTestRouter(sampleSchool(), nil), http.MethodPost, "/students/grades", `{"studentId":3,"courseId":2021,"grade":null}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"grade":null`) {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestPostGrade_Rejected(t *testing.T) {
	h := newTestRouter(sampleSchool(), nil)
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"unknown student", `{"studentId":99,"courseId":2021,"grade":3}`, "Student Id = 99 does not exist"},
		{"instructor", `{"studentId":1,"courseId":2021,"grade":3}`, "Student Id = 1 does not exist"},
		{"unknown course", `{"studentId":2,"courseId":9999,"grade":3}`, "Course Id = 9999 does not exist"},
		{"out of range", `{"studentId":2,"courseId":2021,"grade":4.5}`, "Invalid Grade Value 4.5: A value of null or between 0 and 4 is required."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/students/grades", c.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d", rec.Code)
			}
			if msg := decodeError(t, rec).Message; msg != c.msg {
				t.Fatalf("message %q", msg)
			}
		})
	}
}

func TestPostGrade_MalformedBody(t *testing.T) {
	rec := do(t, newTestRouter(sampleSchool(), nil), http.MethodPost, "/students/grades", `{"studentId":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestPostGrade_ConcurrentDuplicates(t *testing.T) {
	store := sampleSchool()
	h := newTestRouter(store, nil)

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/students/grades", strings.NewReader(`{"studentId":3,"courseId":2030,"grade":2}`))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	if created != 1 || len(store.Grades()) != 1 {
		t.Fatalf("created %d, stored %d", created, len(store.Grades()))
	}
}

func TestExportTranscripts(t *testing.T) {
	store := sampleSchool().
		AddGrade(models.StudentGrade{StudentID: 2, CourseID: 2021, Grade: dec("4")})
	rec := do(t, newTestRouter(store, nil), http.MethodGet, "/students/transcripts.xlsx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Student transcripts") {
		t.Fatalf("content disposition %q", cd)
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue("Students", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if v != "Gytis" {
		t.Fatalf("B2 = %q", v)
	}
}

func TestHealthz(t *testing.T) {
	store := sampleSchool()
	ok := NewRouter(Deps{
		Transcripts: school.NewTranscriptService(store, nil),
		Grades:      school.NewGradeService(store, nil),
		DB:          pinger{},
	})
	if rec := do(t, ok, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	down := NewRouter(Deps{
		Transcripts: school.NewTranscriptService(store, nil),
		Grades:      school.NewGradeService(store, nil),
		DB:          pinger{err: errors.New("down")},
	})
	if rec := do(t, down, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz down: %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(sampleSchool(), nil)
	_ = do(t, h, http.MethodGet, "/students", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "schoolapi_http_requests_total") {
		t.Fatal("request counter missing from exposition")
	}
}

func TestSubmissionLimiter_ReleasesEntries(t *testing.T) {
	l := NewSubmissionLimiter()
	unlock := l.lock(2)
	unlock()
	if len(l.byID) != 0 {
		t.Fatalf("expected no entries, got %d", len(l.byID))
	}
}
