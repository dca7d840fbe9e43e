package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/ctxutil"
	"github.com/Spok95/school-api/internal/export"
	"github.com/Spok95/school-api/internal/metrics"
	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/observability"
	"github.com/Spok95/school-api/internal/school"
)

type studentsHandler struct {
	transcripts *school.TranscriptService
	grades      *school.GradeService
	notifier    GradeNotifier
	limiter     *SubmissionLimiter
	log         *zap.Logger
}

// GET /students
func (h *studentsHandler) list(w http.ResponseWriter, r *http.Request) {
	h.log.Info("Get:/students called")
	transcripts, err := h.transcripts.GetAllTranscripts(r.Context())
	if err != nil {
		h.fail(w, r, "students.list", err, http.StatusBadRequest)
		return
	}
	students := school.Summaries(transcripts)
	h.log.Info("Get:/students: returning students", zap.Int("count", len(students)))
	writeJSON(w, http.StatusOK, students)
}

// GET /students/alltranscripts
func (h *studentsHandler) allTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := h.transcripts.GetAllTranscripts(r.Context())
	if kind, ok := school.KindOf(err); ok && kind == school.NotFound {
		h.log.Warn("Get:/students/alltranscripts: no student transcripts")
		metrics.Failures.WithLabelValues("students.alltranscripts", kind.String()).Inc()
		writeError(w, http.StatusBadRequest, "Unable to find any student transcripts")
		return
	}
	if err != nil {
		h.fail(w, r, "students.alltranscripts", err, http.StatusBadRequest)
		return
	}
	h.log.Info("Get:/students/alltranscripts: returning transcripts", zap.Int("count", len(transcripts)))
	writeJSON(w, http.StatusOK, transcripts)
}

// GET /students/transcripts.xlsx
func (h *studentsHandler) exportTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := h.transcripts.GetAllTranscripts(r.Context())
	if err != nil {
		h.fail(w, r, "students.export", err, http.StatusBadRequest)
		return
	}
	f, err := export.NewTranscriptsWorkbook(transcripts)
	if err != nil {
		h.fail(w, r, "students.export", err, http.StatusBadRequest)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.TranscriptsFilename(time.Now())))
	if err := f.Write(w); err != nil {
		h.log.Warn("write workbook", zap.Error(err))
	}
}

// GET /students/{id}/transcript
func (h *studentsHandler) transcript(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Student Id must be an integer")
		return
	}
	h.log.Info("Get:/students/{id}/transcript called", zap.Int64("student_id", id))

	t, err := h.transcripts.GetTranscript(r.Context(), id)
	if err != nil {
		h.fail(w, r, "students.transcript", err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// POST /students/grades
func (h *studentsHandler) postGrade(w http.ResponseWriter, r *http.Request) {
	var sub models.GradeSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		metrics.GradeSubmissions.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Malformed grade: "+err.Error())
		return
	}

	unlock := h.limiter.lock(sub.StudentID)
	g, err := h.grades.SubmitGrade(r.Context(), sub)
	unlock()
	if err != nil {
		outcome := "error"
		if kind, ok := school.KindOf(err); ok {
			outcome = kind.String()
		}
		metrics.GradeSubmissions.WithLabelValues(outcome).Inc()
		h.fail(w, r, "grades.submit", err, http.StatusBadRequest)
		return
	}

	metrics.GradeSubmissions.WithLabelValues("created").Inc()
	h.log.Info("grade recorded",
		zap.Int64("grade_id", g.GradeID),
		zap.Int64("student_id", g.StudentID),
		zap.Int64("course_id", g.CourseID))
	if h.notifier != nil {
		h.notifier.GradeRecorded(r.Context(), g)
	}

	w.Header().Set("Location", fmt.Sprintf("/students/%d/transcript", g.StudentID))
	writeJSON(w, http.StatusCreated, g)
}

// fail writes the error response. Business failures get a 400, or notFoundStatus for NotFound;
// anything else is an internal error and is reported.
func (h *studentsHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error, notFoundStatus int) {
	var se *school.Error
	if errors.As(err, &se) {
		metrics.Failures.WithLabelValues(op, se.Kind.String()).Inc()
		code := http.StatusBadRequest
		if se.Kind == school.NotFound {
			code = notFoundStatus
		}
		h.log.Warn(op+" rejected", zap.String("kind", se.Kind.String()), zap.String("reason", se.Message))
		writeError(w, code, se.Message)
		return
	}

	metrics.Failures.WithLabelValues(op, "internal").Inc()
	ctx := ctxutil.WithOp(r.Context(), op)
	h.log.Error(op+" failed", append(ctxutil.Fields(ctx), zap.Error(err))...)
	observability.CaptureErrCtx(ctx, err)
	writeError(w, http.StatusInternalServerError, "")
}
