package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Spok95/school-api/internal/metrics"
	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/observability"
	"github.com/Spok95/school-api/internal/school"
)

// Pinger is the part of *sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GradeNotifier is told about every grade that was recorded.
type GradeNotifier interface {
	GradeRecorded(ctx context.Context, g models.CourseGrade)
}

type Deps struct {
	Transcripts    *school.TranscriptService
	Grades         *school.GradeService
	DB             Pinger
	Notifier       GradeNotifier
	Log            *zap.Logger
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observeRequests)
	r.Use(middleware.Recoverer)
	r.Use(observability.HTTPHandler().Handle)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", healthz(d.DB))
	r.Handle("/metrics", metrics.Handler())

	h := &studentsHandler{
		transcripts: d.Transcripts,
		grades:      d.Grades,
		notifier:    d.Notifier,
		limiter:     NewSubmissionLimiter(),
		log:         d.Log.Named("http"),
	}
	r.Route("/students", func(r chi.Router) {
		r.Use(middleware.Timeout(d.RequestTimeout))
		r.Get("/", h.list)
		r.Get("/alltranscripts", h.allTranscripts)
		r.Get("/transcripts.xlsx", h.exportTranscripts)
		r.Get("/{id}/transcript", h.transcript)
		r.Post("/grades", h.postGrade)
	})
	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			_, _ = w.Write([]byte("ok"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	}
}

// observeRequests records count and latency per matched route pattern.
func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		metrics.ObserveHTTP(route, r.Method, code, time.Since(start))
	})
}
