package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"route", "method", "code"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "schoolapi", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	GradeSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "grade_submissions_total", Help: "Grade submissions by outcome",
	}, []string{"outcome"})
	Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "failures_total", Help: "Failed operations by error kind",
	}, []string{"op", "kind"})
	Students = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "schoolapi", Name: "students_with_transcripts", Help: "Students that have at least one grade row",
	})
	AverageGPA = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "schoolapi", Name: "average_gpa", Help: "Mean GPA over students that have one",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolapi", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, GradeSubmissions, Failures, Students, AverageGPA, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveHTTP(route, method string, code int, d time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
