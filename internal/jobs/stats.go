package jobs

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Spok95/school-api/internal/metrics"
	"github.com/Spok95/school-api/internal/models"
	"github.com/Spok95/school-api/internal/school"
)

type TranscriptSource interface {
	GetAllTranscripts(ctx context.Context) ([]models.Transcript, error)
}

// TranscriptStats refreshes the student count and average GPA gauges.
// An empty school is not an error.
func TranscriptStats(src TranscriptSource) Job {
	return func(ctx context.Context) error {
		transcripts, err := src.GetAllTranscripts(ctx)
		if kind, ok := school.KindOf(err); ok && kind == school.NotFound {
			transcripts, err = nil, nil
		}
		if err != nil {
			return err
		}

		sum := decimal.Zero
		graded := 0
		for _, t := range transcripts {
			if t.GPA.Valid {
				sum = sum.Add(t.GPA.Decimal)
				graded++
			}
		}
		metrics.Students.Set(float64(len(transcripts)))
		if graded > 0 {
			metrics.AverageGPA.Set(sum.Div(decimal.NewFromInt(int64(graded))).InexactFloat64())
		} else {
			metrics.AverageGPA.Set(0)
		}
		return nil
	}
}
