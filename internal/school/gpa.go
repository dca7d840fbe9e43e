package school

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/school-api/internal/models"
)

// CalculateGPA returns the credit-weighted average of the recorded grades, rounded half-to-even
// to two places. Grades not yet recorded count for nothing. The result is null when nothing
// was recorded.
//
// A course with credits <= 0 adds 1 to the weight but grade*credits to the sum.
func CalculateGPA(grades []models.TranscriptGrade) (decimal.NullDecimal, error) {
	weightedSum := decimal.Zero
	weight := decimal.Zero

	for _, g := range grades {
		if !g.Grade.Valid {
			continue
		}
		credits := decimal.NewFromInt(int64(g.Credits))
		if g.Credits > 0 {
			weight = weight.Add(credits)
		} else {
			weight = weight.Add(decimal.NewFromInt(1))
		}
		weightedSum = weightedSum.Add(g.Grade.Decimal.Mul(credits))
	}

	if weight.Add(weightedSum).IsZero() {
		return decimal.NullDecimal{}, nil
	}
	// Unreachable with integer credits: every recorded grade adds at least 1 to weight.
	if weight.IsZero() {
		return decimal.NullDecimal{}, newError(ArithmeticInconsistency, "Unable to calculate the GPA due to course credits = 0")
	}
	return decimal.NewNullDecimal(weightedSum.Div(weight).RoundBank(2)), nil
}
