package scenario

import (
	"UMKMForecast/internal/domain/models"

	"github.com/shopspring/decimal"
)

const daysPerYear = 365

var hundred = decimal.NewFromInt(100)

// ComputeComparison derives how candidate performs against baseline.
// Ratios against a zero baseline are reported as 0. Values are not clamped.
func ComputeComparison(baseline, candidate models.NormalizedScenario) models.Comparison {
	delta := candidate.TotalProfit.Sub(baseline.TotalProfit)
	c := models.Comparison{AdditionalProfit: delta}

	if !baseline.TotalProfit.IsZero() {
		c.ProfitImprovementPct = delta.Div(baseline.TotalProfit.Abs()).Mul(hundred)
	}
	if !baseline.TotalWaste.IsZero() {
		c.WasteReductionPct = baseline.TotalWaste.Sub(candidate.TotalWaste).
			Div(baseline.TotalWaste).Mul(hundred)
	}
	return c
}

// ComputeGapToPerfect is the profit still left on the table relative to the
// baseline. ok is false when perfect is nil; the caller must then omit the
// metric rather than show 0. A zero baseline yields 0.
func ComputeGapToPerfect(ml models.NormalizedScenario, perfect *models.NormalizedScenario, baseline models.NormalizedScenario) (gap decimal.Decimal, ok bool) {
	if perfect == nil {
		return decimal.Zero, false
	}
	if baseline.TotalProfit.IsZero() {
		return decimal.Zero, true
	}
	return perfect.TotalProfit.Sub(ml.TotalProfit).Div(baseline.TotalProfit.Abs()).Mul(hundred), true
}

// AnnualizeProfit projects the test window profit over a year of daily samples.
// ok is false when testSampleCount is not positive.
func AnnualizeProfit(ml models.NormalizedScenario, testSampleCount int) (annual decimal.Decimal, ok bool) {
	if testSampleCount <= 0 {
		return decimal.Zero, false
	}
	return ml.TotalProfit.Mul(decimal.NewFromInt(daysPerYear)).
		Div(decimal.NewFromInt(int64(testSampleCount))), true
}

// Product error bands, in units of mean absolute error.
const (
	trustMAEBelow  = 5.0
	bufferMAEBelow = 10.0
)

// ClassifyProduct returns the production advice for a product with the given MAE.
// Bands are half-open: [0,5) trust, [5,10) buffer, [10,inf) manual review.
// NaN is treated as untrusted.
func ClassifyProduct(mae float64) models.ProductAction {
	switch {
	case mae < trustMAEBelow:
		return models.ActionTrustModel
	case mae < bufferMAEBelow:
		return models.ActionAddBuffer
	default:
		return models.ActionManualReview
	}
}
