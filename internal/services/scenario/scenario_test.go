package scenario

import (
	"encoding/json"
	"math"
	"testing"

	"UMKMForecast/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}

func scenarioOf(profit, waste string) models.NormalizedScenario {
	return models.NormalizedScenario{TotalProfit: dec(profit), TotalWaste: dec(waste)}
}

func TestNormalizeKeySpellingInvariance(t *testing.T) {
	display := models.RawScenario{"Total Profit": 1200.5, "Total Waste": 30.0, "Total Stockouts": 4.0, "Service Level": 97.5}
	snake := models.RawScenario{"total_profit": 1200.5, "total_waste": 30.0, "total_stockouts": 4.0, "service_level": 97.5}

	a, b := Normalize(display), Normalize(snake)
	assert.True(t, a.TotalProfit.Equal(b.TotalProfit))
	assert.True(t, a.TotalWaste.Equal(b.TotalWaste))
	assert.True(t, a.TotalStockouts.Equal(b.TotalStockouts))
	assert.True(t, a.ServiceLevel.Equal(b.ServiceLevel))
	assertDecimal(t, "1200.5", a.TotalProfit)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raws := []models.RawScenario{
		{"Total Profit": -100000.0, "Total Waste": 500.0, "Total Stockouts": 10.0, "Service Level": 80.0},
		{"total_profit": 50000.0, "service_level": 95.0},
		{},
		nil,
	}
	for _, raw := range raws {
		once := Normalize(raw)
		twice := Normalize(ToRaw(once))
		assert.True(t, once.TotalProfit.Equal(twice.TotalProfit))
		assert.True(t, once.TotalWaste.Equal(twice.TotalWaste))
		assert.True(t, once.TotalStockouts.Equal(twice.TotalStockouts))
		assert.True(t, once.ServiceLevel.Equal(twice.ServiceLevel))
	}
}

func TestNormalizeDisplayKeyWins(t *testing.T) {
	n := Normalize(models.RawScenario{"Total Profit": 10.0, "total_profit": 99.0})
	assertDecimal(t, "10", n.TotalProfit)
}

func TestNormalizeNullFallsThroughToSnakeCase(t *testing.T) {
	n := Normalize(models.RawScenario{"Total Profit": nil, "total_profit": 99.0})
	assertDecimal(t, "99", n.TotalProfit)
}

func TestNormalizeMissingFieldsDefaultToZero(t *testing.T) {
	n := Normalize(models.RawScenario{"total_profit": 7.0})
	assert.True(t, n.TotalWaste.IsZero())
	assert.True(t, n.TotalStockouts.IsZero())
	assert.True(t, n.ServiceLevel.IsZero())
}

func TestNormalizeAcceptsNumericShapes(t *testing.T) {
	cases := map[string]any{
		"int":         42,
		"int64":       int64(42),
		"float32":     float32(42),
		"json.Number": json.Number("42"),
		"string":      " 42 ",
		"decimal":     decimal.NewFromInt(42),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			assertDecimal(t, "42", Normalize(models.RawScenario{"total_waste": v}).TotalWaste)
		})
	}
}

func TestNormalizeIgnoresUnusableValues(t *testing.T) {
	n := Normalize(models.RawScenario{
		"Total Profit":  "n/a",
		"total_profit":  5.0,
		"Total Waste":   math.NaN(),
		"total_waste":   []any{1},
		"Service Level": math.Inf(1),
	})
	assertDecimal(t, "5", n.TotalProfit)
	assert.True(t, n.TotalWaste.IsZero())
	assert.True(t, n.ServiceLevel.IsZero())
}

func TestComputeComparisonBasic(t *testing.T) {
	c := ComputeComparison(scenarioOf("1000", "0"), scenarioOf("1200", "0"))
	assertDecimal(t, "20", c.ProfitImprovementPct)
	assertDecimal(t, "200", c.AdditionalProfit)
	assert.True(t, c.WasteReductionPct.IsZero())
}

func TestComputeComparisonZeroBaselineProfit(t *testing.T) {
	c := ComputeComparison(scenarioOf("0", "10"), scenarioOf("5000", "5"))
	assert.True(t, c.ProfitImprovementPct.IsZero())
	assertDecimal(t, "5000", c.AdditionalProfit)
	assertDecimal(t, "50", c.WasteReductionPct)
}

func TestComputeComparisonNegativeBaselineUsesMagnitude(t *testing.T) {
	c := ComputeComparison(scenarioOf("-200", "0"), scenarioOf("-300", "0"))
	assertDecimal(t, "-50", c.ProfitImprovementPct)
	assertDecimal(t, "-100", c.AdditionalProfit)
}

func TestComputeComparisonIsNotClamped(t *testing.T) {
	c := ComputeComparison(scenarioOf("1", "1"), scenarioOf("1001", "5"))
	assertDecimal(t, "100000", c.ProfitImprovementPct)
	assertDecimal(t, "-400", c.WasteReductionPct)
}

func TestComputeGapToPerfect(t *testing.T) {
	baseline, ml := scenarioOf("1000", "0"), scenarioOf("1200", "0")
	perfect := scenarioOf("1500", "0")

	gap, ok := ComputeGapToPerfect(ml, &perfect, baseline)
	require.True(t, ok)
	assertDecimal(t, "30", gap)

	_, ok = ComputeGapToPerfect(ml, nil, baseline)
	assert.False(t, ok, "absent perfect scenario must be omitted")

	gap, ok = ComputeGapToPerfect(ml, &perfect, scenarioOf("0", "0"))
	require.True(t, ok)
	assert.True(t, gap.IsZero())
}

func TestAnnualizeProfit(t *testing.T) {
	annual, ok := AnnualizeProfit(scenarioOf("7300", "0"), 73)
	require.True(t, ok)
	assertDecimal(t, "36500", annual)

	_, ok = AnnualizeProfit(scenarioOf("7300", "0"), 0)
	assert.False(t, ok)
	_, ok = AnnualizeProfit(scenarioOf("7300", "0"), -1)
	assert.False(t, ok)
}

func TestClassifyProductBoundaries(t *testing.T) {
	cases := []struct {
		mae  float64
		want models.ProductAction
	}{
		{0, models.ActionTrustModel},
		{4.9, models.ActionTrustModel},
		{5.0, models.ActionAddBuffer},
		{9.99, models.ActionAddBuffer},
		{10.0, models.ActionManualReview},
		{42, models.ActionManualReview},
		{math.NaN(), models.ActionManualReview},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyProduct(tc.mae), "mae=%v", tc.mae)
	}
	assert.Equal(t, "trust model", string(models.ActionTrustModel))
	assert.Equal(t, "add buffer", string(models.ActionAddBuffer))
	assert.Equal(t, "manual review", string(models.ActionManualReview))
}

const endToEndPayload = `{
  "best_model": "LightGBM",
  "split_info": {"train_size": 700, "val_size": 150, "test_size": 146,
                 "train_period": "2023-01-01 to 2023-10-01", "test_period": "2023-11-01 to 2023-12-31"},
  "model_performance": {
    "RandomForest": {"test_mae": 6.1, "test_rmse": 8.2, "test_r2": 0.71, "test_mape": 14.0},
    "LightGBM": {"test_mae": 4.2, "test_rmse": 6.0, "test_r2": 0.83, "test_mape": 11.5}
  },
  "financial_scenarios": {
    "Baseline": {"Total Profit": -100000, "Total Waste": 500, "Total Stockouts": 10, "Service Level": 80},
    "ML Prediction": {"total_profit": 50000, "total_waste": 200, "total_stockouts": 5, "service_level": 95}
  },
  "accuracy_breakdown": {"within_5pct": 30, "within_10pct": 60, "within_20pct": 120, "total": 150}
}`

func TestAnalyzeEndToEnd(t *testing.T) {
	var res models.TrainingResult
	require.NoError(t, json.Unmarshal([]byte(endToEndPayload), &res))

	fa, err := Analyze(&res)
	require.NoError(t, err)

	assertDecimal(t, "150", fa.Comparison.ProfitImprovementPct)
	assertDecimal(t, "60", fa.Comparison.WasteReductionPct)
	assertDecimal(t, "150000", fa.Comparison.AdditionalProfit)
	assertDecimal(t, "95", fa.ML.ServiceLevel)
	assertDecimal(t, "80", fa.Baseline.ServiceLevel)
	assert.Equal(t, models.ScenarioMLPrediction, fa.MLScenarioName)
	assert.Empty(t, fa.DefaultedScenarios)

	assert.Nil(t, fa.GapToPerfectPct, "no Perfect scenario means no gap metric")
	require.NotNil(t, fa.AnnualProjection)
	assertDecimal(t, "125000", *fa.AnnualProjection)

	require.Len(t, fa.Scenarios, 2)
	assert.Equal(t, models.ScenarioBaseline, fa.Scenarios[0].Name)
	assert.False(t, fa.Scenarios[0].Recommended)
	assert.Equal(t, models.ScenarioMLPrediction, fa.Scenarios[1].Name)
	assert.True(t, fa.Scenarios[1].Recommended)
}

func TestAnalyzeAltSpellingAndPerfect(t *testing.T) {
	res := &models.TrainingResult{
		SplitInfo: models.SplitInfo{TestSize: 0},
		FinancialScenarios: map[string]models.RawScenario{
			"Perfect":       {"total_profit": 1500.0},
			"Zeta":          {"total_profit": 1.0},
			"ML_Prediction": {"total_profit": 1200.0},
			"Baseline":      {"total_profit": 1000.0},
			"Alpha":         {"total_profit": 2.0},
		},
	}
	fa, err := Analyze(res)
	require.NoError(t, err)

	assert.Equal(t, models.ScenarioMLPredictionAlt, fa.MLScenarioName)
	assertDecimal(t, "20", fa.Comparison.ProfitImprovementPct)
	require.NotNil(t, fa.GapToPerfectPct)
	assertDecimal(t, "30", *fa.GapToPerfectPct)
	assert.Nil(t, fa.AnnualProjection, "zero test samples leaves the projection unavailable")

	names := make([]string, 0, len(fa.Scenarios))
	for _, r := range fa.Scenarios {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Baseline", "ML_Prediction", "Perfect", "Alpha", "Zeta"}, names)
}

func TestAnalyzeDefaultsMissingScenarios(t *testing.T) {
	res := &models.TrainingResult{
		SplitInfo:          models.SplitInfo{TestSize: 10},
		FinancialScenarios: map[string]models.RawScenario{"Perfect": nil},
	}
	fa, err := Analyze(res)
	require.NoError(t, err)

	assert.Equal(t, []string{models.ScenarioBaseline, models.ScenarioMLPrediction}, fa.DefaultedScenarios)
	assert.True(t, fa.Comparison.ProfitImprovementPct.IsZero())
	assert.True(t, fa.Comparison.WasteReductionPct.IsZero())
	assert.Nil(t, fa.GapToPerfectPct, "null Perfect record counts as absent")
	assert.Empty(t, fa.Scenarios)
}

func TestAnalyzeWithoutFinancialData(t *testing.T) {
	_, err := Analyze(&models.TrainingResult{})
	assert.ErrorIs(t, err, models.ErrNoFinancialData)
	_, err = Analyze(nil)
	assert.ErrorIs(t, err, models.ErrNoFinancialData)
}

func TestResults(t *testing.T) {
	var res models.TrainingResult
	require.NoError(t, json.Unmarshal([]byte(endToEndPayload), &res))

	r := Results(&res)
	require.Len(t, r.Models, 2)
	assert.Equal(t, "LightGBM", r.Models[0].Name)
	assert.True(t, r.Models[0].Best)
	assert.Equal(t, "RandomForest", r.Models[1].Name)
	assert.False(t, r.Models[1].Best)
	require.NotNil(t, r.Best)
	assert.InDelta(t, 0.83, r.Best.TestR2, 1e-9)

	require.NotNil(t, r.Accuracy.Within5Pct)
	assert.InDelta(t, 20.0, *r.Accuracy.Within5Pct, 1e-9)
	assert.InDelta(t, 40.0, *r.Accuracy.Within10Pct, 1e-9)
	assert.InDelta(t, 80.0, *r.Accuracy.Within20Pct, 1e-9)

	require.NotNil(t, r.Split.Test)
	assert.Equal(t, 61, r.Split.Test.Days())
	assert.Equal(t, 146, r.Split.TestSize)
}

func TestResultsZeroTotalOmitsShares(t *testing.T) {
	r := Results(&models.TrainingResult{BestModel: "missing", SplitInfo: models.SplitInfo{TrainPeriod: "garbage"}})
	assert.Nil(t, r.Accuracy.Within5Pct)
	assert.Nil(t, r.Best)
	assert.Nil(t, r.Split.Train)
	assert.Empty(t, r.Models)
}
