package recommend

import (
	"testing"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/services/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func products(maes ...float64) []models.ProductPerformance {
	out := make([]models.ProductPerformance, 0, len(maes))
	for i, mae := range maes {
		out = append(out, models.ProductPerformance{Product: string(rune('A' + i)), MAE: mae})
	}
	return out
}

func trained() *models.TrainingResult {
	return &models.TrainingResult{
		BestModel: "LightGBM",
		SplitInfo: models.SplitInfo{TestSize: 146},
		ModelPerformance: map[string]models.ModelMetrics{
			"LightGBM": {TestMAE: 4.2, TestR2: 0.83, TestMAPE: 11.5},
		},
		FinancialScenarios: map[string]models.RawScenario{
			"Baseline":      {"Total Profit": -100000.0, "Total Waste": 500.0},
			"ML Prediction": {"total_profit": 50000.0, "total_waste": 200.0, "service_level": 95.0},
			"Perfect":       {"total_profit": 80000.0},
		},
	}
}

func TestBuildFullReport(t *testing.T) {
	res := trained()
	fa, err := scenario.Analyze(res)
	require.NoError(t, err)

	rep := New(5).Build(Input{
		Result:            res,
		Financial:         &fa,
		Products:          products(1, 4.99, 5, 9.99, 10, 20, 30),
		ProductsAvailable: true,
	})

	assert.Equal(t, "LightGBM", rep.BestModel)
	require.NotNil(t, rep.ModelMAPE)
	assert.InDelta(t, 11.5, *rep.ModelMAPE, 1e-9)

	require.Len(t, rep.Products, 5)
	want := []models.ProductAction{
		models.ActionTrustModel, models.ActionTrustModel,
		models.ActionAddBuffer, models.ActionAddBuffer,
		models.ActionManualReview,
	}
	for i, p := range rep.Products {
		assert.Equal(t, want[i], p.Action, p.Product)
	}
	assert.Equal(t, []string{"A", "B", "C"}, rep.BestProducts)
	assert.Equal(t, []string{"E", "F", "G"}, rep.WorstProducts)

	assert.Equal(t, "150", rep.Outcomes.ProfitImprovementPct.String())
	assert.Equal(t, "60", rep.Outcomes.WasteReductionPct.String())
	assert.Equal(t, "95", rep.Outcomes.ServiceLevel.String())
	require.NotNil(t, rep.Outcomes.PotentialGainPct)
	assert.Equal(t, "30", rep.Outcomes.PotentialGainPct.String())
	require.NotNil(t, rep.Outcomes.AnnualProjection)
	assert.Equal(t, "125000", rep.Outcomes.AnnualProjection.String())

	require.NotEmpty(t, rep.Guidance)
	assert.Contains(t, rep.Guidance[0].Items[0], "11.5% error")
}

func TestBuildTopOverride(t *testing.T) {
	rep := New(5).Build(Input{Products: products(1, 2, 3), ProductsAvailable: true, Top: 2})
	assert.Len(t, rep.Products, 2)
	assert.Equal(t, []string{"A", "B", "C"}, rep.BestProducts)
	assert.Equal(t, []string{"A", "B", "C"}, rep.WorstProducts)
}

func TestBuildProductsUnavailable(t *testing.T) {
	rep := New(0).Build(Input{Result: trained(), Products: products(1, 2), ProductsAvailable: false})
	assert.False(t, rep.ProductsAvailable)
	assert.Empty(t, rep.Products)
	assert.Empty(t, rep.BestProducts)
	assert.Empty(t, rep.WorstProducts)
}

func TestBuildWithoutFinancialOrMetrics(t *testing.T) {
	rep := New(5).Build(Input{Result: &models.TrainingResult{BestModel: "X"}})
	assert.Nil(t, rep.ModelMAPE)
	assert.Nil(t, rep.ModelR2)
	assert.Nil(t, rep.Outcomes.AnnualProjection)
	assert.Nil(t, rep.Outcomes.PotentialGainPct)
	assert.True(t, rep.Outcomes.ProfitImprovementPct.IsZero())
	assert.NotContains(t, rep.Guidance[0].Items[0], "error")
}
