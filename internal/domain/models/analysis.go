package models

import (
	"UMKMForecast/pkg/util"

	"github.com/shopspring/decimal"
)

// NormalizedScenario is a financial scenario with every field present.
// Missing source fields are zero, which is not the same as a measured zero.
type NormalizedScenario struct {
	TotalProfit    decimal.Decimal `json:"total_profit"`
	TotalWaste     decimal.Decimal `json:"total_waste"`
	TotalStockouts decimal.Decimal `json:"total_stockouts"`
	ServiceLevel   decimal.Decimal `json:"service_level"`
}

// Comparison holds the derived deltas of a candidate scenario against a baseline.
type Comparison struct {
	ProfitImprovementPct decimal.Decimal `json:"profit_improvement_pct"`
	WasteReductionPct    decimal.Decimal `json:"waste_reduction_pct"`
	AdditionalProfit     decimal.Decimal `json:"additional_profit"`
}

type ScenarioRow struct {
	Name        string             `json:"name"`
	Scenario    NormalizedScenario `json:"scenario"`
	Recommended bool               `json:"recommended"`
}

// FinancialAnalysis is the financial impact view of one training result.
type FinancialAnalysis struct {
	Baseline       NormalizedScenario `json:"baseline"`
	ML             NormalizedScenario `json:"ml_prediction"`
	MLScenarioName string             `json:"ml_scenario_name"`
	Comparison     Comparison         `json:"comparison"`
	Scenarios      []ScenarioRow      `json:"scenarios"`

	// Nil when the "Perfect" scenario is absent.
	GapToPerfectPct *decimal.Decimal `json:"gap_to_perfect_pct,omitempty"`
	// Nil when the test sample count is zero.
	AnnualProjection *decimal.Decimal `json:"annual_projection,omitempty"`
	// Baseline or ML scenarios that were missing and read as all zeros.
	DefaultedScenarios []string `json:"defaulted_scenarios,omitempty"`
}

type ModelRow struct {
	Name string `json:"name"`
	ModelMetrics
	Best bool `json:"best"`
}

// AccuracySummary expresses the accuracy breakdown as percentages of the total.
// Shares are nil when there were no test predictions.
type AccuracySummary struct {
	Within5Pct  *float64 `json:"within_5pct,omitempty"`
	Within10Pct *float64 `json:"within_10pct,omitempty"`
	Within20Pct *float64 `json:"within_20pct,omitempty"`
	Total       int      `json:"total"`
}

type SplitSummary struct {
	SplitInfo
	Train *util.Period `json:"train,omitempty"`
	Test  *util.Period `json:"test,omitempty"`
}

// ModelResults is the model comparison view of one training result.
type ModelResults struct {
	BestModel string          `json:"best_model"`
	Best      *ModelRow       `json:"best,omitempty"`
	Models    []ModelRow      `json:"models"`
	Accuracy  AccuracySummary `json:"accuracy"`
	Split     SplitSummary    `json:"split"`
}
