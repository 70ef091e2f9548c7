package models

// ModelMetrics are the hold-out errors the backend reports for one candidate model.
type ModelMetrics struct {
	TestMAE  float64 `json:"test_mae"`
	TestRMSE float64 `json:"test_rmse"`
	TestR2   float64 `json:"test_r2"`
	TestMAPE float64 `json:"test_mape"`
}

// AccuracyBreakdown counts test predictions within an error band.
// Counts are assumed nested (5 <= 10 <= 20 <= total) but not enforced.
type AccuracyBreakdown struct {
	Within5Pct  int `json:"within_5pct"`
	Within10Pct int `json:"within_10pct"`
	Within20Pct int `json:"within_20pct"`
	Total       int `json:"total"`
}

type SplitInfo struct {
	TrainSize   int    `json:"train_size"`
	ValSize     int    `json:"val_size"`
	TestSize    int    `json:"test_size"`
	TrainPeriod string `json:"train_period"`
	TestPeriod  string `json:"test_period"`
}

// RawScenario is a financial scenario record exactly as the backend sent it.
// Field names may be display style ("Total Profit") or snake_case ("total_profit").
type RawScenario map[string]any

// Known scenario names.
const (
	ScenarioBaseline        = "Baseline"
	ScenarioMLPrediction    = "ML Prediction"
	ScenarioMLPredictionAlt = "ML_Prediction"
	ScenarioPerfect         = "Perfect"
)

// TrainingResult is the payload of POST /api/train/{session_id}.
type TrainingResult struct {
	SessionID          string                  `json:"session_id,omitempty"`
	BestModel          string                  `json:"best_model"`
	SplitInfo          SplitInfo               `json:"split_info"`
	ModelPerformance   map[string]ModelMetrics `json:"model_performance"`
	FinancialScenarios map[string]RawScenario  `json:"financial_scenarios"`
	AccuracyBreakdown  AccuracyBreakdown       `json:"accuracy_breakdown"`
}

// BestMetrics returns the metrics of the winning model, if reported.
func (r *TrainingResult) BestMetrics() (ModelMetrics, bool) {
	if r == nil || r.ModelPerformance == nil {
		return ModelMetrics{}, false
	}
	m, ok := r.ModelPerformance[r.BestModel]
	return m, ok
}
