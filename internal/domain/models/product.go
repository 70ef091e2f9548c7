package models

// ProductPerformance is one row of GET /api/product-performance/{session_id}.
// The backend order is kept as-is; it is treated as ranked best to worst.
type ProductPerformance struct {
	Product      string  `json:"product"`
	Days         int     `json:"days,omitempty"`
	AvgActual    float64 `json:"avg_actual"`
	AvgPredicted float64 `json:"avg_predicted"`
	MAE          float64 `json:"mae"`
	MAPE         float64 `json:"mape"`
}

type ProductPerformanceList struct {
	Products []ProductPerformance `json:"products"`
}

// FeatureImportance lists the best model's top features, most important first.
type FeatureImportance struct {
	Features   []string  `json:"features"`
	Importance []float64 `json:"importance"`
}

// TimeSeries is actual vs predicted demand for one product over the test window.
type TimeSeries struct {
	Product   string    `json:"product,omitempty"`
	Dates     []string  `json:"dates"`
	Actual    []float64 `json:"actual"`
	Predicted []float64 `json:"predicted"`
}
