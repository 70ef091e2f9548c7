package models

import "github.com/shopspring/decimal"

// ProductAction is the production advice for a product given its forecast error.
type ProductAction string

const (
	ActionTrustModel   ProductAction = "trust model"
	ActionAddBuffer    ProductAction = "add buffer"
	ActionManualReview ProductAction = "manual review"
)

type ProductRecommendation struct {
	ProductPerformance
	Action ProductAction `json:"action"`
}

type ExpectedOutcomes struct {
	ProfitImprovementPct decimal.Decimal  `json:"profit_improvement_pct"`
	WasteReductionPct    decimal.Decimal  `json:"waste_reduction_pct"`
	ServiceLevel         decimal.Decimal  `json:"service_level"`
	AnnualProjection     *decimal.Decimal `json:"annual_projection,omitempty"`
	PotentialGainPct     *decimal.Decimal `json:"potential_gain_pct,omitempty"`
}

type GuidanceSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// RecommendationReport is the business recommendations view of one training result.
type RecommendationReport struct {
	BestModel string   `json:"best_model"`
	ModelMAPE *float64 `json:"model_mape,omitempty"`
	ModelR2   *float64 `json:"model_r2,omitempty"`

	// False when per-product performance could not be fetched.
	ProductsAvailable bool                    `json:"products_available"`
	Products          []ProductRecommendation `json:"products"`
	BestProducts      []string                `json:"best_products"`
	WorstProducts     []string                `json:"worst_products"`

	Outcomes ExpectedOutcomes  `json:"outcomes"`
	Guidance []GuidanceSection `json:"guidance"`
}
