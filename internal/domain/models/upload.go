package models

// UploadSummary is the dataset summary returned by POST /api/upload.
type UploadSummary struct {
	SessionID    string       `json:"session_id"`
	TotalRecords int          `json:"total_records"`
	DateRange    DateRange    `json:"date_range"`
	Products     ProductNames `json:"products"`
	SalesStats   SalesStats   `json:"sales_stats"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type ProductNames struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

type SalesStats struct {
	MeanProduced float64 `json:"mean_produced"`
	MeanSold     float64 `json:"mean_sold"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalExpense float64 `json:"total_expense"`
}
