package recommend

import (
	"fmt"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/services/scenario"
)

const (
	defaultTopN = 5
	// Products named as best/worst from each end of the backend ranking.
	edgeCount = 3
)

// Input is everything a recommendation report is derived from.
type Input struct {
	Result *models.TrainingResult
	// Nil when the training result carried no financial data.
	Financial *models.FinancialAnalysis
	Products  []models.ProductPerformance
	// False when the product list could not be fetched.
	ProductsAvailable bool
	// Number of product rows to classify; <= 0 uses the recommender default.
	Top int
}

type Recommender struct {
	topN int
}

func New(topN int) *Recommender {
	if topN <= 0 {
		topN = defaultTopN
	}
	return &Recommender{topN: topN}
}

// Build assembles the recommendation report. It never fails; missing inputs
// leave the matching sections empty or omitted.
func (r *Recommender) Build(in Input) models.RecommendationReport {
	rep := models.RecommendationReport{
		ProductsAvailable: in.ProductsAvailable,
		Products:          []models.ProductRecommendation{},
		BestProducts:      []string{},
		WorstProducts:     []string{},
	}

	if in.Result != nil {
		rep.BestModel = in.Result.BestModel
		if m, ok := in.Result.BestMetrics(); ok {
			mape, r2 := m.TestMAPE, m.TestR2
			rep.ModelMAPE, rep.ModelR2 = &mape, &r2
		}
	}

	if in.ProductsAvailable {
		top := in.Top
		if top <= 0 {
			top = r.topN
		}
		for _, p := range head(in.Products, top) {
			rep.Products = append(rep.Products, models.ProductRecommendation{
				ProductPerformance: p,
				Action:             scenario.ClassifyProduct(p.MAE),
			})
		}
		rep.BestProducts = names(head(in.Products, edgeCount))
		rep.WorstProducts = names(tail(in.Products, edgeCount))
	}

	if fa := in.Financial; fa != nil {
		rep.Outcomes = models.ExpectedOutcomes{
			ProfitImprovementPct: fa.Comparison.ProfitImprovementPct,
			WasteReductionPct:    fa.Comparison.WasteReductionPct,
			ServiceLevel:         fa.ML.ServiceLevel,
			AnnualProjection:     fa.AnnualProjection,
			PotentialGainPct:     fa.GapToPerfectPct,
		}
	}

	rep.Guidance = guidance(rep.ModelMAPE)
	return rep
}

func head(ps []models.ProductPerformance, n int) []models.ProductPerformance {
	if len(ps) < n {
		return ps
	}
	return ps[:n]
}

func tail(ps []models.ProductPerformance, n int) []models.ProductPerformance {
	if len(ps) < n {
		return ps
	}
	return ps[len(ps)-n:]
}

func names(ps []models.ProductPerformance) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Product)
	}
	return out
}

func guidance(mape *float64) []models.GuidanceSection {
	base := "Use ML predictions as the base production quantity"
	if mape != nil {
		base = fmt.Sprintf("%s; the model averages %.1f%% error", base, *mape)
	}
	return []models.GuidanceSection{
		{
			Title: "Production strategy",
			Items: []string{
				base,
				"Add a 5-10% safety buffer for high-demand periods (Ramadan, near Eid)",
				"Keep inventory tighter for products with stable demand",
				"Review predictions daily against actual sales",
			},
		},
		{
			Title: "Seasonal considerations",
			Items: []string{
				"Ramadan: demand shifts are captured by the model, follow predictions closely",
				"Pre-Eid (5-7 days before): raise production by 15-20% for all products",
				"Post-Eid (7 days after): scale production down gradually while watching demand",
				"Weekends: Sunday closures are modelled, Saturday may need adjustment",
				"National holidays (Jan 1, Aug 17, Dec 25): plan for zero production",
			},
		},
		{
			Title: "Operating rhythm",
			Items: []string{
				"Daily: plan next-day production from the forecast",
				"Weekly: review accuracy and tune safety buffers",
				"Monthly: retrain with the latest data",
				"Record manual overrides and their outcomes",
			},
		},
		{
			Title: "Closing the gap to a perfect forecast",
			Items: []string{
				"Collect customer feedback on stockouts",
				"Add weather data where available",
				"Track promotions and special events",
				"Watch competitor activity and market trends",
				"Consider dynamic pricing for slow-moving items",
			},
		},
	}
}
