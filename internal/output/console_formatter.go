package output

import (
	"bytes"
	"fmt"
	"strings"

	"UMKMForecast/internal/domain/models"
)

// ConsoleFormatter prints a human readable summary of a trained session.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(d *models.Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "DEMAND FORECAST SUMMARY")
	fmt.Fprintln(&buf, "================================")
	if d.Session.ID != "" {
		fmt.Fprintf(&buf, "Session: %s (%s)\n", d.Session.ID, d.Session.Status)
	}
	writeResults(&buf, d.Results)

	if fin := d.Financial; fin != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "FINANCIAL IMPACT")
		for _, row := range fin.Scenarios {
			mark := " "
			if row.Recommended {
				mark = "*"
			}
			fmt.Fprintf(&buf, "%s %-16s profit=%s waste=%s service=%s\n",
				mark,
				row.Name,
				FormatCurrency(row.Scenario.TotalProfit),
				row.Scenario.TotalWaste.StringFixed(0),
				FormatPercentage(row.Scenario.ServiceLevel),
			)
		}
		fmt.Fprintf(&buf, "Profit improvement: %s\n", FormatSignedPercentage(fin.Comparison.ProfitImprovementPct))
		fmt.Fprintf(&buf, "Waste reduction:    %s\n", FormatPercentage(fin.Comparison.WasteReductionPct))
		fmt.Fprintf(&buf, "Additional profit:  %s\n", FormatSignedCurrency(fin.Comparison.AdditionalProfit))
		if fin.AnnualProjection != nil {
			fmt.Fprintf(&buf, "Annual projection:  %s\n", FormatCurrency(*fin.AnnualProjection))
		}
		if fin.GapToPerfectPct != nil {
			fmt.Fprintf(&buf, "Gap to perfect:     %s\n", FormatPercentage(*fin.GapToPerfectPct))
		}
		if len(fin.DefaultedScenarios) > 0 {
			fmt.Fprintf(&buf, "Missing scenarios read as zero: %s\n", strings.Join(fin.DefaultedScenarios, ", "))
		}
	}

	writeRecommendations(&buf, d.Recommendations)

	if fi := d.FeatureImportance; fi != nil && len(fi.Features) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "TOP FEATURES")
		for i, name := range fi.Features {
			fmt.Fprintf(&buf, "%2d. %-24s %.3f\n", i+1, name, fi.Importance[i])
		}
	}
	return buf.Bytes(), nil
}

func writeResults(buf *bytes.Buffer, r models.ModelResults) {
	if len(r.Models) == 0 {
		return
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "MODELS")
	for _, m := range r.Models {
		mark := " "
		if m.Best {
			mark = "*"
		}
		fmt.Fprintf(buf, "%s %-16s MAE=%.2f MAPE=%.1f%% R2=%.3f\n", mark, m.Name, m.TestMAE, m.TestMAPE, m.TestR2)
	}
	if r.Accuracy.Total > 0 {
		fmt.Fprintf(buf, "Within 10%%: %s of %d predictions\n", formatFloat(r.Accuracy.Within10Pct, "%"), r.Accuracy.Total)
	}
}

func writeRecommendations(buf *bytes.Buffer, rep models.RecommendationReport) {
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "RECOMMENDATIONS")
	if rep.ModelMAPE != nil {
		fmt.Fprintf(buf, "Model error: %s MAPE, R2 %s\n", formatFloat(rep.ModelMAPE, "%"), formatFloat(rep.ModelR2, ""))
	}
	if !rep.ProductsAvailable {
		fmt.Fprintln(buf, "Product performance unavailable.")
	}
	for _, p := range rep.Products {
		fmt.Fprintf(buf, "  %-24s MAE=%-8.2f %s\n", p.Product, p.MAE, p.Action)
	}
	if len(rep.BestProducts) > 0 {
		fmt.Fprintf(buf, "Most predictable:  %s\n", strings.Join(rep.BestProducts, ", "))
		fmt.Fprintf(buf, "Least predictable: %s\n", strings.Join(rep.WorstProducts, ", "))
	}
	for _, g := range rep.Guidance {
		fmt.Fprintf(buf, "%s:\n", g.Title)
		for _, item := range g.Items {
			fmt.Fprintf(buf, "  - %s\n", item)
		}
	}
}
