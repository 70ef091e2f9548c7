package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"UMKMForecast/internal/domain/models"
)

// CSVFormatter writes one row per financial scenario followed by one row per
// recommended product, separated by a blank line.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(d *models.Dashboard) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if d.Financial != nil {
		if err := w.Write([]string{"Scenario", "TotalProfit", "TotalWaste", "TotalStockouts", "ServiceLevel", "Recommended"}); err != nil {
			return nil, err
		}
		for _, row := range d.Financial.Scenarios {
			rec := []string{
				row.Name,
				row.Scenario.TotalProfit.StringFixed(2),
				row.Scenario.TotalWaste.StringFixed(2),
				row.Scenario.TotalStockouts.StringFixed(2),
				row.Scenario.ServiceLevel.StringFixed(2),
				strconv.FormatBool(row.Recommended),
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
		w.Flush()
		buf.WriteString("\n")
	}

	if err := w.Write([]string{"Product", "MAE", "MAPE", "Action"}); err != nil {
		return nil, err
	}
	for _, p := range d.Recommendations.Products {
		rec := []string{
			p.Product,
			strconv.FormatFloat(p.MAE, 'f', 2, 64),
			strconv.FormatFloat(p.MAPE, 'f', 2, 64),
			string(p.Action),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
