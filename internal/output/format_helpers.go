package output

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrency renders whole rupiah with thousands grouping, e.g. "IDR 150,000".
func FormatCurrency(amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("IDR %d", amount.Round(0).IntPart())
}

// FormatPercentage renders one decimal place, e.g. "60.0%".
func FormatPercentage(pct decimal.Decimal) string { return pct.StringFixed(1) + "%" }

// FormatSignedPercentage is FormatPercentage with an explicit "+" on gains.
func FormatSignedPercentage(pct decimal.Decimal) string {
	if pct.Round(1).IsPositive() {
		return "+" + FormatPercentage(pct)
	}
	return FormatPercentage(pct)
}

// FormatSignedCurrency is FormatCurrency with an explicit "+" on gains.
func FormatSignedCurrency(amount decimal.Decimal) string {
	if amount.Round(0).IsPositive() {
		return "+" + FormatCurrency(amount)
	}
	return FormatCurrency(amount)
}

func formatFloat(v *float64, suffix string) string {
	if v == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*v).StringFixed(1) + suffix
}
