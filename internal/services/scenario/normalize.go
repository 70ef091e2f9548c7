// Package scenario turns the backend's loosely shaped financial scenarios into
// typed records and derives the comparison metrics shown to the business owner.
// Everything here is pure: no I/O, no shared state.
package scenario

import (
	"encoding/json"
	"math"
	"strings"

	"UMKMForecast/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Both spellings are accepted; the display spelling wins when both are present.
const (
	keyTotalProfit    = "total_profit"
	keyTotalWaste     = "total_waste"
	keyTotalStockouts = "total_stockouts"
	keyServiceLevel   = "service_level"

	displayTotalProfit    = "Total Profit"
	displayTotalWaste     = "Total Waste"
	displayTotalStockouts = "Total Stockouts"
	displayServiceLevel   = "Service Level"
)

// Normalize maps a raw scenario record onto a NormalizedScenario.
// For each field the display key is tried first, then the snake_case key.
// Absent, null or non-numeric values fall through, and a field with no usable
// value is zero. Normalize never fails.
func Normalize(raw models.RawScenario) models.NormalizedScenario {
	return models.NormalizedScenario{
		TotalProfit:    lookup(raw, displayTotalProfit, keyTotalProfit),
		TotalWaste:     lookup(raw, displayTotalWaste, keyTotalWaste),
		TotalStockouts: lookup(raw, displayTotalStockouts, keyTotalStockouts),
		ServiceLevel:   lookup(raw, displayServiceLevel, keyServiceLevel),
	}
}

// ToRaw returns the snake_case record for s. Normalize(ToRaw(s)) equals s.
func ToRaw(s models.NormalizedScenario) models.RawScenario {
	return models.RawScenario{
		keyTotalProfit:    s.TotalProfit,
		keyTotalWaste:     s.TotalWaste,
		keyTotalStockouts: s.TotalStockouts,
		keyServiceLevel:   s.ServiceLevel,
	}
}

func lookup(raw models.RawScenario, keys ...string) decimal.Decimal {
	for _, k := range keys {
		if v, ok := toDecimal(raw[k]); ok {
			return v
		}
	}
	return decimal.Zero
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return toDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		return parseDecimal(n.String())
	case string:
		return parseDecimal(n)
	default:
		return decimal.Zero, false
	}
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
