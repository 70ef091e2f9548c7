package scenario

import (
	"sort"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/pkg/util"
)

// Analyze builds the financial impact view of a training result.
// It returns models.ErrNoFinancialData only when the payload carries no
// financial_scenarios at all. Missing Baseline or ML records are read as zero
// records and listed in DefaultedScenarios.
func Analyze(res *models.TrainingResult) (models.FinancialAnalysis, error) {
	if res == nil || res.FinancialScenarios == nil {
		return models.FinancialAnalysis{}, models.ErrNoFinancialData
	}
	scenarios := res.FinancialScenarios

	var defaulted []string
	baseRaw, ok := present(scenarios, models.ScenarioBaseline)
	if !ok {
		defaulted = append(defaulted, models.ScenarioBaseline)
	}
	mlName, mlRaw, ok := MLScenario(scenarios)
	if !ok {
		defaulted = append(defaulted, mlName)
	}

	baseline := Normalize(baseRaw)
	ml := Normalize(mlRaw)

	fa := models.FinancialAnalysis{
		Baseline:           baseline,
		ML:                 ml,
		MLScenarioName:     mlName,
		Comparison:         ComputeComparison(baseline, ml),
		Scenarios:          rows(scenarios, mlName),
		DefaultedScenarios: defaulted,
	}

	var perfect *models.NormalizedScenario
	if raw, ok := present(scenarios, models.ScenarioPerfect); ok {
		p := Normalize(raw)
		perfect = &p
	}
	if gap, ok := ComputeGapToPerfect(ml, perfect, baseline); ok {
		fa.GapToPerfectPct = &gap
	}
	if annual, ok := AnnualizeProfit(ml, res.SplitInfo.TestSize); ok {
		fa.AnnualProjection = &annual
	}
	return fa, nil
}

// MLScenario finds the model-driven scenario under either of its spellings.
// When neither is present it returns the canonical name and ok=false.
func MLScenario(scenarios map[string]models.RawScenario) (name string, raw models.RawScenario, ok bool) {
	for _, n := range []string{models.ScenarioMLPrediction, models.ScenarioMLPredictionAlt} {
		if raw, ok := present(scenarios, n); ok {
			return n, raw, true
		}
	}
	return models.ScenarioMLPrediction, nil, false
}

func present(scenarios map[string]models.RawScenario, name string) (models.RawScenario, bool) {
	raw, ok := scenarios[name]
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// rows orders Baseline, the ML scenario and Perfect first, then the rest by name.
func rows(scenarios map[string]models.RawScenario, mlName string) []models.ScenarioRow {
	rank := map[string]int{models.ScenarioBaseline: 0, mlName: 1, models.ScenarioPerfect: 2}

	names := make([]string, 0, len(scenarios))
	for name, raw := range scenarios {
		if raw == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})

	out := make([]models.ScenarioRow, 0, len(names))
	for _, name := range names {
		out = append(out, models.ScenarioRow{
			Name:        name,
			Scenario:    Normalize(scenarios[name]),
			Recommended: name == mlName,
		})
	}
	return out
}

// Results builds the model comparison view of a training result.
func Results(res *models.TrainingResult) models.ModelResults {
	if res == nil {
		return models.ModelResults{Models: []models.ModelRow{}}
	}

	out := models.ModelResults{
		BestModel: res.BestModel,
		Models:    make([]models.ModelRow, 0, len(res.ModelPerformance)),
		Accuracy:  accuracy(res.AccuracyBreakdown),
		Split:     split(res.SplitInfo),
	}
	for name, m := range res.ModelPerformance {
		out.Models = append(out.Models, models.ModelRow{Name: name, ModelMetrics: m, Best: name == res.BestModel})
	}
	sort.Slice(out.Models, func(i, j int) bool { return out.Models[i].Name < out.Models[j].Name })

	for i := range out.Models {
		if out.Models[i].Best {
			best := out.Models[i]
			out.Best = &best
			break
		}
	}
	return out
}

func accuracy(b models.AccuracyBreakdown) models.AccuracySummary {
	s := models.AccuracySummary{Total: b.Total}
	if b.Total <= 0 {
		return s
	}
	share := func(n int) *float64 {
		v := float64(n) / float64(b.Total) * 100
		return &v
	}
	s.Within5Pct = share(b.Within5Pct)
	s.Within10Pct = share(b.Within10Pct)
	s.Within20Pct = share(b.Within20Pct)
	return s
}

func split(info models.SplitInfo) models.SplitSummary {
	s := models.SplitSummary{SplitInfo: info}
	if p, err := util.ParsePeriod(info.TrainPeriod); err == nil {
		s.Train = &p
	}
	if p, err := util.ParsePeriod(info.TestPeriod); err == nil {
		s.Test = &p
	}
	return s
}
