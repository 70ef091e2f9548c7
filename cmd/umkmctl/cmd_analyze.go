package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/output"
	"UMKMForecast/internal/services/recommend"
	"UMKMForecast/internal/services/scenario"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	results  string
	products string
	format   string
	top      int
}

func newAnalyzeCommand() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze --results result.json [--products products.json]",
		Short: "Render a saved training result without contacting the backend",
		Long: `Analyze reads the JSON returned by the backend train endpoint and prints
the model comparison, financial impact and production recommendations.

The optional products file is the product-performance response, either the
{"products": [...]} envelope or a bare array.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.GetFormatter(opts.format)
			if err != nil {
				return err
			}
			d, err := analyzeFiles(opts)
			if err != nil {
				return err
			}
			out, err := f.Format(d)
			if err != nil {
				return fmt.Errorf("format %s: %w", f.Name(), err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.results, "results", "r", "", "Training result JSON file (required)")
	cmd.Flags().StringVarP(&opts.products, "products", "p", "", "Product performance JSON file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "console", "Output format: console, json or csv")
	cmd.Flags().IntVar(&opts.top, "top", 5, "Number of products to classify")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

func analyzeFiles(opts *analyzeOptions) (*models.Dashboard, error) {
	var res models.TrainingResult
	if err := readJSON(opts.results, &res); err != nil {
		return nil, err
	}

	var products []models.ProductPerformance
	if opts.products != "" {
		ps, err := readProducts(opts.products)
		if err != nil {
			return nil, err
		}
		products = ps
	}

	var financial *models.FinancialAnalysis
	fin, err := scenario.Analyze(&res)
	switch {
	case err == nil:
		financial = &fin
	case errors.Is(err, models.ErrNoFinancialData):
		cliLogger.Warn("training result has no financial scenarios")
	default:
		return nil, err
	}

	return &models.Dashboard{
		Session:   models.Session{ID: res.SessionID, Status: models.StatusTrained},
		Results:   scenario.Results(&res),
		Financial: financial,
		Recommendations: recommend.New(opts.top).Build(recommend.Input{
			Result:            &res,
			Financial:         financial,
			Products:          products,
			ProductsAvailable: opts.products != "",
			Top:               opts.top,
		}),
	}, nil
}

func readJSON(path string, dest interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readProducts(path string) ([]models.ProductPerformance, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var list models.ProductPerformanceList
	if err := json.Unmarshal(b, &list); err == nil {
		return list.Products, nil
	}
	var bare []models.ProductPerformance
	if err := json.Unmarshal(b, &bare); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bare, nil
}
