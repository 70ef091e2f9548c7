package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/internal/output"
	"UMKMForecast/internal/repository"
	"UMKMForecast/internal/services/forecast"
	"UMKMForecast/internal/services/recommend"
	"UMKMForecast/internal/usecase"
	"UMKMForecast/pkg/cache"
	"UMKMForecast/pkg/logger"

	"github.com/spf13/cobra"
)

type runOptions struct {
	file    string
	api     string
	format  string
	top     int
	timeout time.Duration
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run --file sales.csv [--api URL]",
		Short: "Upload a sales CSV, train, and print the report",
		Long: `Run uploads the sales CSV to the forecasting backend, trains the models
synchronously and prints the same report the dashboard shows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.GetFormatter(opts.format)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			d, err := runPipeline(ctx, opts)
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

	cmd.Flags().StringVar(&opts.file, "file", "", "Sales CSV to upload (required)")
	cmd.Flags().StringVar(&opts.api, "api", envOr("FORECAST_API_URL", "http://localhost:8000"), "Forecasting backend base URL")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "console", "Output format: console, json or csv")
	cmd.Flags().IntVar(&opts.top, "top", 5, "Number of products to classify")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Minute, "Overall deadline for upload and training")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runPipeline drives the backend through the same workflow the server uses,
// with an in-process session store.
func runPipeline(ctx context.Context, opts *runOptions) (*models.Dashboard, error) {
	f, err := os.Open(opts.file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.file, err)
	}
	defer f.Close()

	mc := cache.NewMemoryCache()
	defer mc.Close()

	backend := forecast.NewClient(
		forecast.NewHTTPServiceBase(opts.api, time.Minute),
		forecast.WithTrainTimeout(opts.timeout),
		forecast.WithLogger(cliLogger),
	)
	wf := usecase.NewForecastWorkflow(backend,
		repository.NewCacheSessionStore(mc, opts.timeout, opts.timeout),
		usecase.WithRecommender(recommend.New(opts.top)),
		usecase.WithWorkflowLogger(cliLogger),
	)

	sess, err := wf.Upload(ctx, filepath.Base(opts.file), f)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	cliLogger.Info("uploaded", logger.String("session_id", sess.ID))

	d, err := wf.Train(ctx, sess.ID, opts.top)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", sess.ID, err)
	}
	return &d, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
