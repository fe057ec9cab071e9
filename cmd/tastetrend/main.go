// Command tastetrend runs the review normalization pipeline: it loads the
// pipeline config, optionally initializes a metrics backend, executes the
// run, and writes the canonical dataset plus the validation report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tastetrend/internal/config"
	"tastetrend/internal/logging"
	"tastetrend/internal/mapping"
	"tastetrend/internal/metrics"
	"tastetrend/internal/metrics/prompush"
	"tastetrend/internal/pipeline"
	"tastetrend/internal/storage"

	// register all backends with the storage factory; the config selects
	// which one a run actually uses.
	_ "tastetrend/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend (pushgateway, none); falls back to METRICS_BACKEND")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	env := "prod"
	if *verbose {
		env = "dev"
	}
	log := logging.New(os.Stderr, env)

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %s\n", cfgPath)
		return
	}

	// Metrics backend: flag, then env, then disabled.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: pushgateway init failed; using nop")
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn().Err(err).Msg("metrics: flush failed")
				}
			}()
		}
	case "", "none":
		// nop backend remains installed
	default:
		log.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}

	tables, err := mapping.Load(p.Mappings.Synonyms, p.Mappings.Categories)
	if err != nil {
		fatalf("load mapping tables: %v", err)
	}

	ctx := context.Background()
	start := time.Now()

	res, err := pipeline.New(p, tables, log).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}

	if err := writeArtifacts(ctx, p, res); err != nil {
		log.Error().Err(err).Msg("write artifacts failed")
		os.Exit(1)
	}
	metrics.RecordRows(p.Job, "written", int64(len(res.Reviews)))

	res.Report.Render(os.Stdout)
	if *verbose {
		log.Info().Dur("elapsed", time.Since(start)).Msg("done")
	}
}

// writeArtifacts persists the canonical dataset through the configured
// storage backend and the validation report as JSON.
func writeArtifacts(ctx context.Context, p config.Pipeline, res pipeline.Result) error {
	cfg := storage.Config{
		Kind:            p.Output.Dataset.Kind,
		Path:            p.Output.Dataset.Path,
		DSN:             p.Output.Dataset.DB.DSN,
		Table:           p.Output.Dataset.DB.Table,
		AutoCreateTable: p.Output.Dataset.DB.AutoCreateTable,
	}
	repo, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := storage.EnsureTable(ctx, repo, cfg); err != nil {
		return err
	}
	if _, err := storage.WriteReviews(ctx, repo, res.Reviews, storage.DefaultBatchSize); err != nil {
		return err
	}

	reportPath := p.Output.Report
	if reportPath == "" {
		reportPath = filepath.Join(filepath.Dir(p.Output.Dataset.Path), "validation.json")
	}
	body, err := res.Report.JSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(reportPath, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
