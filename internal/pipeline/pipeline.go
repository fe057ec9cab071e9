// Package pipeline orchestrates one normalization run: per-source load,
// parse, map, and normalize (optionally in parallel), then a strictly
// sequential merge, dedup, and report build. The merge preserves configured
// source order regardless of worker scheduling, so output is deterministic
// for identical input.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tastetrend/internal/config"
	"tastetrend/internal/datasource/file"
	"tastetrend/internal/dedup"
	"tastetrend/internal/mapping"
	"tastetrend/internal/metrics"
	"tastetrend/internal/normalize"
	csvparser "tastetrend/internal/parser/csv"
	"tastetrend/internal/report"
	"tastetrend/internal/schema"
)

// Result is the output of one run: the finalized canonical reviews and the
// validation report.
type Result struct {
	Reviews []*schema.Review
	Report  *report.Report
}

// Runner executes pipeline runs for one configuration.
type Runner struct {
	cfg    config.Pipeline
	tables mapping.Tables
	log    zerolog.Logger
}

// New builds a Runner. tables normally comes from mapping.Default or
// mapping.Load with the configured override paths.
func New(cfg config.Pipeline, tables mapping.Tables, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, tables: tables, log: log}
}

// sourceOutput is what one worker produces for one source.
type sourceOutput struct {
	partial report.Partial
	reviews []*schema.Review
}

// Run executes the full pipeline. Any error is infrastructural (unreadable
// source, canceled context) and aborts the run; data-quality findings only
// land in the report.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	started := time.Now()

	outputs := make([]sourceOutput, len(r.cfg.Sources))

	g, gctx := errgroup.WithContext(ctx)
	if w := r.cfg.Runtime.SourceWorkers; w > 0 {
		g.SetLimit(w)
	} else {
		g.SetLimit(1)
	}
	for i, src := range r.cfg.Sources {
		g.Go(func() error {
			out, err := r.processSource(gctx, src)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordStage(r.cfg.Job, "normalize", err, time.Since(started))
		return Result{}, err
	}
	metrics.RecordStage(r.cfg.Job, "normalize", nil, time.Since(started))

	// Merge in configured source order; worker completion order must not
	// leak into the row ordering that dedup tie-breaks depend on.
	partials := make([]report.Partial, 0, len(outputs))
	var merged []*schema.Review
	for _, out := range outputs {
		partials = append(partials, out.partial)
		merged = append(merged, out.reviews...)
	}

	dedupStart := time.Now()
	dres := dedup.Run(merged)
	metrics.RecordStage(r.cfg.Job, "dedup", nil, time.Since(dedupStart))

	rep := report.Merge(r.cfg.Job, partials)
	rep.AddDedup(dres)
	rep.Finalize(dres.Reviews)

	metrics.RecordRows(r.cfg.Job, "read", int64(rep.TotalRowsRead))
	metrics.RecordRows(r.cfg.Job, "dropped_empty", int64(dres.DroppedEmpty))
	metrics.RecordRows(r.cfg.Job, "dup_exact_text", int64(dres.DupExactText))
	metrics.RecordRows(r.cfg.Job, "dup_composite_key", int64(dres.DupCompositeKey))
	metrics.RecordRows(r.cfg.Job, "conflicts", int64(len(dres.Conflicts)))

	r.log.Info().
		Str("job", r.cfg.Job).
		Int("rows_read", rep.TotalRowsRead).
		Int("final_rows", rep.FinalRows).
		Int("conflicting_ids", rep.ConflictingIDs).
		Str("status", rep.Status).
		Dur("elapsed", time.Since(started)).
		Msg("run complete")

	return Result{Reviews: dres.Reviews, Report: rep}, nil
}

// processSource loads and normalizes one source file. An unreadable file is
// fatal for the whole run; everything after a successful open recovers
// locally and reports instead of failing.
func (r *Runner) processSource(ctx context.Context, src config.Source) (sourceOutput, error) {
	rc, err := file.NewLocal(src.Path).Open(ctx)
	if err != nil {
		return sourceOutput{}, err
	}
	defer rc.Close()

	var comma rune
	for _, c := range src.Delimiter {
		comma = c
		break
	}
	parser := csvparser.NewParser(csvparser.Options{Comma: comma, TrimSpace: true})
	recs, skipped, err := parser.Parse(rc)
	if err != nil {
		return sourceOutput{}, fmt.Errorf("parse %s: %w", src.Path, err)
	}
	if skipped > 0 {
		r.log.Warn().Str("source", src.Name).Int("skipped", skipped).Msg("skipped malformed rows")
	}

	mres := schema.MapSource(src.Name, recs, r.tables.Synonyms, r.log)

	unmappedCat := normalize.Categoricals(mres.Reviews, r.tables)
	scale := normalize.Ratings(mres.Reviews)
	policy := normalize.Policy{
		TipCap:  r.cfg.Limits.TipPercentageCap,
		TextCap: r.cfg.Limits.ReviewTextCap,
	}
	policy.Apply(mres.Reviews)

	return sourceOutput{
		partial: report.Partial{
			Source:      src.Name,
			RowsRead:    len(recs),
			RowsSkipped: skipped,
			ParseErrors: mres.ParseErrors,
			RatingScale: scale,
			Unmapped:    mres.Unmapped,
			Audit:       mres.Audit,
			UnmappedCat: unmappedCat,
		},
		reviews: mres.Reviews,
	}, nil
}
