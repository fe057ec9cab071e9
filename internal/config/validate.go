// Package config provides configuration models and helpers for review
// pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "output.dataset.kind",
// "sources[1].path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateSources(p.Sources)...)
	issues = append(issues, validateLimits(p.Limits)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSources validates the source file list.
func validateSources(ss []Source) []Issue {
	var issues []Issue

	if len(ss) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources",
			Message:  "at least one source file is required",
		})
		return issues
	}

	seen := make(map[string]int, len(ss))
	for i, s := range ss {
		if strings.TrimSpace(s.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("sources[%d].name", i),
				Message:  "source name must not be empty",
			})
		}
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("sources[%d].path", i),
				Message:  "source requires a non-empty path",
			})
		}
		if len(s.Delimiter) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("sources[%d].delimiter", i),
				Message:  fmt.Sprintf("delimiter must be a single character, got %q", s.Delimiter),
			})
		}
		if prev, dup := seen[s.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("sources[%d].name", i),
				Message:  fmt.Sprintf("duplicate source name %q (also sources[%d]); audit sections will be merged", s.Name, prev),
			})
		} else {
			seen[s.Name] = i
		}
	}

	return issues
}

// validateLimits validates the outlier policy knobs.
func validateLimits(l Limits) []Issue {
	var issues []Issue

	if l.ReviewTextCap < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "limits.review_text_cap",
			Message:  "review_text_cap must not be negative",
		})
	}
	if l.TipPercentageCap < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "limits.tip_percentage_cap",
			Message:  "tip_percentage_cap must not be negative",
		})
	}

	return issues
}

// validateOutput validates the artifact configuration.
func validateOutput(o Output) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(o.Dataset.Kind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.dataset.kind",
			Message:  "output.dataset.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"csv":      {},
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.dataset.kind",
			Message:  fmt.Sprintf("unknown dataset kind %q; ensure a matching backend is registered", kind),
		})
	}

	switch kind {
	case "csv":
		if strings.TrimSpace(o.Dataset.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dataset.path",
				Message:  "csv dataset requires a non-empty path",
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(o.Dataset.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dataset.db.dsn",
				Message:  "database dataset requires a non-empty dsn",
			})
		}
		if strings.TrimSpace(o.Dataset.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dataset.db.table",
				Message:  "database dataset requires a non-empty table",
			})
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.SourceWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.source_workers",
			Message:  "source_workers must not be negative",
		})
	}

	return issues
}
