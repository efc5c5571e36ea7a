// Package config provides configuration models and helpers for conversion runs.
//
// This file adds a lightweight linter for Conversion values. It performs
// static checks over a decoded Conversion and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Conversion.
//
// Path is a dotted path into the config (e.g. "source.options.comma").
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

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownOptions lists the keys read from source.options.
var knownOptions = map[string]struct{}{
	"sheet":          {},
	"comma":          {},
	"encoding":       {},
	"lazy_quotes":    {},
	"header_offsets": {},
}

// ValidateConversion performs static validation of a Conversion. It does not
// mutate c.
//
// Example:
//
//	c, err := config.Load("wordconv.yaml")
//	if err != nil { ... }
//	for _, iss := range config.ValidateConversion(c) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateConversion(c Conversion) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource(c.Source)...)
	issues = append(issues, validateOutput(c.Output)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.XLSXPath) == "" && strings.TrimSpace(s.CSVPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source",
			Message:  "at least one of source.xlsx_path and source.csv_path must be set",
		})
	}
	issues = append(issues, validateOptions(s.Options)...)

	return issues
}

func validateOptions(o Options) []Issue {
	var issues []Issue

	// Sorted so the report is stable.
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := knownOptions[k]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.options." + k,
				Message:  fmt.Sprintf("unknown option %q is ignored", k),
			})
		}
	}

	if v, ok := o["sheet"]; ok {
		if _, isStr := v.(string); !isStr {
			issues = append(issues, typeIssue("sheet", "a string", v))
		}
	}

	if v, ok := o["comma"]; ok {
		s, isStr := v.(string)
		switch {
		case !isStr:
			issues = append(issues, typeIssue("comma", "a string", v))
		case len([]rune(s)) != 1:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.comma",
				Message:  fmt.Sprintf("comma must be exactly one character, got %q", s),
			})
		case s == "\"" || s == "\r" || s == "\n":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.comma",
				Message:  fmt.Sprintf("%q cannot be used as a delimiter", s),
			})
		}
	}

	if v, ok := o["encoding"]; ok {
		s, isStr := v.(string)
		if !isStr {
			issues = append(issues, typeIssue("encoding", "a string", v))
		} else if s != "" {
			if _, err := htmlindex.Get(s); err != nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "source.options.encoding",
					Message:  fmt.Sprintf("unknown encoding %q", s),
				})
			}
		}
	}

	if v, ok := o["lazy_quotes"]; ok {
		if _, isBool := v.(bool); !isBool {
			issues = append(issues, typeIssue("lazy_quotes", "a boolean", v))
		}
	}

	if v, ok := o["header_offsets"]; ok {
		issues = append(issues, validateOffsets(v)...)
	}

	return issues
}

func validateOffsets(v any) []Issue {
	const path = "source.options.header_offsets"

	var elems []any
	switch vv := v.(type) {
	case []any:
		elems = vv
	case []int:
		for _, n := range vv {
			elems = append(elems, n)
		}
	default:
		return []Issue{typeIssue("header_offsets", "an array of integers", v)}
	}

	if len(elems) == 0 {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     path,
			Message:  "header_offsets is empty; the default offsets 0, 1, 2 are used",
		}}
	}

	var issues []Issue
	for i, e := range elems {
		n, ok := toInt(e)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s[%d]", path, i),
				Message:  fmt.Sprintf("header offset must be an integer, got %v", e),
			})
			continue
		}
		if n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s[%d]", path, i),
				Message:  fmt.Sprintf("header offset must not be negative, got %d", n),
			})
		}
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output.path must not be empty",
		})
	}
	if strings.Trim(o.Indent, " \t") != "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.indent",
			Message:  fmt.Sprintf("indent %q must contain only spaces or tabs", o.Indent),
		})
	}

	return issues
}

func typeIssue(key, want string, got any) Issue {
	return Issue{
		Severity: SeverityError,
		Path:     "source.options." + key,
		Message:  fmt.Sprintf("%s must be %s, got %T", key, want, got),
	}
}
