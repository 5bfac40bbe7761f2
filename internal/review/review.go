// Package review evaluates a built draft: coverage gates, structural
// checks and the issue list that decides whether a job may be committed.
// Evaluation is pure; the same draft always yields the same issues.
package review

import (
	"fmt"

	"github.com/claude/planlift/internal/draft"
)

// Severity orders issues from fatal to informational.
type Severity string

const (
	SeverityHardError      Severity = "hard_error"
	SeverityBlocking       Severity = "needs_review_blocking"
	SeverityNeedsReview    Severity = "needs_review"
	SeverityWarning        Severity = "warning"
	SeverityAutofixApplied Severity = "autofix_applied"
)

// Scope names the draft level an issue points at.
type Scope string

const (
	ScopeJob   Scope = "job"
	ScopeDay   Scope = "day"
	ScopeBlock Scope = "block"
	ScopeNode  Scope = "node"
	ScopeField Scope = "field"
)

// Issue codes.
const (
	CodeNoExercises      = "no_exercises_parsed"
	CodePDFCoverage      = "pdf_coverage_below_minimum"
	CodeLowParsedRatio   = "low_parsed_ratio"
	CodeUnresolvedLines  = "unresolved_multi_exercise_lines"
	CodeNodeShortfall    = "exercise_count_below_prescriptions"
	CodeLowConfidence    = "low_confidence_field"
	CodeMissingName      = "missing_exercise_name"
	CodeMissingSets      = "missing_sets"
	CodeMissingReps      = "missing_reps"
	CodeTooManyDays      = "too_many_days"
	CodeDayKeyCollision  = "day_key_collision"
	CodeDayKeyUnresolved = "day_key_unresolved"
	CodeHeuristicShape   = "heuristic_structure_inference"
)

// Issue is one finding against a draft or its derived plan.
type Issue struct {
	Severity     Severity          `json:"severity"`
	Code         string            `json:"code"`
	Scope        Scope             `json:"scope"`
	Path         string            `json:"path"`
	Message      string            `json:"message"`
	Provenance   *draft.Provenance `json:"provenance,omitempty"`
	SuggestedFix string            `json:"suggested_fix,omitempty"`
}

// Stats summarizes an evaluation alongside its issues.
type Stats struct {
	Days         int     `json:"days"`
	Exercises    int     `json:"exercises"`
	ParsedRatio  float64 `json:"parsed_ratio"`
	FieldRatio   float64 `json:"required_field_ratio"`
	IssueCount   int     `json:"issue_count"`
	HardErrors   int     `json:"hard_errors"`
	BlockerCount int     `json:"blocker_count"`
}

// PDF extraction quality cannot be trusted below these floors; any miss
// fails the whole job.
const (
	pdfMinDays       = 1
	pdfMinExercises  = 3
	pdfMinParsed     = 0.5
	pdfMinFieldRatio = 0.6

	textSoftParsed = 0.3
)

// Evaluate runs every draft-level check and returns the issues with
// summary stats. Adapter-level issues (missing fields, day collisions)
// are appended separately by the planout package.
func Evaluate(d *draft.Draft) ([]Issue, Stats) {
	var issues []Issue
	cov := d.Coverage
	exercises := d.NodeCount()

	if exercises == 0 {
		issues = append(issues, Issue{
			Severity:     SeverityHardError,
			Code:         CodeNoExercises,
			Scope:        ScopeJob,
			Path:         "draft",
			Message:      "no exercises could be parsed from the source",
			SuggestedFix: "check the source file for recognizable prescriptions like \"Press banca 3x8\"",
		})
	}

	if d.SourceType == "pdf" {
		issues = append(issues, pdfGates(d, exercises)...)
	} else if cov.CandidateLines > 0 && cov.ParsedRatio < textSoftParsed && exercises > 0 {
		issues = append(issues, Issue{
			Severity: SeverityNeedsReview,
			Code:     CodeLowParsedRatio,
			Scope:    ScopeJob,
			Path:     "draft.coverage",
			Message: fmt.Sprintf("only %d of %d candidate lines parsed (%.0f%%)",
				cov.ParsedLines, cov.CandidateLines, cov.ParsedRatio*100),
		})
	}

	if cov.UnresolvedLines > 0 {
		issues = append(issues, Issue{
			Severity: SeverityNeedsReview,
			Code:     CodeUnresolvedLines,
			Scope:    ScopeJob,
			Path:     "draft.coverage",
			Message: fmt.Sprintf("%d line(s) hold multiple prescriptions that could not be split",
				cov.UnresolvedLines),
			SuggestedFix: "put each exercise on its own line in the source",
		})
	}

	if exercises > 0 && cov.PrescriptionLines > cov.ExercisesOut {
		issues = append(issues, Issue{
			Severity: SeverityNeedsReview,
			Code:     CodeNodeShortfall,
			Scope:    ScopeJob,
			Path:     "draft.coverage",
			Message: fmt.Sprintf("detected %d prescriptions but produced %d exercises",
				cov.PrescriptionLines, cov.ExercisesOut),
		})
	}

	issues = append(issues, nodeIssues(d)...)

	stats := Stats{
		Days:        len(d.Days),
		Exercises:   exercises,
		ParsedRatio: cov.ParsedRatio,
		FieldRatio:  cov.RequiredFieldRatio,
		IssueCount:  len(issues),
	}
	for _, is := range issues {
		if is.Severity == SeverityHardError {
			stats.HardErrors++
		}
		if is.Severity == SeverityHardError || is.Severity == SeverityBlocking {
			stats.BlockerCount++
		}
	}
	return issues, stats
}

// pdfGates applies the four minimum-coverage gates to a PDF draft.
func pdfGates(d *draft.Draft, exercises int) []Issue {
	cov := d.Coverage
	fail := func(msg string) Issue {
		return Issue{
			Severity:     SeverityHardError,
			Code:         CodePDFCoverage,
			Scope:        ScopeJob,
			Path:         "draft.coverage",
			Message:      msg,
			SuggestedFix: "re-export the routine as text or a spreadsheet, or fix the PDF export",
		}
	}

	var issues []Issue
	if detectedDays(d) < pdfMinDays {
		issues = append(issues, fail(fmt.Sprintf("pdf extraction found %d day heading(s), need at least %d", detectedDays(d), pdfMinDays)))
	}
	if exercises < pdfMinExercises {
		issues = append(issues, fail(fmt.Sprintf("pdf extraction found %d exercise(s), need at least %d", exercises, pdfMinExercises)))
	}
	if cov.CandidateLines > 0 && cov.ParsedRatio < pdfMinParsed {
		issues = append(issues, fail(fmt.Sprintf("pdf parsed ratio %.2f below minimum %.2f", cov.ParsedRatio, pdfMinParsed)))
	}
	if exercises > 0 && cov.RequiredFieldRatio < pdfMinFieldRatio {
		issues = append(issues, fail(fmt.Sprintf("pdf required-field ratio %.2f below minimum %.2f", cov.RequiredFieldRatio, pdfMinFieldRatio)))
	}
	return issues
}

// detectedDays counts days that came from an actual heading in the
// source. The implicit day the builder synthesizes for exercises that
// appear before any heading has an empty SourceLabel and does not
// count as the extractor having found a day.
func detectedDays(d *draft.Draft) int {
	n := 0
	for _, day := range d.Days {
		if day.SourceLabel != "" {
			n++
		}
	}
	return n
}

// nodeIssues surfaces per-node findings: heuristic structure inference
// and low-confidence fields.
func nodeIssues(d *draft.Draft) []Issue {
	var issues []Issue
	for di, day := range d.Days {
		for bi, b := range day.Blocks {
			for ni, n := range b.Nodes {
				path := NodePath(di, bi, ni)
				if len(n.Shape.InferenceReasons) > 0 {
					prov := fieldProv(n, "sets")
					issues = append(issues, Issue{
						Severity:   SeverityNeedsReview,
						Code:       CodeHeuristicShape,
						Scope:      ScopeNode,
						Path:       path,
						Message:    fmt.Sprintf("structure inferred heuristically (%v) for %q", n.Shape.InferenceReasons, n.Raw),
						Provenance: prov,
					})
				}
				for _, fname := range []string{"name", "sets", "reps"} {
					f, ok := n.Fields[fname]
					if !ok {
						continue
					}
					if f.Confidence.Label == "low" {
						issues = append(issues, Issue{
							Severity:   SeverityNeedsReview,
							Code:       CodeLowConfidence,
							Scope:      ScopeField,
							Path:       path + "." + fname,
							Message:    fmt.Sprintf("%s parsed with low confidence (%.2f)", fname, f.Confidence.Score),
							Provenance: provPtr(f.Provenance),
						})
					}
				}
			}
		}
	}
	return issues
}

// Blocking reports whether the issue list prevents commit.
func Blocking(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityHardError || is.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// NodePath renders the canonical issue path for a node position.
func NodePath(day, block, node int) string {
	return fmt.Sprintf("days[%d].blocks[%d].nodes[%d]", day, block, node)
}

func fieldProv(n draft.Node, fname string) *draft.Provenance {
	if f, ok := n.Fields[fname]; ok {
		return provPtr(f.Provenance)
	}
	return nil
}

func provPtr(p draft.Provenance) *draft.Provenance {
	cp := p
	return &cp
}
