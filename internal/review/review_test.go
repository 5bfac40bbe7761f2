package review

import (
	"testing"

	"github.com/claude/planlift/internal/draft"
)

func buildDraft(t *testing.T, sourceType string, texts ...string) *draft.Draft {
	t.Helper()
	lines := make([]draft.SourceLine, len(texts))
	for i, s := range texts {
		lines[i] = draft.SourceLine{Text: s}
	}
	opts := draft.Options{SourceType: sourceType}
	if sourceType == "pdf" {
		opts.ConfidenceBase = 0.75
	}
	return draft.Build(lines, opts)
}

// TestEvaluateCleanDraft produces no issues for a fully parsed document.
func TestEvaluateCleanDraft(t *testing.T) {
	d := buildDraft(t, "text",
		"Lunes",
		"Press banca 3x8",
		"Sentadilla 4x6",
	)
	issues, stats := Evaluate(d)
	if len(issues) != 0 {
		t.Fatalf("issues = %+v, want none", issues)
	}
	if stats.Days != 1 || stats.Exercises != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if Blocking(issues) {
		t.Error("clean draft reported blocking")
	}
}

// TestEvaluateZeroExercises is always a hard error, any source type.
func TestEvaluateZeroExercises(t *testing.T) {
	d := buildDraft(t, "text", "Lunes", "Notas generales del mes")
	issues, stats := Evaluate(d)
	if !hasIssue(issues, CodeNoExercises, SeverityHardError) {
		t.Fatalf("issues = %+v, want %s hard_error", issues, CodeNoExercises)
	}
	if !Blocking(issues) {
		t.Error("zero exercises not blocking")
	}
	if stats.HardErrors == 0 {
		t.Error("stats.HardErrors = 0")
	}
}

// TestEvaluatePDFGates fails a thin PDF extraction on the coverage gates:
// two exercises and no detected day can never reach ready.
func TestEvaluatePDFGates(t *testing.T) {
	d := buildDraft(t, "pdf",
		"Press banca 3x8",
		"Sentadilla 4x6",
	)
	issues, _ := Evaluate(d)
	if !hasIssue(issues, CodePDFCoverage, SeverityHardError) {
		t.Fatalf("issues = %+v, want %s", issues, CodePDFCoverage)
	}
	if !Blocking(issues) {
		t.Error("failed pdf gates not blocking")
	}
}

// TestEvaluatePDFHeadingless fails the day gate even when every line
// parses: the implicit day holding headingless exercises is not a
// detected day heading.
func TestEvaluatePDFHeadingless(t *testing.T) {
	d := buildDraft(t, "pdf",
		"Press banca 3x8",
		"Sentadilla 4x6",
		"Peso muerto 3x5",
		"Remo con barra 4x10",
	)
	if len(d.Days) != 1 || d.Days[0].SourceLabel != "" {
		t.Fatalf("draft days = %+v, want one implicit day", d.Days)
	}
	issues, _ := Evaluate(d)
	if !hasIssue(issues, CodePDFCoverage, SeverityHardError) {
		t.Fatalf("issues = %+v, want %s for zero detected day headings", issues, CodePDFCoverage)
	}
	if !Blocking(issues) {
		t.Error("headingless pdf not blocking")
	}
}

// TestEvaluatePDFAcceptable passes a well-extracted PDF through the gates.
func TestEvaluatePDFAcceptable(t *testing.T) {
	d := buildDraft(t, "pdf",
		"Lunes",
		"Press banca 3x8",
		"Sentadilla 4x6",
		"Peso muerto 3x5",
	)
	issues, _ := Evaluate(d)
	if hasIssue(issues, CodePDFCoverage, SeverityHardError) {
		t.Fatalf("issues = %+v, pdf gates should pass", issues)
	}
}

// TestEvaluateTextSoftRatio gives non-PDF sources a needs_review instead
// of a hard failure on poor parse ratio.
func TestEvaluateTextSoftRatio(t *testing.T) {
	d := buildDraft(t, "text",
		"Press banca 3x8",
		"Frase uno sin estructura",
		"Frase dos sin estructura",
		"Frase tres sin estructura",
	)
	issues, _ := Evaluate(d)
	if !hasIssue(issues, CodeLowParsedRatio, SeverityNeedsReview) {
		t.Fatalf("issues = %+v, want %s needs_review", issues, CodeLowParsedRatio)
	}
	if Blocking(issues) {
		t.Error("soft ratio issue should not block")
	}
}

// TestEvaluateUnresolvedAndShortfall flags a packed line that could not
// be split, plus the resulting exercise shortfall.
func TestEvaluateUnresolvedAndShortfall(t *testing.T) {
	d := buildDraft(t, "text",
		"Lunes",
		"Press banca 3x8",
		"Remo 3x10 4x8",
	)
	issues, _ := Evaluate(d)
	if !hasIssue(issues, CodeUnresolvedLines, SeverityNeedsReview) {
		t.Errorf("issues = %+v, want %s", issues, CodeUnresolvedLines)
	}
	if !hasIssue(issues, CodeNodeShortfall, SeverityNeedsReview) {
		t.Errorf("issues = %+v, want %s", issues, CodeNodeShortfall)
	}
}

// TestEvaluateHeuristicShape surfaces the reversed sets/reps inference
// for trainer review without blocking.
func TestEvaluateHeuristicShape(t *testing.T) {
	d := buildDraft(t, "text", "Lunes", "Curl biceps 12x3")
	issues, _ := Evaluate(d)
	found := false
	for _, is := range issues {
		if is.Code == CodeHeuristicShape {
			found = true
			if is.Scope != ScopeNode {
				t.Errorf("scope = %q, want node", is.Scope)
			}
			if is.Path != NodePath(0, 0, 0) {
				t.Errorf("path = %q", is.Path)
			}
		}
	}
	if !found {
		t.Fatalf("issues = %+v, want %s", issues, CodeHeuristicShape)
	}
	if Blocking(issues) {
		t.Error("heuristic inference should not block")
	}
}

func hasIssue(issues []Issue, code string, sev Severity) bool {
	for _, is := range issues {
		if is.Code == code && is.Severity == sev {
			return true
		}
	}
	return false
}
