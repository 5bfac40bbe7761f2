package planout

import (
	"fmt"
	"testing"

	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/review"
)

func build(texts ...string) *draft.Draft {
	lines := make([]draft.SourceLine, len(texts))
	for i, s := range texts {
		lines[i] = draft.SourceLine{Text: s}
	}
	return draft.Build(lines, draft.Options{SourceType: "text"})
}

// TestFromDraftPlacesDays flattens blocks into ordered slots and carries
// group metadata through.
func TestFromDraftPlacesDays(t *testing.T) {
	d := build(
		"Lunes",
		"Press banca 3x8",
		"Circuito:",
		"Burpees 3x15",
		"Plancha 4x30",
		"Martes",
		"Sentadilla 5x5",
	)
	p, issues := FromDraft(d)
	if p == nil {
		t.Fatal("plan is nil")
	}
	for _, is := range issues {
		if is.Severity == review.SeverityHardError || is.Severity == review.SeverityBlocking {
			t.Fatalf("unexpected blocker: %+v", is)
		}
	}

	mon := p.Days["monday"].Exercises
	if len(mon) != 3 {
		t.Fatalf("monday exercises = %d, want 3", len(mon))
	}
	if mon[0].Name != "Press banca" || mon[0].GroupKind != "single" || mon[0].GroupIndex != 0 {
		t.Errorf("mon[0] = %+v", mon[0])
	}
	if mon[1].GroupKind != "circuit" || mon[1].GroupIndex != 1 {
		t.Errorf("mon[1] group = %s/%d, want circuit/1", mon[1].GroupKind, mon[1].GroupIndex)
	}
	if mon[2].Position != 2 {
		t.Errorf("mon[2] position = %d, want 2", mon[2].Position)
	}
	if got := len(p.Days["tuesday"].Exercises); got != 1 {
		t.Errorf("tuesday exercises = %d, want 1", got)
	}
	if p.ExerciseCount() != 4 {
		t.Errorf("total = %d, want 4", p.ExerciseCount())
	}
}

// TestFromDraftTooManyDays refuses to adapt more than seven days.
func TestFromDraftTooManyDays(t *testing.T) {
	var texts []string
	for i := 1; i <= 8; i++ {
		texts = append(texts, fmt.Sprintf("Día %d", i), "Press banca 3x8")
	}
	p, issues := FromDraft(build(texts...))
	if p != nil {
		t.Fatal("plan should be nil past seven days")
	}
	if len(issues) != 1 || issues[0].Code != review.CodeTooManyDays ||
		issues[0].Severity != review.SeverityHardError {
		t.Fatalf("issues = %+v", issues)
	}
}

// TestFromDraftDayCollision leaves the second claimant out of the plan
// and surfaces the collision.
func TestFromDraftDayCollision(t *testing.T) {
	d := build(
		"Lunes",
		"Press banca 3x8",
		"Lunes - semana B",
		"Sentadilla 5x5",
	)
	p, issues := FromDraft(d)
	if got := len(p.Days["monday"].Exercises); got != 1 {
		t.Errorf("monday exercises = %d, want 1", got)
	}
	found := false
	for _, is := range issues {
		if is.Code == review.CodeDayKeyCollision && is.Scope == review.ScopeDay {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %+v, want day collision", issues)
	}
}

// TestFromDraftUnresolvedDay keeps exercises of an unmapped day out of
// the plan but still validates them.
func TestFromDraftUnresolvedDay(t *testing.T) {
	d := build(
		"Lunes",
		"Press banca 3x8",
		"Día 2",
		"Sentadilla 5x5",
	)
	p, issues := FromDraft(d)
	if p.ExerciseCount() != 1 {
		t.Errorf("total = %d, want 1 (unmapped day excluded)", p.ExerciseCount())
	}
	found := false
	for _, is := range issues {
		if is.Code == review.CodeDayKeyUnresolved {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %+v, want unresolved day key", issues)
	}
}

// TestFromDraftMissingFieldsBlock turns an incomplete node into
// needs_review_blocking issues that prevent commit.
func TestFromDraftMissingFieldsBlock(t *testing.T) {
	d := build("Lunes", "Press banca 3x8")
	// A trainer edit can blank a field; the adapter must catch it.
	d.Days[0].Blocks[0].Nodes[0].Name = ""

	p, issues := FromDraft(d)
	if got := len(p.Days["monday"].Exercises); got != 0 {
		t.Errorf("monday exercises = %d, want 0", got)
	}
	found := false
	for _, is := range issues {
		if is.Code == review.CodeMissingName && is.Severity == review.SeverityBlocking {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %+v, want blocking missing name", issues)
	}
	if !review.Blocking(issues) {
		t.Error("missing name should block commit")
	}
}

// TestFromDraftSetsOnlyBlocksOnReps surfaces a sets-only prescription as
// a blocking missing-reps issue.
func TestFromDraftSetsOnlyBlocksOnReps(t *testing.T) {
	d := build("Lunes", "Plancha 4 rondas")
	p, issues := FromDraft(d)
	if got := len(p.Days["monday"].Exercises); got != 0 {
		t.Errorf("monday exercises = %d, want 0", got)
	}
	found := false
	for _, is := range issues {
		if is.Code == review.CodeMissingReps && is.Severity == review.SeverityBlocking {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %+v, want blocking missing reps", issues)
	}
}
