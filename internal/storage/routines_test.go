package storage

import (
	"testing"

	"github.com/claude/planlift/internal/plan"
)

func planWith(day, name string) *plan.WeeklyPlan {
	p := plan.New()
	d := p.Days[day]
	d.Exercises = append(d.Exercises, plan.Exercise{Name: name, Sets: 3})
	p.Days[day] = d
	return p
}

// TestApplyPolicyOverwriteAll replaces the whole plan.
func TestApplyPolicyOverwriteAll(t *testing.T) {
	current := planWith("monday", "Press banca")
	incoming := planWith("tuesday", "Sentadilla")

	next, err := applyPolicy(current, CommitParams{Policy: PolicyOverwriteAll, Plan: incoming})
	if err != nil {
		t.Fatalf("applyPolicy: %v", err)
	}
	if len(next.Days["monday"].Exercises) != 0 {
		t.Error("monday survived a full overwrite")
	}
	if len(next.Days["tuesday"].Exercises) != 1 {
		t.Error("tuesday missing after full overwrite")
	}
}

// TestApplyPolicyOverwriteDays replaces only the selected days and keeps
// the rest of the live plan.
func TestApplyPolicyOverwriteDays(t *testing.T) {
	current := planWith("monday", "Press banca")
	incoming := planWith("tuesday", "Sentadilla")

	next, err := applyPolicy(current, CommitParams{
		Policy: PolicyOverwriteDays, Days: []string{"tuesday"}, Plan: incoming,
	})
	if err != nil {
		t.Fatalf("applyPolicy: %v", err)
	}
	if len(next.Days["monday"].Exercises) != 1 {
		t.Error("monday lost by a tuesday-only commit")
	}
	if len(next.Days["tuesday"].Exercises) != 1 {
		t.Error("tuesday not applied")
	}
}

// TestApplyPolicyRejects covers the malformed parameter cases.
func TestApplyPolicyRejects(t *testing.T) {
	current := plan.New()
	incoming := plan.New()

	if _, err := applyPolicy(current, CommitParams{Policy: PolicyOverwriteDays, Plan: incoming}); err == nil {
		t.Error("empty day list accepted")
	}

	bare := &plan.WeeklyPlan{Days: map[string]plan.Day{}}
	if _, err := applyPolicy(current, CommitParams{
		Policy: PolicyOverwriteDays, Days: []string{"monday"}, Plan: bare,
	}); err == nil {
		t.Error("day absent from incoming plan accepted")
	}

	if _, err := applyPolicy(current, CommitParams{Policy: "merge", Plan: incoming}); err == nil {
		t.Error("unknown policy accepted")
	}
}
