// Package planout adapts a reviewed draft into the canonical weekly
// plan and contributes the per-exercise issues the draft-level checks
// cannot see: missing required fields and day-mapping conflicts.
package planout

import (
	"fmt"

	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/plan"
	"github.com/claude/planlift/internal/review"
)

// FromDraft flattens a draft into a weekly plan. Days without a
// resolved, non-colliding weekday key stay out of the plan but still
// produce issues; a document with more than seven detected days refuses
// to adapt at all.
func FromDraft(d *draft.Draft) (*plan.WeeklyPlan, []review.Issue) {
	if len(d.Days) > 7 {
		return nil, []review.Issue{{
			Severity:     review.SeverityHardError,
			Code:         review.CodeTooManyDays,
			Scope:        review.ScopeJob,
			Path:         "draft.days",
			Message:      fmt.Sprintf("document describes %d days, a weekly plan holds at most 7", len(d.Days)),
			SuggestedFix: "split the document into one file per week",
		}}
	}

	var issues []review.Issue
	p := plan.New()
	claimed := map[string]int{}

	for di, day := range d.Days {
		dayPath := fmt.Sprintf("days[%d]", di)
		placed := false

		if day.MappedDayKey == "" {
			issues = append(issues, review.Issue{
				Severity:     review.SeverityNeedsReview,
				Code:         review.CodeDayKeyUnresolved,
				Scope:        review.ScopeDay,
				Path:         dayPath,
				Message:      fmt.Sprintf("day %q has no resolved weekday; its exercises are not placed in the plan", day.SourceLabel),
				SuggestedFix: "assign a weekday to this day in the preview editor",
			})
		} else if prev, dup := claimed[day.MappedDayKey]; dup {
			issues = append(issues, review.Issue{
				Severity: review.SeverityNeedsReview,
				Code:     review.CodeDayKeyCollision,
				Scope:    review.ScopeDay,
				Path:     dayPath,
				Message: fmt.Sprintf("day %q maps to %s, already taken by day %d",
					day.SourceLabel, day.MappedDayKey, prev),
				SuggestedFix: "reassign one of the colliding days to a free weekday",
			})
		} else {
			claimed[day.MappedDayKey] = di
			placed = true
		}

		issues = append(issues, adaptDay(p, day, di, placed)...)
	}
	return p, issues
}

// adaptDay validates every node of the day and, when the day has a clean
// slot, appends the valid nodes to it in order. Node validation runs
// even for unplaced days so the trainer sees every problem at once.
func adaptDay(p *plan.WeeklyPlan, day draft.Day, di int, placed bool) []review.Issue {
	var issues []review.Issue
	slot := p.Days[day.MappedDayKey]

	for bi, b := range day.Blocks {
		for ni, n := range b.Nodes {
			path := review.NodePath(di, bi, ni)
			ok := true
			if n.Name == "" {
				issues = append(issues, blockingIssue(review.CodeMissingName, path, n,
					"exercise has no name"))
				ok = false
			}
			if n.Shape.Sets < 1 {
				issues = append(issues, blockingIssue(review.CodeMissingSets, path, n,
					"exercise has no set count"))
				ok = false
			}
			if !hasReps(n) {
				issues = append(issues, blockingIssue(review.CodeMissingReps, path, n,
					"exercise has no rep prescription"))
				ok = false
			}
			if !ok || !placed {
				continue
			}
			slot.Exercises = append(slot.Exercises, plan.Exercise{
				Position:    len(slot.Exercises),
				Name:        n.Name,
				Sets:        n.Shape.Sets,
				RepsMin:     n.Shape.RepsMin,
				RepsMax:     n.Shape.RepsMax,
				RepsList:    n.Shape.RepsList,
				SpecialReps: n.Shape.SpecialReps,
				Note:        n.Note,
				GroupKind:   string(b.Kind),
				GroupIndex:  bi,
			})
		}
	}
	if placed {
		p.Days[day.MappedDayKey] = slot
	}
	return issues
}

func blockingIssue(code, path string, n draft.Node, msg string) review.Issue {
	is := review.Issue{
		Severity:     review.SeverityBlocking,
		Code:         code,
		Scope:        review.ScopeNode,
		Path:         path,
		Message:      fmt.Sprintf("%s in %q", msg, n.Raw),
		SuggestedFix: "fill the missing value in the preview editor",
	}
	if f, ok := n.Fields["name"]; ok {
		prov := f.Provenance
		is.Provenance = &prov
	}
	return is
}

func hasReps(n draft.Node) bool {
	s := n.Shape
	return s.RepsMin != nil || len(s.RepsList) > 0 || s.SpecialReps != ""
}
