package contract

import (
	"regexp"
	"strconv"

	"github.com/claude/planlift/internal/token"
)

// Regex fallbacks for shapes the token matchers miss — glued punctuation,
// stray glyphs inside the structure, bare sets counts. They score low so a
// token-based match always wins when both fire.
var (
	legacyClassicRe  = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+)(?:\s*[-–—]\s*(\d+))?`)
	legacySetsOnlyRe = regexp.MustCompile(`(?i)(\d+)\s+(?:series|serie|sets|set|rondas)\b`)
)

// tryLegacyClassic re-scans the raw line with a permissive NxM regex.
func tryLegacyClassic(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	loc := legacyClassicRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	groups := legacyClassicRe.FindStringSubmatch(line)
	sets, _ := strconv.Atoi(groups[1])
	lo, _ := strconv.Atoi(groups[2])
	if sets <= 0 || lo <= 0 {
		return nil
	}

	shape := Shape{
		Kind:     ShapeFixed,
		Sets:     sets,
		RepsMin:  intPtr(lo),
		RepsMax:  intPtr(lo),
		Evidence: EvidenceExplicit,
	}
	if groups[3] != "" {
		hi, _ := strconv.Atoi(groups[3])
		if hi >= lo {
			shape.Kind = ShapeRange
			shape.RepsMax = intPtr(hi)
		}
	} else if sets > 8 && lo <= 8 {
		shape.Sets = lo
		shape.RepsMin = intPtr(sets)
		shape.RepsMax = intPtr(sets)
		shape.Evidence = EvidenceHeuristic
		shape.addReason(ReasonRepsSeriesReordered)
	}

	return legacyCandidate(m, line, toks, start, loc[0], loc[1], shape)
}

// tryLegacySetsOnly catches "4 series" with no rep count at all; the reps
// stay unset and surface later as a blocking field issue.
func tryLegacySetsOnly(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	loc := legacySetsOnlyRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	groups := legacySetsOnlyRe.FindStringSubmatch(line)
	sets, _ := strconv.Atoi(groups[1])
	if sets <= 0 {
		return nil
	}
	shape := Shape{Kind: ShapeFixed, Sets: sets, Evidence: EvidenceExplicit}
	return legacyCandidate(m, line, toks, start, loc[0], loc[1], shape)
}

// legacyCandidate builds a candidate from raw byte bounds instead of
// token indices, marking as structural every token the span overlaps.
func legacyCandidate(m funcMatcher, line string, toks []token.Token, start, from, to int, shape Shape) *Candidate {
	var structural []token.Structural
	for i, t := range toks {
		if t.Start >= from && t.End <= to {
			structural = append(structural, token.Structural{Index: i, Role: token.RoleKeyword})
		}
	}
	if len(structural) == 0 {
		return nil
	}
	c := &Candidate{Matcher: m.name, Priority: m.priority, Shape: shape, Structural: structural}
	c.finalize(line, toks, start)
	return c
}
