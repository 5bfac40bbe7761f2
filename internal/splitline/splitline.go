// Package splitline detects raw lines that pack several exercises into
// one line ("Remo 3x10 Press 4x8") and splits them into independent
// segments before per-line parsing. A line it cannot split cleanly is
// kept whole and flagged, never silently dropped.
package splitline

import (
	"regexp"
	"strings"
)

// prescriptionRes is the regex family that marks a prescription-shaped
// span: NxM (ranges and AMRAP included) and word-series forms.
var prescriptionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*[x×]\s*(?:\d+(?:\s*[-–—]\s*\d+)?|amrap|fallo)`),
	regexp.MustCompile(`(?i)\d+\s+(?:series|serie|sets|set|rondas)(?:\s+(?:de|of)\s+\d+(?:\s*[-–—]\s*\d+)?)?`),
}

// Paren boundaries come in two layouts: "Remo (3x10) Press (4x8)" cuts
// after a closing parenthesis followed by a letter, while
// "(3x10) Remo (4x8) Press" cuts before an opening parenthesis that
// follows a letter.
var (
	parenCloseRe = regexp.MustCompile(`\)\s*[\p{L}]`)
	parenOpenRe  = regexp.MustCompile(`[\p{L}]\s*\(`)
)

// trailingNameRe finds a trailing run of words in an inter-span gap that
// reads like the next exercise's name.
var trailingNameRe = regexp.MustCompile(`[\p{L}][\p{L}\s]*$`)

// Segment is one independent slice of the original line. Offset is the
// byte position of the slice in the raw line, for provenance.
type Segment struct {
	Text   string
	Offset int
}

// Result reports how a line was (or was not) split.
type Result struct {
	Segments []Segment
	// Applied is true when the line actually split into two or more parts.
	Applied bool
	// Unresolved is true when two or more prescription spans were seen
	// but no clean split could be derived.
	Unresolved bool
}

type span struct{ from, to int }

// CountSpans reports how many prescription-shaped spans a line holds.
// The draft builder uses it for coverage accounting.
func CountSpans(line string) int {
	return len(findSpans(line))
}

// Split analyzes one raw line. Lines with fewer than two prescription
// spans pass through whole. Otherwise stage A (parenthesis boundaries)
// runs first, then stage B (name runs in the gaps); if neither yields
// valid segments the line stays whole with Unresolved set.
func Split(line string) Result {
	spans := findSpans(line)
	if len(spans) < 2 {
		return Result{Segments: []Segment{{Text: line}}}
	}

	if segs := splitOnParens(line); validSegments(segs) {
		return Result{Segments: segs, Applied: true}
	}
	if segs := splitOnGapNames(line, spans); validSegments(segs) {
		return Result{Segments: segs, Applied: true}
	}

	return Result{Segments: []Segment{{Text: line}}, Unresolved: true}
}

// findSpans returns all non-overlapping prescription spans, leftmost
// first. Overlapping hits from different regexes collapse into one.
func findSpans(line string) []span {
	var all []span
	for _, re := range prescriptionRes {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			all = append(all, span{loc[0], loc[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}
	// Insertion sort by start; inputs are tiny.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].from < all[j-1].from; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	merged := []span{all[0]}
	for _, s := range all[1:] {
		last := &merged[len(merged)-1]
		if s.from < last.to {
			if s.to > last.to {
				last.to = s.to
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// splitOnParens is stage A. Both paren layouts are tried; the first cut
// set whose segments validate wins.
func splitOnParens(line string) []Segment {
	for _, attempt := range []struct {
		re   *regexp.Regexp
		keep int // bytes of the match kept with the left segment
	}{
		{parenCloseRe, 1}, // cut after ")"
		{parenOpenRe, 1},  // cut before "(", keep the letter left
	} {
		locs := attempt.re.FindAllStringIndex(line, -1)
		if len(locs) == 0 {
			continue
		}
		var segs []Segment
		prev := 0
		for _, loc := range locs {
			cut := loc[0] + attempt.keep
			if attempt.re == parenOpenRe {
				// Cut at the "(" itself, not inside the name.
				cut = loc[1] - 1
			}
			if cut <= prev {
				continue
			}
			segs = append(segs, Segment{Text: line[prev:cut], Offset: prev})
			prev = cut
		}
		segs = append(segs, Segment{Text: line[prev:], Offset: prev})
		segs = trimSegments(segs)
		if validSegments(segs) {
			return segs
		}
	}
	return nil
}

// splitOnGapNames is stage B: between each pair of adjacent spans, look
// for a trailing word run in the gap and cut where it starts.
func splitOnGapNames(line string, spans []span) []Segment {
	var cuts []int
	for i := 0; i+1 < len(spans); i++ {
		gap := line[spans[i].to:spans[i+1].from]
		loc := trailingNameRe.FindStringIndex(gap)
		if loc == nil {
			return nil
		}
		name := strings.TrimSpace(gap[loc[0]:loc[1]])
		if name == "" {
			return nil
		}
		cuts = append(cuts, spans[i].to+loc[0])
	}
	var segs []Segment
	prev := 0
	for _, cut := range cuts {
		segs = append(segs, Segment{Text: line[prev:cut], Offset: prev})
		prev = cut
	}
	segs = append(segs, Segment{Text: line[prev:], Offset: prev})
	return trimSegments(segs)
}

// validSegments accepts a split only when it produced at least two
// segments, each holding exactly one prescription span plus some name
// text outside it.
func validSegments(segs []Segment) bool {
	if len(segs) < 2 {
		return false
	}
	for _, seg := range segs {
		spans := findSpans(seg.Text)
		if len(spans) != 1 {
			return false
		}
		outside := seg.Text[:spans[0].from] + seg.Text[spans[0].to:]
		if !containsLetter(outside) {
			return false
		}
	}
	return true
}

func trimSegments(segs []Segment) []Segment {
	out := segs[:0]
	for _, s := range segs {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}
		lead := strings.Index(s.Text, trimmed)
		out = append(out, Segment{Text: trimmed, Offset: s.Offset + lead})
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}
