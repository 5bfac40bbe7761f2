package draft

import (
	"strings"
	"unicode"

	"github.com/claude/planlift/internal/contract"
	"github.com/claude/planlift/internal/namenote"
	"github.com/claude/planlift/internal/splitline"
)

// SourceLine is one line of the common stream every format adapter
// produces. Page is zero for inherently linear sources.
type SourceLine struct {
	Text string
	Page int
}

// Options tunes a build for its source.
type Options struct {
	SourceType       string
	ExtractorVersion string
	// ConfidenceBase scales all field confidence; layout-derived sources
	// (PDF) start lower than already-linear text.
	ConfidenceBase float64
}

// cursor is the builder's explicit walk state: the day and block under
// construction and the last node appended, threaded through the fold
// over lines instead of hidden in package state.
type cursor struct {
	days     []Day
	dayIdx   int
	blockIdx int
	lastDay  int
	lastBlk  int
	lastNode int
}

func newCursor() *cursor {
	return &cursor{dayIdx: -1, blockIdx: -1, lastDay: -1, lastBlk: -1, lastNode: -1}
}

func (c *cursor) startDay(label, key string) {
	c.days = append(c.days, Day{SourceLabel: label, MappedDayKey: key})
	c.dayIdx = len(c.days) - 1
	c.blockIdx = -1
	c.lastDay, c.lastBlk, c.lastNode = -1, -1, -1
}

func (c *cursor) startBlock(kind BlockKind) {
	c.ensureDay()
	day := &c.days[c.dayIdx]
	day.Blocks = append(day.Blocks, Block{Kind: kind})
	c.blockIdx = len(day.Blocks) - 1
}

func (c *cursor) ensureDay() {
	if c.dayIdx == -1 {
		c.startDay("", "")
	}
}

func (c *cursor) appendNode(n Node) {
	c.ensureDay()
	if c.blockIdx == -1 {
		c.startBlock(BlockSingle)
	}
	blk := &c.days[c.dayIdx].Blocks[c.blockIdx]
	blk.Nodes = append(blk.Nodes, n)
	c.lastDay, c.lastBlk, c.lastNode = c.dayIdx, c.blockIdx, len(blk.Nodes)-1
}

// last returns the most recently appended node, or nil.
func (c *cursor) last() *Node {
	if c.lastNode == -1 {
		return nil
	}
	return &c.days[c.lastDay].Blocks[c.lastBlk].Nodes[c.lastNode]
}

// Build walks the line stream in order and assembles the draft. Parsing
// is pure: same lines in, same draft out.
func Build(lines []SourceLine, opts Options) *Draft {
	if opts.ConfidenceBase == 0 {
		opts.ConfidenceBase = 1.0
	}

	cur := newCursor()
	cov := Coverage{}
	mapNumeric := !hasNamedHeadings(lines)

	for idx, ln := range lines {
		cov.LinesIn++
		text := strings.TrimSpace(ln.Text)
		if isNoiseLine(text) {
			continue
		}

		if h, ok := matchDayHeading(text); ok {
			key := h.key
			if key == "" && mapNumeric && h.number >= 1 && h.number <= 7 {
				key = Weekdays[h.number-1]
			}
			cur.startDay(h.label, key)
			continue
		}
		if kind, ok := matchBlockHeading(text); ok {
			cur.startBlock(kind)
			continue
		}

		spans := splitline.CountSpans(text)

		// A line with no prescription that reads like instruction text
		// continues the previous node's note rather than becoming a
		// phantom exercise.
		if spans == 0 && looksLikeNote(text) {
			if prev := cur.last(); prev != nil {
				appendNote(prev, text, ln.Page, idx, opts)
				continue
			}
		}

		cov.CandidateLines++
		cov.PrescriptionLines += spans

		res := splitline.Split(text)
		if res.Applied {
			cov.SplitsApplied++
		}
		if res.Unresolved {
			cov.UnresolvedLines++
		}

		parsed := false
		for _, seg := range res.Segments {
			c := contract.Match(seg.Text)
			if c == nil {
				continue
			}
			node := buildNode(c, seg, ln.Page, idx, opts)
			cur.appendNode(node)
			cov.ExercisesOut++
			parsed = true
		}
		if parsed {
			cov.ParsedLines++
		}
	}

	d := &Draft{
		Version:          1,
		SourceType:       opts.SourceType,
		ParserVersion:    ParserVersion,
		RulesetVersion:   RulesetVersion,
		ExtractorVersion: opts.ExtractorVersion,
		Days:             cur.days,
	}
	finishCoverage(&cov, d)
	d.Coverage = cov
	return d
}

// hasNamedHeadings pre-scans for named weekday headings. Numeric "Día N"
// headings map positionally only when the document never names a
// weekday; mixing both leaves the numeric ones unmapped.
func hasNamedHeadings(lines []SourceLine) bool {
	for _, ln := range lines {
		if h, ok := matchDayHeading(strings.TrimSpace(ln.Text)); ok && h.key != "" {
			return true
		}
	}
	return false
}

// buildNode turns a winning candidate plus its segment into a DraftNode
// with per-field confidence and provenance.
func buildNode(c *contract.Candidate, seg splitline.Segment, page, lineIdx int, opts Options) Node {
	structFrom := c.NameEnd
	structTo := c.StructureEnd
	if structTo > len(seg.Text) {
		structTo = len(seg.Text)
	}
	if structFrom > structTo {
		structFrom = structTo
	}
	structRaw := seg.Text[structFrom:structTo]
	tail := ""
	if structTo < len(seg.Text) {
		tail = seg.Text[structTo:]
	}

	name, note, meta := namenote.Resolve(c.NameText, tail, strings.TrimSpace(structRaw))

	base := opts.ConfidenceBase
	evidence := 0.95
	if c.Shape.Evidence == contract.EvidenceHeuristic {
		evidence = 0.7
	}
	penalty := 0.05 * float64(len(c.Shape.InferenceReasons))
	structScore := base*evidence - penalty
	nameScore := base*0.9 + meta.ConfidenceDelta
	if name == "" {
		nameScore = 0
	}

	prov := func(from, to int) Provenance {
		return Provenance{
			SourcePage: page,
			LineIndex:  lineIdx,
			LineSpan:   [2]int{seg.Offset + from, seg.Offset + to},
			RawSnippet: seg.Text,
		}
	}

	fields := map[string]Field{
		"name": {Confidence: Grade(nameScore), Provenance: prov(c.NameStart, c.NameEnd)},
		"sets": {Confidence: Grade(structScore), Provenance: prov(structFrom, structTo)},
		"reps": {Confidence: Grade(structScore), Provenance: prov(structFrom, structTo)},
	}
	if note != "" {
		fields["note"] = Field{Confidence: Grade(base * 0.7), Provenance: prov(structTo, len(seg.Text))}
	}

	metaCopy := meta
	return Node{
		Raw:       seg.Text,
		Name:      name,
		Note:      note,
		Shape:     c.Shape,
		SplitMeta: &metaCopy,
		Fields:    fields,
	}
}

// appendNote attaches a free-text continuation line to the previous node.
func appendNote(prev *Node, text string, page, lineIdx int, opts Options) {
	if prev.Note == "" {
		prev.Note = text
	} else {
		prev.Note += "; " + text
	}
	if prev.SplitMeta == nil || prev.SplitMeta.Decision == namenote.DecisionNoTail {
		prev.SplitMeta = &namenote.Meta{
			Decision:     namenote.DecisionNoteExtract,
			Reason:       "continuation_line",
			TailOriginal: text,
		}
	}
	prev.Fields["note"] = Field{
		Confidence: Grade(opts.ConfidenceBase * 0.65),
		Provenance: Provenance{
			SourcePage: page,
			LineIndex:  lineIdx,
			LineSpan:   [2]int{0, len(text)},
			RawSnippet: text,
		},
	}
}

// looksLikeNote reports a line that reads as coaching instruction: it
// either carries a strong note keyword or starts lowercase.
func looksLikeNote(text string) bool {
	if namenote.HasStrongSignal(text) {
		return true
	}
	for _, r := range text {
		return unicode.IsLower(r)
	}
	return false
}

// finishCoverage derives the ratios once all counters are in.
func finishCoverage(cov *Coverage, d *Draft) {
	if cov.CandidateLines > 0 {
		cov.ParsedRatio = float64(cov.ParsedLines) / float64(cov.CandidateLines)
	}
	total, complete := 0, 0
	for _, day := range d.Days {
		for _, b := range day.Blocks {
			for _, n := range b.Nodes {
				total++
				if n.Name != "" && n.Shape.Sets >= 1 && hasReps(n.Shape) {
					complete++
				}
			}
		}
	}
	if total > 0 {
		cov.RequiredFieldRatio = float64(complete) / float64(total)
	}
}

func hasReps(s contract.Shape) bool {
	return s.RepsMin != nil || len(s.RepsList) > 0 || s.SpecialReps != ""
}
