// Package draft defines the structured, not-yet-committed parse result
// of one import job, and the builder that produces it from a line stream.
package draft

import (
	"github.com/claude/planlift/internal/contract"
	"github.com/claude/planlift/internal/namenote"
)

// Version stamps written into every draft so stored drafts can be traced
// back to the code that produced them.
const (
	ParserVersion  = "parser/3"
	RulesetVersion = "ruleset/7"
)

// BlockKind groups nodes that belong together.
type BlockKind string

const (
	BlockSingle   BlockKind = "single"
	BlockSuperset BlockKind = "superset"
	BlockCircuit  BlockKind = "circuit"
	BlockUnknown  BlockKind = "unknown"
)

// Confidence is a 0..1 score with its bucketed label.
type Confidence struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// Grade buckets a score: high >= 0.8, medium >= 0.55, else low.
func Grade(score float64) Confidence {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	label := "low"
	switch {
	case score >= 0.8:
		label = "high"
	case score >= 0.55:
		label = "medium"
	}
	return Confidence{Score: score, Label: label}
}

// Provenance points a parsed field back at its source text.
type Provenance struct {
	SourcePage int    `json:"source_page"`
	LineIndex  int    `json:"line_index"`
	LineSpan   [2]int `json:"line_span"`
	RawSnippet string `json:"raw_snippet"`
}

// Field carries per-field confidence and provenance.
type Field struct {
	Confidence Confidence `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

// Node is one exercise occurrence.
type Node struct {
	Raw       string           `json:"raw"`
	Name      string           `json:"name"`
	Note      string           `json:"note,omitempty"`
	Shape     contract.Shape   `json:"shape"`
	SplitMeta *namenote.Meta   `json:"split_meta,omitempty"`
	Fields    map[string]Field `json:"fields"`
}

// Block is an ordered run of nodes sharing a grouping.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Nodes []Node    `json:"nodes"`
}

// Day holds the day label as written, the resolved weekday key (empty
// when unresolved or ambiguous), and the day's blocks in order.
type Day struct {
	SourceLabel  string  `json:"source_label"`
	MappedDayKey string  `json:"mapped_day_key,omitempty"`
	Blocks       []Block `json:"blocks"`
}

// Coverage counts how much of the source parsed, and feeds the
// acceptance gates.
type Coverage struct {
	LinesIn           int `json:"lines_in"`
	CandidateLines    int `json:"candidate_lines"`
	ParsedLines       int `json:"parsed_lines"`
	PrescriptionLines int `json:"prescription_lines"`
	ExercisesOut      int `json:"exercises_out"`
	SplitsApplied     int `json:"splits_applied"`
	UnresolvedLines   int `json:"unresolved_multi_exercise_lines"`

	ParsedRatio        float64 `json:"parsed_ratio"`
	RequiredFieldRatio float64 `json:"required_field_ratio"`
}

// Draft is the full parse result. The parser never mutates a produced
// draft; a trainer edit replaces it wholesale through the draft-patch
// endpoint.
type Draft struct {
	Version          int      `json:"version"`
	SourceType       string   `json:"source_type"`
	ParserVersion    string   `json:"parser_version"`
	RulesetVersion   string   `json:"ruleset_version"`
	ExtractorVersion string   `json:"extractor_version,omitempty"`
	Coverage         Coverage `json:"coverage"`
	Days             []Day    `json:"days"`
}

// NodeCount returns the total exercises across all days.
func (d *Draft) NodeCount() int {
	n := 0
	for _, day := range d.Days {
		for _, b := range day.Blocks {
			n += len(b.Nodes)
		}
	}
	return n
}
