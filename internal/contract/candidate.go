package contract

import (
	"sort"
	"strings"

	"github.com/claude/planlift/internal/token"
)

// Candidate is one matcher's reading of a line: the name span it left
// untouched, the structural tokens it consumed, and the shape it derived.
type Candidate struct {
	Matcher  string `json:"matcher"`
	Priority int    `json:"priority"`

	// NameStart/NameEnd are byte offsets into the line bounding the
	// exercise-name span (structural tokens excluded).
	NameStart int    `json:"name_start"`
	NameEnd   int    `json:"name_end"`
	NameText  string `json:"name_text"`

	Structural   []token.Structural `json:"structural"`
	StructureEnd int                `json:"structure_end"`

	Shape Shape `json:"shape"`
	Score int   `json:"score"`
}

// finalize computes the derived fields every matcher shares: name text and
// span, rightmost consumed offset, and the score
// priority*100 + consumedTokens*10 + min(nameWordCount, 6).
func (c *Candidate) finalize(line string, toks []token.Token, nameStartTok int) {
	structStart := token.LeftmostStart(toks, c.Structural)
	c.StructureEnd = token.RightmostEnd(toks, c.Structural)

	nameStart := 0
	if nameStartTok > 0 && nameStartTok < len(toks) {
		nameStart = toks[nameStartTok].Start
	} else if nameStartTok >= len(toks) {
		nameStart = structStart
	}
	if structStart < nameStart {
		structStart = nameStart
	}
	c.NameStart = nameStart
	c.NameEnd = structStart
	c.NameText = strings.Trim(strings.TrimSpace(line[nameStart:structStart]), ":-·.,")
	c.NameText = strings.TrimSpace(c.NameText)

	words := 0
	for i := nameStartTok; i >= 0 && i < len(toks); i++ {
		if toks[i].Start >= structStart {
			break
		}
		if toks[i].Type == token.Word {
			words++
		}
	}
	if words > 6 {
		words = 6
	}
	c.Score = c.Priority*100 + len(c.Structural)*10 + words
}

// Best sorts candidates by (priority desc, score desc, structure end desc)
// and returns the winner, or nil for an empty list.
func Best(cands []*Candidate) *Candidate {
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Priority != cands[j].Priority {
			return cands[i].Priority > cands[j].Priority
		}
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].StructureEnd > cands[j].StructureEnd
	})
	return cands[0]
}
