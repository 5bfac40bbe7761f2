package contract

import (
	"github.com/claude/planlift/internal/token"
)

// Matcher recognizes one surface form over the token stream. start is the
// first token index to consider (tokens before it belong to a stripped
// narrative prefix). A nil return means no match.
type Matcher interface {
	Name() string
	Priority() int
	TryMatch(line string, toks []token.Token, start int) *Candidate
}

// funcMatcher adapts a plain function into a Matcher so the registry
// stays a flat data list.
type funcMatcher struct {
	name     string
	priority int
	try      func(m funcMatcher, line string, toks []token.Token, start int) *Candidate
}

func (m funcMatcher) Name() string   { return m.name }
func (m funcMatcher) Priority() int  { return m.priority }
func (m funcMatcher) TryMatch(line string, toks []token.Token, start int) *Candidate {
	return m.try(m, line, toks, start)
}

// Registry is the fixed, priority-ordered matcher list. All matchers run
// on every line; the order here is documentation, the sort in Best is
// what actually decides.
var Registry = []Matcher{
	funcMatcher{"amrap", 95, tryAMRAP},
	funcMatcher{"classic_sets_x_reps", 90, tryClassic},
	funcMatcher{"series_scheme", 88, trySeriesScheme},
	funcMatcher{"series_de", 85, trySeriesDe},
	funcMatcher{"reps_x_series", 80, tryRepsSeries},
	funcMatcher{"compact_x_sets", 70, tryCompact},
	funcMatcher{"comma_scheme", 60, tryCommaScheme},
	funcMatcher{"dash_scheme", 55, tryDashScheme},
	funcMatcher{"legacy_classic", 35, tryLegacyClassic},
	funcMatcher{"legacy_sets_only", 30, tryLegacySetsOnly},
}

// Match strips any narrative prefix, runs every registered matcher, and
// returns the best candidate or nil when nothing matched. Matchers never
// short-circuit each other; ambiguity resolves on (priority, score,
// rightmost structure) and the reasons stay on the shape.
func Match(line string) *Candidate {
	toks := token.Tokenize(line)
	start, stripped := stripNarrativePrefix(toks)

	var cands []*Candidate
	for _, m := range Registry {
		if c := m.TryMatch(line, toks, start); c != nil {
			if err := c.Shape.Validate(); err != nil {
				continue
			}
			cands = append(cands, c)
		}
	}

	best := Best(cands)
	if best != nil && stripped {
		best.Shape.addReason(ReasonNarrativePrefixRemoved)
		if best.Shape.Evidence == "" {
			best.Shape.Evidence = EvidenceExplicit
		}
	}
	return best
}

// Keyword lexicons shared by the matchers. Normalized (lowercase,
// accent-folded) forms only.
var (
	seriesWords = map[string]bool{"series": true, "serie": true, "sets": true, "set": true, "rondas": true, "ronda": true, "vueltas": true}
	repsWords   = map[string]bool{"reps": true, "rep": true, "repeticiones": true, "repes": true, "repetitions": true}
	failWords   = map[string]bool{"amrap": true, "fallo": true}
)

func isSeriesWord(t token.Token) bool { return t.Type == token.Word && seriesWords[t.Normalized] }
func isRepsWord(t token.Token) bool   { return t.Type == token.Word && repsWords[t.Normalized] }
func isFailWord(t token.Token) bool   { return t.Type == token.Word && failWords[t.Normalized] }

func atoiTok(t token.Token) int {
	n := 0
	for _, r := range t.Normalized {
		if r < '0' || r > '9' {
			// Decimal rep counts don't exist; treat "8.5" as unusable.
			return -1
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 && t.Normalized != "0" {
		return -1
	}
	return n
}

func isNumber(t token.Token) bool { return t.Type == token.Number }
