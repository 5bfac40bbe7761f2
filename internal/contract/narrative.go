package contract

import "github.com/claude/planlift/internal/token"

// narrativePrefixes are coaching filler sequences at the start of a line
// ("hoy hacemos press banca 3x8"). Matched over normalized words, longest
// sequence first.
var narrativePrefixes = [][]string{
	{"hoy", "hacemos"},
	{"hoy", "toca"},
	{"empezamos", "con"},
	{"seguimos", "con"},
	{"terminamos", "con"},
	{"vamos", "con"},
	{"ahora", "toca"},
	{"despues"},
	{"luego"},
	{"ahora"},
}

// stripNarrativePrefix returns the index of the first token that is not
// coaching filler, plus whether anything was stripped. Stripping is
// token-level only; offsets into the raw line stay valid.
func stripNarrativePrefix(toks []token.Token) (int, bool) {
	start := 0
	stripped := false
	for {
		advanced := false
		for _, prefix := range narrativePrefixes {
			if matchesPrefix(toks, start, prefix) {
				start += len(prefix)
				stripped = true
				advanced = true
				break
			}
		}
		if !advanced {
			return start, stripped
		}
	}
}

func matchesPrefix(toks []token.Token, start int, prefix []string) bool {
	if start+len(prefix) > len(toks) {
		return false
	}
	for i, w := range prefix {
		t := toks[start+i]
		if t.Type != token.Word || t.Normalized != w {
			return false
		}
	}
	// Never strip the whole line down to nothing.
	return start+len(prefix) < len(toks)
}
