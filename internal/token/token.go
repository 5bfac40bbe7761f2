// Package token splits a raw routine line into typed tokens with byte
// offsets preserved, so downstream matchers and provenance records can
// point back into the original text.
package token

import (
	"strings"
	"unicode"
)

// Type classifies a token.
type Type string

const (
	Word   Type = "word"
	Number Type = "number"
	Time   Type = "time"
	Symbol Type = "symbol"
)

// Token is one lexical unit of a line. Raw preserves the source bytes;
// Normalized carries lowercased, accent-folded, glyph-normalized text.
type Token struct {
	Type       Type   `json:"type"`
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	Start      int    `json:"start_offset"`
	End        int    `json:"end_offset"`
}

// amrapKeywords are words that, glued to an "x" after a number
// ("3xAMRAP", "4xfallo"), get split into an x token plus the keyword.
var amrapKeywords = map[string]bool{
	"amrap": true,
	"fallo": true,
}

// Tokenize splits one raw line into tokens. Offsets are byte offsets into
// the original string.
func Tokenize(line string) []Token {
	var toks []Token
	runes := []rune(line)
	byteOff := 0
	i := 0

	for i < len(runes) {
		r := runes[i]
		size := len(string(r))

		switch {
		case unicode.IsSpace(r):
			byteOff += size
			i++

		case unicode.IsDigit(r):
			tok, consumed := scanNumeric(runes, i, byteOff)
			toks = append(toks, tok...)
			for _, cr := range runes[i : i+consumed] {
				byteOff += len(string(cr))
			}
			i += consumed

		case unicode.IsLetter(r):
			start := i
			startByte := byteOff
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				byteOff += len(string(runes[i]))
				i++
			}
			raw := string(runes[start:i])
			toks = append(toks, splitGluedKeyword(raw, startByte, toks)...)

		default:
			toks = append(toks, Token{
				Type:       Symbol,
				Raw:        string(r),
				Normalized: normalizeSymbol(r),
				Start:      byteOff,
				End:        byteOff + size,
			})
			byteOff += size
			i++
		}
	}

	return toks
}

// scanNumeric reads a run starting at a digit. It produces either a single
// number token (plain or decimal), an HH:MM time token, or — when the run
// carries two or more interior commas ("8,8,8") — alternating number and
// comma tokens, so a rep sequence never collapses into a decimal.
func scanNumeric(runes []rune, i, byteOff int) ([]Token, int) {
	start := i
	// Maximal run of digits, commas, and dots with digits on both sides.
	j := i
	for j < len(runes) {
		r := runes[j]
		if unicode.IsDigit(r) {
			j++
			continue
		}
		if (r == ',' || r == '.') && j+1 < len(runes) && unicode.IsDigit(runes[j+1]) && j > start {
			j++
			continue
		}
		break
	}
	run := string(runes[start:j])

	// HH:MM time literal.
	if j < len(runes) && runes[j] == ':' && j+1 < len(runes) && unicode.IsDigit(runes[j+1]) {
		k := j + 1
		for k < len(runes) && unicode.IsDigit(runes[k]) {
			k++
		}
		hh := run
		mm := string(runes[j+1 : k])
		if len(hh) <= 2 && len(mm) == 2 {
			raw := hh + ":" + mm
			return []Token{{
				Type:       Time,
				Raw:        raw,
				Normalized: raw,
				Start:      byteOff,
				End:        byteOff + len(raw),
			}}, k - start
		}
	}

	commas := strings.Count(run, ",")
	if commas >= 2 {
		// Rep sequence: emit each digit run and each comma separately.
		var toks []Token
		off := byteOff
		seg := strings.Split(run, ",")
		for idx, s := range seg {
			if s != "" {
				toks = append(toks, Token{
					Type:       Number,
					Raw:        s,
					Normalized: s,
					Start:      off,
					End:        off + len(s),
				})
				off += len(s)
			}
			if idx < len(seg)-1 {
				toks = append(toks, Token{
					Type:       Symbol,
					Raw:        ",",
					Normalized: ",",
					Start:      off,
					End:        off + 1,
				})
				off++
			}
		}
		return toks, j - start
	}

	normalized := strings.ReplaceAll(run, ",", ".")
	return []Token{{
		Type:       Number,
		Raw:        run,
		Normalized: normalized,
		Start:      byteOff,
		End:        byteOff + len(run),
	}}, j - start
}

// splitGluedKeyword handles a word like "xAMRAP" directly after a number:
// it becomes an "x" token plus the keyword, so "3xAMRAP" parses like
// "3 x AMRAP". Any other word passes through whole.
func splitGluedKeyword(raw string, startByte int, prev []Token) []Token {
	folded := Fold(raw)
	if len(folded) > 1 && folded[0] == 'x' && amrapKeywords[folded[1:]] &&
		len(prev) > 0 && prev[len(prev)-1].Type == Number {
		xEnd := startByte + len(raw[:1])
		return []Token{
			{Type: Word, Raw: raw[:1], Normalized: "x", Start: startByte, End: xEnd},
			{Type: Word, Raw: raw[1:], Normalized: folded[1:], Start: xEnd, End: startByte + len(raw)},
		}
	}
	return []Token{{
		Type:       Word,
		Raw:        raw,
		Normalized: folded,
		Start:      startByte,
		End:        startByte + len(raw),
	}}
}

func normalizeSymbol(r rune) string {
	switch r {
	case '×':
		return "x"
	case '–', '—':
		return "-"
	}
	return string(r)
}

// foldTable maps accented letters the coach corpus actually uses. The
// alphabet is bounded (Spanish plus English), so a local table beats
// pulling in a full Unicode normalization pass.
var foldTable = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
}

// Fold lowercases and strips diacritics for matching. The raw text is
// never modified; only derived normalized fields use this.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if f, ok := foldTable[r]; ok {
			b.WriteRune(f)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
