package formats

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/claude/planlift/internal/draft"
	"github.com/claude/planlift/internal/token"
)

const tabularExtractorVersion = "extract-tabular/2"

// headerAliases maps folded header cell names to canonical columns.
// Exports name their columns freely; this is the tolerance layer.
var headerAliases = map[string]string{
	"day": "day", "dia": "day", "fecha": "day", "weekday": "day",
	"exercise": "exercise", "ejercicio": "exercise", "movimiento": "exercise",
	"nombre": "exercise", "name": "exercise",
	"sets": "sets", "series": "sets", "rondas": "sets",
	"reps": "reps", "repeticiones": "reps", "repes": "reps", "repetitions": "reps",
	"note": "note", "notas": "note", "nota": "note", "notes": "note",
	"comentario": "note", "comments": "note", "observaciones": "note",
}

// extractCSV reads a delimited export. Delimiter is sniffed from the
// header row (comma, semicolon or tab).
func extractCSV(data []byte) (*Extraction, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited rows: %w", err)
	}
	lines, err := rowsToLines(rows)
	if err != nil {
		return nil, err
	}
	return &Extraction{
		Lines:            lines,
		ExtractorVersion: tabularExtractorVersion,
		ConfidenceBase:   1.0,
	}, nil
}

func sniffDelimiter(data []byte) rune {
	head := data
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	switch {
	case bytes.Contains(head, []byte{'\t'}):
		return '\t'
	case bytes.ContainsRune(head, ';'):
		return ';'
	default:
		return ','
	}
}

// rowsToLines converts header-mapped rows into the common line stream:
// a heading line whenever the day cell changes, then one synthesized
// exercise line per row. Synthesis always emits an explicit structure
// form so tabular data never depends on heuristic matching.
func rowsToLines(rows [][]string) ([]draft.SourceLine, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	cols := mapHeader(rows[0])
	if _, ok := cols["exercise"]; !ok {
		return nil, fmt.Errorf("no exercise column recognized in header %v", rows[0])
	}

	var lines []draft.SourceLine
	lastDay := ""
	for _, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if day := cell("day"); day != "" && !strings.EqualFold(day, lastDay) {
			lines = append(lines, draft.SourceLine{Text: day})
			lastDay = day
		}

		name := cell("exercise")
		if name == "" {
			continue
		}
		lines = append(lines, draft.SourceLine{
			Text: synthesizeLine(name, cell("sets"), cell("reps"), cell("note")),
		})
	}
	return lines, nil
}

func mapHeader(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		key := token.Fold(strings.TrimSpace(h))
		if canon, ok := headerAliases[key]; ok {
			if _, taken := cols[canon]; !taken {
				cols[canon] = i
			}
		}
	}
	return cols
}

// synthesizeLine renders a row as a parseable line. The reps cell has
// its own sub-grammar: a plain count, a range, a per-set list, or a
// special token like AMRAP.
func synthesizeLine(name, sets, reps, note string) string {
	var b strings.Builder
	b.WriteString(name)

	sets = strings.TrimSpace(sets)
	reps = strings.TrimSpace(reps)
	switch {
	case sets != "" && strings.ContainsAny(reps, ","):
		// Per-set list keeps the explicit series form.
		fmt.Fprintf(&b, " %s series: %s", sets, reps)
	case sets != "" && reps != "":
		fmt.Fprintf(&b, " %sx%s", sets, reps)
	case sets != "":
		fmt.Fprintf(&b, " %s series", sets)
	case reps != "":
		b.WriteString(" " + reps)
	}

	if note != "" {
		b.WriteString(" " + note)
	}
	return b.String()
}
