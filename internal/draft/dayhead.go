package draft

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/planlift/internal/token"
)

// Weekdays holds the canonical day keys in plan order.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// weekdayNames maps folded Spanish and English weekday names to keys.
var weekdayNames = map[string]string{
	"lunes": "monday", "martes": "tuesday", "miercoles": "wednesday",
	"jueves": "thursday", "viernes": "friday", "sabado": "saturday",
	"domingo": "sunday",
	"monday": "monday", "tuesday": "tuesday", "wednesday": "wednesday",
	"thursday": "thursday", "friday": "friday", "saturday": "saturday",
	"sunday": "sunday",
}

var numericDayRe = regexp.MustCompile(`^(?:dia|day)\s+(\d+)\b`)

// dayHeading is a detected heading: either a named weekday (key set) or
// a numeric "Día N" (number set, key resolved by mapping policy).
type dayHeading struct {
	label  string
	key    string
	number int
}

// matchDayHeading recognizes a day-heading line: a weekday name or
// "Día N"/"Day N", optionally followed by a separator and free text
// ("Lunes - Pecho y tríceps").
func matchDayHeading(line string) (dayHeading, bool) {
	folded := token.Fold(strings.TrimSpace(line))
	if folded == "" {
		return dayHeading{}, false
	}

	if m := numericDayRe.FindStringSubmatch(folded); m != nil {
		n, _ := strconv.Atoi(m[1])
		return dayHeading{label: strings.TrimSpace(line), number: n}, true
	}

	first := folded
	for i, r := range folded {
		if r == ' ' || r == ':' || r == '-' || r == '·' || r == ',' {
			first = folded[:i]
			break
		}
	}
	if key, ok := weekdayNames[first]; ok {
		return dayHeading{label: strings.TrimSpace(line), key: key}, true
	}
	return dayHeading{}, false
}

// blockHeadings maps heading keywords to block kinds.
var blockHeadings = map[string]BlockKind{
	"circuito":   BlockCircuit,
	"circuit":    BlockCircuit,
	"superserie": BlockSuperset,
	"superset":   BlockSuperset,
	"biserie":    BlockSuperset,
	"bloque":     BlockUnknown,
	"block":      BlockUnknown,
}

// matchBlockHeading recognizes a block-heading line like "Circuito:" or
// "Superserie A". Headings carrying a prescription ("circuito 3 rondas")
// are still headings; the rounds stay in the label.
func matchBlockHeading(line string) (BlockKind, bool) {
	folded := token.Fold(strings.TrimSpace(line))
	fields := strings.Fields(strings.Trim(folded, ":-·"))
	if len(fields) == 0 || len(fields) > 4 {
		return "", false
	}
	if kind, ok := blockHeadings[strings.Trim(fields[0], ":-·")]; ok {
		return kind, true
	}
	return "", false
}

// isNoiseLine reports separators and layout junk that should never count
// against coverage.
func isNoiseLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	letters := false
	for _, r := range trimmed {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r > 127 {
			letters = true
			break
		}
		if '0' <= r && r <= '9' {
			letters = true
			break
		}
	}
	if !letters {
		return true
	}
	folded := token.Fold(trimmed)
	return strings.HasPrefix(folded, "semana ") || strings.HasPrefix(folded, "week ")
}
