// Package namenote separates an exercise name from trailing coaching
// notes once the prescription structure has been matched out of a line.
// Every decision — including rejected ones — is recorded so a trainer
// can audit why a note exists or was dropped.
package namenote

import (
	"strings"

	"github.com/claude/planlift/internal/token"
)

// Decision labels for split metadata.
const (
	DecisionNoTail       = "no_tail"
	DecisionNoteExtract  = "note_extracted"
	DecisionNameContinue = "name_continued"
	DecisionReverted     = "reverted"
	DecisionNoteDropped  = "note_dropped"
)

// Meta records how a name/note split was decided. TailOriginal keeps the
// raw tail even when the note itself was dropped.
type Meta struct {
	Decision        string  `json:"decision"`
	Reason          string  `json:"reason,omitempty"`
	ConfidenceDelta float64 `json:"confidence_delta"`
	TailOriginal    string  `json:"tail_original,omitempty"`
}

// strongSignals force note extraction: a tail holding any of these is
// coaching instruction, never part of the exercise name.
var strongSignals = map[string]bool{
	"tempo": true, "descanso": true, "rest": true, "rir": true, "rpe": true,
	"fallo": true, "lento": true, "lenta": true, "controlado": true,
	"controlada": true, "pausa": true, "explosivo": true, "explosiva": true,
	"tecnica": true, "profundo": true, "pesado": true, "ligero": true,
	"calentamiento": true, "warmup": true, "superserie": true, "dropset": true,
}

// connectors start a tail that continues the name instead of opening a
// note ("con mancuernas", "en maquina", "a una pierna").
var connectors = map[string]bool{
	"con": true, "en": true, "a": true, "de": true, "inclinado": true,
	"inclinada": true, "declinado": true, "declinada": true, "unilateral": true,
}

// singleWordExercises is the curated lexicon of exercises whose name is
// legitimately one word. A one-word name outside this list is too weak
// to carry a note split, so the split reverts.
var singleWordExercises = map[string]bool{
	"dominadas": true, "fondos": true, "flexiones": true, "burpees": true,
	"plancha": true, "sentadilla": true, "sentadillas": true, "zancadas": true,
	"abdominales": true, "hiperextensiones": true, "remo": true, "pullover": true,
	"pullups": true, "dips": true, "squat": true, "deadlift": true, "hipthrust": true,
}

// deictics are filler words that carry no note content on their own.
var deictics = map[string]bool{
	"aca": true, "aqui": true, "esto": true, "eso": true, "ahi": true,
	"alla": true, "asi": true,
}

// Resolve decides what to do with the text that trails the matched
// structure. structureText is the raw substring the matcher consumed,
// stripped from any extracted note so "3x8" never leaks into note text.
func Resolve(name, tail, structureText string) (string, string, Meta) {
	tail = strings.Trim(strings.TrimSpace(tail), "-–—·:,;. ")
	name = strings.TrimSpace(name)

	if tail == "" {
		return name, "", Meta{Decision: DecisionNoTail}
	}

	if HasStrongSignal(tail) {
		note, dropped := cleanNote(tail, structureText)
		if dropped {
			return name, "", Meta{
				Decision:        DecisionNoteDropped,
				Reason:          "strong_signal_but_empty_after_strip",
				ConfidenceDelta: -0.1,
				TailOriginal:    tail,
			}
		}
		return name, note, Meta{
			Decision:     DecisionNoteExtract,
			Reason:       "strong_signal",
			TailOriginal: tail,
		}
	}

	// A connector tail extends the name: "Press inclinado 3x8 con mancuernas".
	first := firstWord(tail)
	if connectors[first] {
		return name + " " + tail, "", Meta{
			Decision:        DecisionNameContinue,
			Reason:          "connector_tail",
			ConfidenceDelta: -0.05,
			TailOriginal:    tail,
		}
	}

	// Default: treat the tail as a note — unless that leaves a one-word
	// name outside the curated lexicon, in which case the split reverts
	// and the whole text is the name.
	if isWeakSingleWordName(name) {
		return name + " " + tail, "", Meta{
			Decision:        DecisionReverted,
			Reason:          "single_word_name_not_in_lexicon",
			ConfidenceDelta: -0.2,
			TailOriginal:    tail,
		}
	}

	note, dropped := cleanNote(tail, structureText)
	if dropped {
		return name, "", Meta{
			Decision:        DecisionNoteDropped,
			Reason:          "deictic_or_empty_after_strip",
			ConfidenceDelta: -0.1,
			TailOriginal:    tail,
		}
	}
	return name, note, Meta{
		Decision:        DecisionNoteExtract,
		Reason:          "trailing_free_text",
		ConfidenceDelta: -0.1,
		TailOriginal:    tail,
	}
}

// cleanNote strips the already-captured structure substring from a note
// and reports whether what remains is empty or deictic-only filler.
func cleanNote(tail, structureText string) (string, bool) {
	note := tail
	if structureText != "" {
		note = strings.ReplaceAll(note, structureText, "")
	}
	note = strings.Trim(strings.TrimSpace(note), "-–—·:,;. ")
	if note == "" {
		return "", true
	}
	allDeictic := true
	for _, w := range strings.Fields(note) {
		if !deictics[token.Fold(strings.Trim(w, ",.;:"))] {
			allDeictic = false
			break
		}
	}
	if allDeictic {
		return "", true
	}
	return note, false
}

// HasStrongSignal reports whether text holds a coaching-instruction
// keyword. The draft builder also uses it to recognize continuation
// note lines.
func HasStrongSignal(tail string) bool {
	for _, w := range strings.Fields(tail) {
		if strongSignals[token.Fold(strings.Trim(w, ",.;:"))] {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return token.Fold(strings.Trim(fields[0], ",.;:"))
}

// isWeakSingleWordName reports a one-word name outside the single-word
// exercise lexicon.
func isWeakSingleWordName(name string) bool {
	fields := strings.Fields(name)
	if len(fields) != 1 {
		return false
	}
	return !singleWordExercises[token.Fold(fields[0])]
}
