package namenote

import "testing"

// TestNoTail verifies a clean line yields no note and the no_tail decision.
func TestNoTail(t *testing.T) {
	name, note, meta := Resolve("Press banca", "", "3x8")
	if name != "Press banca" || note != "" {
		t.Errorf("got name=%q note=%q", name, note)
	}
	if meta.Decision != DecisionNoTail {
		t.Errorf("decision = %s, want %s", meta.Decision, DecisionNoTail)
	}
}

// TestStrongSignalForcesNote verifies tempo text becomes a note and the
// prescription stays untouched.
func TestStrongSignalForcesNote(t *testing.T) {
	name, note, meta := Resolve("Sentadilla", "tempo 3-1-1", "3x8")
	if name != "Sentadilla" {
		t.Errorf("name = %q", name)
	}
	if note != "tempo 3-1-1" {
		t.Errorf("note = %q, want tempo 3-1-1", note)
	}
	if meta.Decision != DecisionNoteExtract || meta.Reason != "strong_signal" {
		t.Errorf("meta = %+v", meta)
	}
}

// TestConnectorContinuesName verifies equipment variants extend the name.
func TestConnectorContinuesName(t *testing.T) {
	name, note, meta := Resolve("Press inclinado", "con mancuernas", "3x8")
	if name != "Press inclinado con mancuernas" {
		t.Errorf("name = %q", name)
	}
	if note != "" {
		t.Errorf("note = %q, want empty", note)
	}
	if meta.Decision != DecisionNameContinue {
		t.Errorf("decision = %s", meta.Decision)
	}
}

// TestRevertOnWeakSingleWordName verifies a one-word name outside the
// lexicon absorbs the tail instead of orphaning it into a note.
func TestRevertOnWeakSingleWordName(t *testing.T) {
	name, note, meta := Resolve("Press", "frances tumbado", "3x10")
	if name != "Press frances tumbado" {
		t.Errorf("name = %q", name)
	}
	if note != "" {
		t.Errorf("note = %q", note)
	}
	if meta.Decision != DecisionReverted {
		t.Errorf("decision = %s, want %s", meta.Decision, DecisionReverted)
	}
	if meta.TailOriginal != "frances tumbado" {
		t.Errorf("tail_original = %q", meta.TailOriginal)
	}
}

// TestSingleWordLexiconAcceptsNote verifies curated single-word exercises
// may keep a trailing note.
func TestSingleWordLexiconAcceptsNote(t *testing.T) {
	name, note, meta := Resolve("Dominadas", "agarre ancho", "3x8")
	if name != "Dominadas" {
		t.Errorf("name = %q", name)
	}
	if note != "agarre ancho" {
		t.Errorf("note = %q", note)
	}
	if meta.Decision != DecisionNoteExtract {
		t.Errorf("decision = %s", meta.Decision)
	}
}

// TestDeicticNoteDropped verifies filler-only tails drop the note but keep
// the decision and original tail for audit.
func TestDeicticNoteDropped(t *testing.T) {
	name, note, meta := Resolve("Press banca", "esto", "3x8")
	if name != "Press banca" || note != "" {
		t.Errorf("got name=%q note=%q", name, note)
	}
	if meta.Decision != DecisionNoteDropped {
		t.Errorf("decision = %s, want %s", meta.Decision, DecisionNoteDropped)
	}
	if meta.TailOriginal != "esto" {
		t.Errorf("tail_original = %q, want esto", meta.TailOriginal)
	}
}

// TestStructureStrippedFromNote verifies the captured sets/reps substring
// never leaks into note text, and an empty remainder drops the note.
func TestStructureStrippedFromNote(t *testing.T) {
	_, note, meta := Resolve("Press banca", "descanso 3x8", "3x8")
	if note != "descanso" {
		t.Errorf("note = %q, want descanso", note)
	}
	if meta.Decision != DecisionNoteExtract {
		t.Errorf("decision = %s", meta.Decision)
	}

	_, note, meta = Resolve("Press banca", "3x8", "3x8")
	if note != "" {
		t.Errorf("note = %q, want empty", note)
	}
	if meta.Decision != DecisionNoteDropped {
		t.Errorf("decision = %s, want %s", meta.Decision, DecisionNoteDropped)
	}
}
