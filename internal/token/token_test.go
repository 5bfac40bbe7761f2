package token

import "testing"

// TestTokenizeClassicLine verifies the common "name NxM" shape splits into
// words, numbers, and the x separator with correct offsets.
func TestTokenizeClassicLine(t *testing.T) {
	toks := Tokenize("Press banca 3x8")
	want := []struct {
		typ  Type
		norm string
	}{
		{Word, "press"},
		{Word, "banca"},
		{Number, "3"},
		{Word, "x"},
		{Number, "8"},
	}
	if len(toks) != len(want) {
		t.Fatalf("tokens = %d, want %d (%v)", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Normalized != w.norm {
			t.Errorf("tok[%d] = {%s %q}, want {%s %q}", i, toks[i].Type, toks[i].Normalized, w.typ, w.norm)
		}
	}
	if toks[0].Start != 0 || toks[0].End != 5 {
		t.Errorf("tok[0] span = [%d,%d), want [0,5)", toks[0].Start, toks[0].End)
	}
	if toks[4].Start != 14 || toks[4].End != 15 {
		t.Errorf("tok[4] span = [%d,%d), want [14,15)", toks[4].Start, toks[4].End)
	}
}

// TestTokenizeMultiplicationGlyph verifies × normalizes to x on the
// normalized field while the raw glyph is preserved.
func TestTokenizeMultiplicationGlyph(t *testing.T) {
	toks := Tokenize("Remo 4×10")
	if len(toks) != 4 {
		t.Fatalf("tokens = %d, want 4 (%v)", len(toks), toks)
	}
	sep := toks[2]
	if sep.Type != Symbol || sep.Normalized != "x" || sep.Raw != "×" {
		t.Errorf("sep = {%s raw=%q norm=%q}, want symbol ×/x", sep.Type, sep.Raw, sep.Normalized)
	}
}

// TestTokenizeDashGlyphs verifies en and em dashes normalize to "-".
func TestTokenizeDashGlyphs(t *testing.T) {
	for _, src := range []string{"3x8–10", "3x8—10"} {
		toks := Tokenize(src)
		var found bool
		for _, tok := range toks {
			if IsDash(tok) {
				found = true
			}
		}
		if !found {
			t.Errorf("Tokenize(%q): no normalized dash in %v", src, toks)
		}
	}
}

// TestTokenizeGluedAMRAP verifies "3xAMRAP" splits into number, x, and the
// amrap keyword, matching how "3 x AMRAP" tokenizes.
func TestTokenizeGluedAMRAP(t *testing.T) {
	toks := Tokenize("Dominadas 3xAMRAP")
	if len(toks) != 4 {
		t.Fatalf("tokens = %d, want 4 (%v)", len(toks), toks)
	}
	if toks[1].Type != Number || toks[1].Normalized != "3" {
		t.Errorf("tok[1] = %+v, want number 3", toks[1])
	}
	if toks[2].Normalized != "x" {
		t.Errorf("tok[2] = %+v, want x", toks[2])
	}
	if toks[3].Normalized != "amrap" {
		t.Errorf("tok[3] = %+v, want amrap", toks[3])
	}
}

// TestTokenizeGluedFallo verifies the Spanish failure keyword splits too.
func TestTokenizeGluedFallo(t *testing.T) {
	toks := Tokenize("Fondos 4xfallo")
	if len(toks) != 4 {
		t.Fatalf("tokens = %d, want 4 (%v)", len(toks), toks)
	}
	if toks[3].Normalized != "fallo" {
		t.Errorf("tok[3] = %+v, want fallo", toks[3])
	}
}

// TestTokenizeRepSequenceVsDecimal verifies "8,8,8" splits into three
// numbers while "82,5" stays one decimal number.
func TestTokenizeRepSequenceVsDecimal(t *testing.T) {
	toks := Tokenize("Press banca 8,8,8")
	var numbers []string
	for _, tok := range toks {
		if tok.Type == Number {
			numbers = append(numbers, tok.Normalized)
		}
	}
	if len(numbers) != 3 {
		t.Fatalf("numbers = %v, want three eights", numbers)
	}

	toks = Tokenize("Peso muerto 82,5")
	numbers = nil
	for _, tok := range toks {
		if tok.Type == Number {
			numbers = append(numbers, tok.Normalized)
		}
	}
	if len(numbers) != 1 || numbers[0] != "82.5" {
		t.Errorf("numbers = %v, want [82.5]", numbers)
	}
}

// TestTokenizeTimeLiteral verifies HH:MM becomes a single time token.
func TestTokenizeTimeLiteral(t *testing.T) {
	toks := Tokenize("Cardio 20:00")
	if len(toks) != 2 {
		t.Fatalf("tokens = %d, want 2 (%v)", len(toks), toks)
	}
	if toks[1].Type != Time || toks[1].Raw != "20:00" {
		t.Errorf("tok[1] = %+v, want time 20:00", toks[1])
	}
}

// TestFold verifies accent folding on Spanish words.
func TestFold(t *testing.T) {
	cases := map[string]string{
		"Día":       "dia",
		"Miércoles": "miercoles",
		"PRESS":     "press",
		"años":      "anos",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRightmostEnd verifies the consumed-offset helper picks the furthest
// structural token.
func TestRightmostEnd(t *testing.T) {
	toks := Tokenize("Press banca 3x8 lento")
	structural := []Structural{
		{Index: 2, Role: RoleSets},
		{Index: 3, Role: RoleSep},
		{Index: 4, Role: RoleReps},
	}
	if got := RightmostEnd(toks, structural); got != 15 {
		t.Errorf("RightmostEnd = %d, want 15", got)
	}
	if got := LeftmostStart(toks, structural); got != 12 {
		t.Errorf("LeftmostStart = %d, want 12", got)
	}
}
