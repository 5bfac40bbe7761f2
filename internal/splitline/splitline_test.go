package splitline

import "testing"

// TestSingleSpanNeverSplits verifies one prescription span passes the
// line through untouched, trailing tempo digits included.
func TestSingleSpanNeverSplits(t *testing.T) {
	for _, line := range []string{
		"Press banca 3x8",
		"Sentadilla 3x8 tempo 3-1-1",
		"Dominadas 3xAMRAP",
		"texto libre sin prescripcion",
	} {
		res := Split(line)
		if res.Applied || res.Unresolved {
			t.Errorf("Split(%q) = applied=%v unresolved=%v, want passthrough", line, res.Applied, res.Unresolved)
		}
		if len(res.Segments) != 1 || res.Segments[0].Text != line {
			t.Errorf("Split(%q) segments = %v", line, res.Segments)
		}
	}
}

// TestGapNameSplit verifies stage B: two spans with a name run between
// them split into two segments.
func TestGapNameSplit(t *testing.T) {
	res := Split("Remo con barra 3x10 Press banca 4x8")
	if !res.Applied {
		t.Fatalf("not applied: %+v", res)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (%v)", len(res.Segments), res.Segments)
	}
	if res.Segments[0].Text != "Remo con barra 3x10" {
		t.Errorf("seg[0] = %q", res.Segments[0].Text)
	}
	if res.Segments[1].Text != "Press banca 4x8" {
		t.Errorf("seg[1] = %q", res.Segments[1].Text)
	}
	if res.Segments[1].Offset != 20 {
		t.Errorf("seg[1].Offset = %d, want 20", res.Segments[1].Offset)
	}
}

// TestParenSplit verifies stage A: "(3x10) Remo (4x8) Press" splits at
// closing parens followed by a letter.
func TestParenSplit(t *testing.T) {
	res := Split("(3x10) Remo (4x8) Press")
	if !res.Applied {
		t.Fatalf("not applied: %+v", res)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (%v)", len(res.Segments), res.Segments)
	}
	if res.Segments[0].Text != "(3x10) Remo" || res.Segments[1].Text != "(4x8) Press" {
		t.Errorf("segments = %q / %q", res.Segments[0].Text, res.Segments[1].Text)
	}
}

// TestUnresolvedMultiSpan verifies a multi-span line with no name
// material between spans stays whole and is flagged.
func TestUnresolvedMultiSpan(t *testing.T) {
	res := Split("Remo 3x10 4x8")
	if res.Applied {
		t.Fatalf("unexpected split: %+v", res)
	}
	if !res.Unresolved {
		t.Error("want unresolved flag")
	}
	if len(res.Segments) != 1 {
		t.Errorf("segments = %d, want 1", len(res.Segments))
	}
}

// TestThreeWaySplit verifies more than two exercises on one line.
func TestThreeWaySplit(t *testing.T) {
	res := Split("Remo 3x10 Press 4x8 Curl 3x12")
	if !res.Applied {
		t.Fatalf("not applied: %+v", res)
	}
	if len(res.Segments) != 3 {
		t.Fatalf("segments = %d, want 3 (%v)", len(res.Segments), res.Segments)
	}
}

// TestSeriesFormSpans verifies the word-series regex contributes spans.
func TestSeriesFormSpans(t *testing.T) {
	res := Split("Sentadilla 4 series de 8 Zancadas 3x10")
	if !res.Applied {
		t.Fatalf("not applied: %+v", res)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (%v)", len(res.Segments), res.Segments)
	}
	if res.Segments[1].Text != "Zancadas 3x10" {
		t.Errorf("seg[1] = %q", res.Segments[1].Text)
	}
}
