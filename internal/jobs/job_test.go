package jobs

import "testing"

// TestCanTransition pins the legal state edges.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StateQueued, StateProcessing, true},
		{StateProcessing, StateReady, true},
		{StateProcessing, StateFailed, true},
		{StateProcessing, StateQueued, true},
		{StateReady, StateCommitting, true},
		{StateCommitting, StateCommitted, true},
		{StateCommitting, StateReady, true},
		{StateReady, StateRolledBack, true},
		{StateCommitted, StateRolledBack, true},
		{StateQueued, StateReady, false},
		{StateFailed, StateReady, false},
		{StateCommitted, StateCommitting, false},
		{StateReady, StateExpired, true},
		{StateExpired, StateExpired, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// TestTerminal pins which states accept no further activity.
func TestTerminal(t *testing.T) {
	for _, s := range []string{StateFailed, StateRolledBack, StateExpired} {
		if !Terminal(s) {
			t.Errorf("Terminal(%s) = false", s)
		}
	}
	for _, s := range []string{StateQueued, StateProcessing, StateReady, StateCommitted} {
		if Terminal(s) {
			t.Errorf("Terminal(%s) = true", s)
		}
	}
}
