// Package contract recognizes the dialectal surface forms coaches use to
// write "N sets of M reps". Each surface form gets its own matcher; all
// matchers run over the token stream and the best-scoring candidate wins.
package contract

import "fmt"

// ShapeKind tags the prescription union.
type ShapeKind string

const (
	ShapeFixed  ShapeKind = "fixed"
	ShapeRange  ShapeKind = "range"
	ShapeAMRAP  ShapeKind = "amrap"
	ShapeScheme ShapeKind = "scheme"
)

// Evidence records whether a shape was read literally off the line or
// required a heuristic leap.
type Evidence string

const (
	EvidenceExplicit  Evidence = "explicit"
	EvidenceHeuristic Evidence = "heuristic"
)

// Inference reasons recorded on shapes so a trainer can see why the
// parser read a line the way it did.
const (
	ReasonRepsSeriesReordered    = "reps_x_series_reordered"
	ReasonDashSeriesAssumed      = "dash_series_assumed"
	ReasonNarrativePrefixRemoved = "narrative_prefix_removed"
	ReasonCompactSetsAssumed     = "compact_sets_assumed"
	ReasonBareSchemeAssumed      = "bare_scheme_assumed"
)

// Shape is the tagged-union prescription: how many sets, and what the
// reps look like (fixed count, range, to-failure, or a per-set scheme).
type Shape struct {
	Kind        ShapeKind `json:"kind"`
	Sets        int       `json:"sets"`
	RepsMin     *int      `json:"reps_min,omitempty"`
	RepsMax     *int      `json:"reps_max,omitempty"`
	RepsList    []int     `json:"reps_list,omitempty"`
	SpecialReps string    `json:"special_reps,omitempty"`

	Evidence         Evidence `json:"evidence"`
	InferenceReasons []string `json:"inference_reasons,omitempty"`
}

// Validate enforces the shape invariants: sets >= 1 and, when both
// bounds are present, reps_min <= reps_max.
func (s Shape) Validate() error {
	if s.Sets < 1 {
		return fmt.Errorf("shape %s: sets = %d, want >= 1", s.Kind, s.Sets)
	}
	if s.RepsMin != nil && s.RepsMax != nil && *s.RepsMin > *s.RepsMax {
		return fmt.Errorf("shape %s: reps_min %d > reps_max %d", s.Kind, *s.RepsMin, *s.RepsMax)
	}
	if s.Kind == ShapeScheme && len(s.RepsList) == 0 {
		return fmt.Errorf("shape scheme: empty reps list")
	}
	return nil
}

// addReason appends an inference reason, keeping order and uniqueness.
func (s *Shape) addReason(reason string) {
	for _, r := range s.InferenceReasons {
		if r == reason {
			return
		}
	}
	s.InferenceReasons = append(s.InferenceReasons, reason)
}

func intPtr(v int) *int { return &v }
