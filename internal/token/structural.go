package token

// Role tags the semantic part a token plays inside a matched
// prescription: the sets count, the reps count, a separator, or a
// keyword like "series" or "amrap".
type Role string

const (
	RoleNone    Role = ""
	RoleSets    Role = "sets"
	RoleReps    Role = "reps"
	RoleSep     Role = "sep"
	RoleKeyword Role = "keyword"
)

// Structural pairs a token index with the role it plays in a match.
type Structural struct {
	Index int  `json:"index"`
	Role  Role `json:"role"`
}

// RightmostEnd returns the largest end offset among the structural tokens,
// i.e. how far into the line the prescription reaches. Everything past it
// is candidate note text.
func RightmostEnd(toks []Token, structural []Structural) int {
	end := 0
	for _, s := range structural {
		if s.Index >= 0 && s.Index < len(toks) && toks[s.Index].End > end {
			end = toks[s.Index].End
		}
	}
	return end
}

// LeftmostStart returns the smallest start offset among the structural
// tokens, marking where the prescription begins and the name span ends.
func LeftmostStart(toks []Token, structural []Structural) int {
	if len(structural) == 0 {
		return 0
	}
	start := -1
	for _, s := range structural {
		if s.Index < 0 || s.Index >= len(toks) {
			continue
		}
		if start == -1 || toks[s.Index].Start < start {
			start = toks[s.Index].Start
		}
	}
	if start == -1 {
		return 0
	}
	return start
}

// IsSeparator reports whether a token is an "x" style separator between
// sets and reps, in either word or symbol form.
func IsSeparator(t Token) bool {
	if t.Type == Word && t.Normalized == "x" {
		return true
	}
	return t.Type == Symbol && t.Normalized == "x"
}

// IsDash reports whether a token is a dash after glyph normalization
// (covers -, – and —).
func IsDash(t Token) bool {
	return t.Type == Symbol && t.Normalized == "-"
}
