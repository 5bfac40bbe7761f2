package contract

import (
	"github.com/claude/planlift/internal/token"
)

// tryClassic matches "N x M" and "N x M1-M2", the single most common
// shape. When sets > 8 and reps <= 8 the line is read as "reps x sets"
// written backwards and the pair is swapped, tagged as a heuristic.
func tryClassic(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+2 < len(toks); i++ {
		if !isNumber(toks[i]) || !token.IsSeparator(toks[i+1]) || !isNumber(toks[i+2]) {
			continue
		}
		sets := atoiTok(toks[i])
		reps := atoiTok(toks[i+2])
		if sets <= 0 || reps <= 0 {
			continue
		}

		structural := []token.Structural{
			{Index: i, Role: token.RoleSets},
			{Index: i + 1, Role: token.RoleSep},
			{Index: i + 2, Role: token.RoleReps},
		}

		// Range: N x M1-M2
		if i+4 < len(toks) && token.IsDash(toks[i+3]) && isNumber(toks[i+4]) {
			hi := atoiTok(toks[i+4])
			if hi > 0 && reps <= hi {
				structural = append(structural,
					token.Structural{Index: i + 3, Role: token.RoleSep},
					token.Structural{Index: i + 4, Role: token.RoleReps},
				)
				c := &Candidate{
					Matcher:  m.name,
					Priority: m.priority,
					Shape: Shape{
						Kind:     ShapeRange,
						Sets:     sets,
						RepsMin:  intPtr(reps),
						RepsMax:  intPtr(hi),
						Evidence: EvidenceExplicit,
					},
					Structural: structural,
				}
				c.finalize(line, toks, start)
				return c
			}
		}

		shape := Shape{
			Kind:     ShapeFixed,
			Sets:     sets,
			RepsMin:  intPtr(reps),
			RepsMax:  intPtr(reps),
			Evidence: EvidenceExplicit,
		}
		// A coach writing "12x3" almost always means 3 sets of 12.
		if sets > 8 && reps <= 8 {
			shape.Sets = reps
			shape.RepsMin = intPtr(sets)
			shape.RepsMax = intPtr(sets)
			shape.Evidence = EvidenceHeuristic
			shape.addReason(ReasonRepsSeriesReordered)
		}
		c := &Candidate{Matcher: m.name, Priority: m.priority, Shape: shape, Structural: structural}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// tryAMRAP matches to-failure prescriptions: "3xAMRAP", "3 x al fallo",
// "4 series al fallo".
func tryAMRAP(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+1 < len(toks); i++ {
		if !isNumber(toks[i]) {
			continue
		}
		sets := atoiTok(toks[i])
		if sets <= 0 {
			continue
		}

		j := i + 1
		structural := []token.Structural{{Index: i, Role: token.RoleSets}}
		switch {
		case token.IsSeparator(toks[j]):
			structural = append(structural, token.Structural{Index: j, Role: token.RoleSep})
			j++
		case isSeriesWord(toks[j]):
			structural = append(structural, token.Structural{Index: j, Role: token.RoleKeyword})
			j++
		default:
			continue
		}

		// Optional "al" before "fallo".
		if j < len(toks) && toks[j].Type == token.Word && toks[j].Normalized == "al" {
			structural = append(structural, token.Structural{Index: j, Role: token.RoleKeyword})
			j++
		}
		if j >= len(toks) || !isFailWord(toks[j]) {
			continue
		}
		structural = append(structural, token.Structural{Index: j, Role: token.RoleKeyword})

		c := &Candidate{
			Matcher:  m.name,
			Priority: m.priority,
			Shape: Shape{
				Kind:        ShapeAMRAP,
				Sets:        sets,
				SpecialReps: "AMRAP",
				Evidence:    EvidenceExplicit,
			},
			Structural: structural,
		}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// trySeriesDe matches "N series de M", "N sets of M-M2", with an optional
// trailing reps keyword ("4 series de 10 repeticiones").
func trySeriesDe(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+2 < len(toks); i++ {
		if !isNumber(toks[i]) || !isSeriesWord(toks[i+1]) {
			continue
		}
		sets := atoiTok(toks[i])
		if sets <= 0 {
			continue
		}

		j := i + 2
		structural := []token.Structural{
			{Index: i, Role: token.RoleSets},
			{Index: i + 1, Role: token.RoleKeyword},
		}
		if toks[j].Type == token.Word && (toks[j].Normalized == "de" || toks[j].Normalized == "of") {
			structural = append(structural, token.Structural{Index: j, Role: token.RoleKeyword})
			j++
		}
		if j >= len(toks) || !isNumber(toks[j]) {
			continue
		}
		lo := atoiTok(toks[j])
		if lo <= 0 {
			continue
		}
		structural = append(structural, token.Structural{Index: j, Role: token.RoleReps})

		shape := Shape{
			Kind:     ShapeFixed,
			Sets:     sets,
			RepsMin:  intPtr(lo),
			RepsMax:  intPtr(lo),
			Evidence: EvidenceExplicit,
		}
		if j+2 < len(toks) && token.IsDash(toks[j+1]) && isNumber(toks[j+2]) {
			hi := atoiTok(toks[j+2])
			if hi > 0 && lo <= hi {
				structural = append(structural,
					token.Structural{Index: j + 1, Role: token.RoleSep},
					token.Structural{Index: j + 2, Role: token.RoleReps},
				)
				shape.Kind = ShapeRange
				shape.RepsMax = intPtr(hi)
				j += 2
			}
		}
		if j+1 < len(toks) && isRepsWord(toks[j+1]) {
			structural = append(structural, token.Structural{Index: j + 1, Role: token.RoleKeyword})
		}

		c := &Candidate{Matcher: m.name, Priority: m.priority, Shape: shape, Structural: structural}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// tryRepsSeries matches the explicitly reordered form
// "M reps x N series" / "M repeticiones x N series".
func tryRepsSeries(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+4 < len(toks); i++ {
		if !isNumber(toks[i]) || !isRepsWord(toks[i+1]) {
			continue
		}
		if !token.IsSeparator(toks[i+2]) || !isNumber(toks[i+3]) || !isSeriesWord(toks[i+4]) {
			continue
		}
		reps := atoiTok(toks[i])
		sets := atoiTok(toks[i+3])
		if reps <= 0 || sets <= 0 {
			continue
		}
		c := &Candidate{
			Matcher:  m.name,
			Priority: m.priority,
			Shape: Shape{
				Kind:     ShapeFixed,
				Sets:     sets,
				RepsMin:  intPtr(reps),
				RepsMax:  intPtr(reps),
				Evidence: EvidenceExplicit,
			},
			Structural: []token.Structural{
				{Index: i, Role: token.RoleReps},
				{Index: i + 1, Role: token.RoleKeyword},
				{Index: i + 2, Role: token.RoleSep},
				{Index: i + 3, Role: token.RoleSets},
				{Index: i + 4, Role: token.RoleKeyword},
			},
		}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// tryCompact matches "xN M" ("Sentadilla x4 12"): the glued x-number gives
// the sets, an optional following number gives the reps.
func tryCompact(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+1 < len(toks); i++ {
		if toks[i].Type != token.Word || toks[i].Normalized != "x" {
			continue
		}
		if !isNumber(toks[i+1]) || toks[i].End != toks[i+1].Start {
			continue
		}
		sets := atoiTok(toks[i+1])
		if sets <= 0 {
			continue
		}
		structural := []token.Structural{
			{Index: i, Role: token.RoleSep},
			{Index: i + 1, Role: token.RoleSets},
		}
		shape := Shape{Kind: ShapeFixed, Sets: sets, Evidence: EvidenceHeuristic}
		shape.addReason(ReasonCompactSetsAssumed)
		if i+2 < len(toks) && isNumber(toks[i+2]) {
			reps := atoiTok(toks[i+2])
			if reps > 0 {
				structural = append(structural, token.Structural{Index: i + 2, Role: token.RoleReps})
				shape.RepsMin = intPtr(reps)
				shape.RepsMax = intPtr(reps)
			}
		}
		c := &Candidate{Matcher: m.name, Priority: m.priority, Shape: shape, Structural: structural}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// trySeriesScheme matches "N series: M1,M2,M3" — an explicit sets count
// followed by a per-set rep list.
func trySeriesScheme(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	for i := start; i+2 < len(toks); i++ {
		if !isNumber(toks[i]) || !isSeriesWord(toks[i+1]) {
			continue
		}
		sets := atoiTok(toks[i])
		if sets <= 0 {
			continue
		}
		j := i + 2
		structural := []token.Structural{
			{Index: i, Role: token.RoleSets},
			{Index: i + 1, Role: token.RoleKeyword},
		}
		if toks[j].Type == token.Symbol && toks[j].Normalized == ":" {
			structural = append(structural, token.Structural{Index: j, Role: token.RoleSep})
			j++
		}
		list, consumed := scanList(toks, j, ",")
		if len(list) < 2 {
			continue
		}
		structural = append(structural, consumed...)
		c := &Candidate{
			Matcher:  m.name,
			Priority: m.priority,
			Shape: Shape{
				Kind:     ShapeScheme,
				Sets:     sets,
				RepsList: list,
				Evidence: EvidenceExplicit,
			},
			Structural: structural,
		}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// tryCommaScheme matches a bare rep sequence "8,8,8": three or more
// comma-separated numbers read as one set per entry.
func tryCommaScheme(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	return trySeparatedScheme(m, line, toks, start, ",", ReasonBareSchemeAssumed)
}

// tryDashScheme matches a numeric ladder "10-8-6". Dashes also write rep
// ranges, so this needs three or more numbers and records the assumption.
func tryDashScheme(m funcMatcher, line string, toks []token.Token, start int) *Candidate {
	return trySeparatedScheme(m, line, toks, start, "-", ReasonDashSeriesAssumed)
}

func trySeparatedScheme(m funcMatcher, line string, toks []token.Token, start int, sep, reason string) *Candidate {
	for i := start; i < len(toks); i++ {
		if !isNumber(toks[i]) {
			continue
		}
		list, consumed := scanList(toks, i, sep)
		if len(list) < 3 {
			continue
		}
		shape := Shape{
			Kind:     ShapeScheme,
			Sets:     len(list),
			RepsList: list,
			Evidence: EvidenceHeuristic,
		}
		shape.addReason(reason)
		c := &Candidate{Matcher: m.name, Priority: m.priority, Shape: shape, Structural: consumed}
		c.finalize(line, toks, start)
		return c
	}
	return nil
}

// scanList reads "N sep N sep N..." starting at a number token and returns
// the values plus the structural tokens consumed.
func scanList(toks []token.Token, i int, sep string) ([]int, []token.Structural) {
	if i >= len(toks) || !isNumber(toks[i]) {
		return nil, nil
	}
	v := atoiTok(toks[i])
	if v <= 0 {
		return nil, nil
	}
	list := []int{v}
	structural := []token.Structural{{Index: i, Role: token.RoleReps}}
	j := i + 1
	for j+1 < len(toks) && toks[j].Type == token.Symbol && toks[j].Normalized == sep && isNumber(toks[j+1]) {
		v = atoiTok(toks[j+1])
		if v <= 0 {
			break
		}
		structural = append(structural,
			token.Structural{Index: j, Role: token.RoleSep},
			token.Structural{Index: j + 1, Role: token.RoleReps},
		)
		list = append(list, v)
		j += 2
	}
	return list, structural
}
