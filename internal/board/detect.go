package board

// DetectMove compares two successive positions and returns the move in UCI
// form ("e2e4") when the difference is explainable as one piece travelling
// from one square to another. Captures fit the same rule: the source square
// empties and the destination's occupant changes to the moved tag.
//
// Anything else (no change, a hand hovering mid-move, two pieces lifted at
// once) returns ok=false; the caller simply sweeps again.
func DetectMove(old, new Position) (uci string, ok bool) {
	type sq struct{ r, c int }
	var vacated, arrived []sq

	for r := 0; r < Ranks; r++ {
		for c := 0; c < Files; c++ {
			o, n := old[r][c], new[r][c]
			if o == n {
				continue
			}
			switch {
			case !o.IsAbsent() && n.IsAbsent():
				vacated = append(vacated, sq{r, c})
			case !n.IsAbsent():
				// empty -> occupied, or occupant replaced (capture).
				arrived = append(arrived, sq{r, c})
			}
		}
	}

	if len(vacated) != 1 || len(arrived) != 1 {
		return "", false
	}

	from, to := vacated[0], arrived[0]
	if old[from.r][from.c] != new[to.r][to.c] {
		// The tag that appeared is not the tag that left; two independent
		// changes, not a move.
		return "", false
	}
	return SquareName(from.r, from.c) + SquareName(to.r, to.c), true
}
