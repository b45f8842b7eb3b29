package domain

// Resolution is the winning square lookup for one checkpoint.
type Resolution struct {
	TeamADigit Digit `json:"teamA_last"`
	TeamBDigit Digit `json:"teamB_last"`
	Row        int   `json:"rowIndex"`
	Col        int   `json:"colIndex"`
	Valid      bool  `json:"valid"`
}

func (r Resolution) Coord() Coord {
	return Coord{Row: r.Row, Col: r.Col}
}

// Resolve finds team A's digit across the top and team B's digit down the
// left. Valid is false when a permutation is missing the digit or holds it
// beyond the grid, as an oversized imported permutation can.
func Resolve(top, left Permutation, a, b Digit) Resolution {
	col := axisIndex(top, a)
	row := axisIndex(left, b)

	return Resolution{
		TeamADigit: a,
		TeamBDigit: b,
		Row:        row,
		Col:        col,
		Valid:      row >= 0 && col >= 0,
	}
}

func axisIndex(p Permutation, d Digit) int {
	i := p.IndexOf(d)
	if i >= AxisSize {
		return -1
	}
	return i
}
