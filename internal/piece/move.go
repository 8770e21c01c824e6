package piece

import "chessboard/internal/core"

// Occupancy is the read-only board view the movement rules need
type Occupancy interface {
	// At returns the piece on sq, false when the square is empty or off the board
	At(sq core.Square) (Piece, bool)
}

// Direction returns the row delta of a forward pawn step for color
func Direction(c core.Color) int {
	if c == core.ColorWhite {
		return -1
	}
	return 1
}

// HomeRow is the row a color's pawns start on
func HomeRow(c core.Color) int {
	if c == core.ColorWhite {
		return 6
	}
	return 1
}

// PromotionRow is the farthest row a color's pawns can reach
func PromotionRow(c core.Color) int {
	if c == core.ColorWhite {
		return 0
	}
	return core.BoardSize - 1
}

// ValidMove reports whether p may travel from start to end by its own
// movement geometry. It never considers whether the move exposes the
// mover's King; that check belongs to the board.
func (p Piece) ValidMove(b Occupancy, start, end core.Square) bool {
	if !end.InBounds() {
		return false
	}
	if target, ok := b.At(end); ok && target.Color == p.Color {
		return false
	}

	switch p.Kind {
	case Pawn:
		return p.pawnMove(b, start, end)
	case Rook:
		return rookMove(b, start, end)
	case Knight:
		return knightMove(start, end)
	case Bishop:
		return bishopMove(b, start, end)
	case Queen:
		return rookMove(b, start, end) || bishopMove(b, start, end)
	case King:
		return kingMove(start, end)
	default:
		return false
	}
}

func (p Piece) pawnMove(b Occupancy, start, end core.Square) bool {
	dir := Direction(p.Color)
	dr := end.Row - start.Row
	dc := end.Col - start.Col
	_, occupied := b.At(end)

	switch {
	case dc == 0 && dr == dir:
		return !occupied
	case dc == 0 && dr == 2*dir:
		if p.HasMoved || occupied {
			return false
		}
		_, blocked := b.At(core.Sq(start.Row+dir, start.Col))
		return !blocked
	case abs(dc) == 1 && dr == dir:
		// baseline already rejected own pieces, so any occupant is an enemy
		return occupied
	}
	return false
}

func rookMove(b Occupancy, start, end core.Square) bool {
	if start == end {
		return false
	}
	if start.Row != end.Row && start.Col != end.Col {
		return false
	}
	return clearPath(b, start, end)
}

func bishopMove(b Occupancy, start, end core.Square) bool {
	dr := abs(end.Row - start.Row)
	if dr == 0 || dr != abs(end.Col-start.Col) {
		return false
	}
	return clearPath(b, start, end)
}

func knightMove(start, end core.Square) bool {
	dr := abs(end.Row - start.Row)
	dc := abs(end.Col - start.Col)
	return (dr == 1 && dc == 2) || (dr == 2 && dc == 1)
}

func kingMove(start, end core.Square) bool {
	dr := abs(end.Row - start.Row)
	dc := abs(end.Col - start.Col)
	return max(dr, dc) == 1
}

// clearPath walks the unit step from start toward end and reports whether
// every square strictly between them is empty. Callers guarantee the two
// squares share a row, column or diagonal.
func clearPath(b Occupancy, start, end core.Square) bool {
	stepR := sign(end.Row - start.Row)
	stepC := sign(end.Col - start.Col)

	cur := core.Sq(start.Row+stepR, start.Col+stepC)
	for cur != end {
		if _, ok := b.At(cur); ok {
			return false
		}
		cur = core.Sq(cur.Row+stepR, cur.Col+stepC)
	}
	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
