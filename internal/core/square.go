package core

import (
	"fmt"
	"strings"
)

// BoardSize is the number of rows and columns
const BoardSize = 8

// Square addresses a cell by row and column. Row 0 is Black's back rank,
// row 7 is White's.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sq is shorthand for Square{Row: row, Col: col}
func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

// String renders the square in algebraic form, "e2" for Square{6, 4}
func (s Square) String() string {
	if !s.InBounds() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%c", 'a'+s.Col, '8'-s.Row)
}

// ParseSquare converts algebraic notation to a Square
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("invalid square: %q", s)
	}
	return Square{Row: int('8' - s[1]), Col: int(s[0] - 'a')}, nil
}

// Move is an origin and destination pair
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// String renders coordinate notation, "e2e4"
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// ParseMove reads coordinate notation such as "e2e4". A trailing
// promotion letter is tolerated and ignored since pawns always become queens.
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 5 && s[4] == 'q' {
		s = s[:4]
	}
	if len(s) != 4 {
		return Move{}, fmt.Errorf("invalid move format: %q", s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}
