// Package piece defines chess pieces and their movement geometry.
package piece

import (
	"fmt"
	"unicode"

	"chessboard/internal/core"
)

// Kind is the piece variant. The zero value None marks an empty square.
type Kind uint8

const (
	None Kind = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

// Kinds lists every real piece kind in declaration order
var Kinds = []Kind{Pawn, Rook, Knight, Bishop, Queen, King}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Rook:
		return "Rook"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return ""
	}
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown piece kind: %q", s)
}

// Letter is the uppercase notation letter
func (k Kind) Letter() byte {
	switch k {
	case Pawn:
		return 'P'
	case Rook:
		return 'R'
	case Knight:
		return 'N'
	case Bishop:
		return 'B'
	case Queen:
		return 'Q'
	case King:
		return 'K'
	default:
		return 0
	}
}

// Value is the material a capture of this kind is worth.
// The King carries no value.
func (k Kind) Value() int {
	switch k {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	default:
		return 0
	}
}

// Piece carries kind, color and whether it has ever moved. It has no position;
// the board owns placement.
type Piece struct {
	Kind     Kind       `json:"kind"`
	Color    core.Color `json:"color"`
	HasMoved bool       `json:"hasMoved"`
}

// New returns an unmoved piece
func New(kind Kind, color core.Color) Piece {
	return Piece{Kind: kind, Color: color}
}

// IsEmpty reports whether p is the empty-square value
func (p Piece) IsEmpty() bool {
	return p.Kind == None
}

// Symbol is the notation letter, uppercase for White and lowercase for Black
func (p Piece) Symbol() byte {
	l := p.Kind.Letter()
	if l != 0 && p.Color == core.ColorBlack {
		return byte(unicode.ToLower(rune(l)))
	}
	return l
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	return p.Kind.String() + "_" + p.Color.Name()
}

// FromSymbol decodes a notation letter into an unmoved piece
func FromSymbol(ch byte) (Piece, error) {
	color := core.ColorWhite
	upper := ch
	if ch >= 'a' && ch <= 'z' {
		color = core.ColorBlack
		upper = ch - 'a' + 'A'
	}
	for _, k := range Kinds {
		if k.Letter() == upper {
			return New(k, color), nil
		}
	}
	return Piece{}, fmt.Errorf("invalid piece symbol: %q", ch)
}
