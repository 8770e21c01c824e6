// Package position converts boards to and from their textual record.
//
// The record is the placement field of FEN (rows from Black's back rank
// down to White's, digits for runs of empty squares) followed by the side
// to move. Full six-field FEN is accepted on input; castling, en passant
// and clock fields are ignored since the rules engine has no use for them.
package position

import (
	"fmt"
	"strings"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/piece"
)

const (
	StartingPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w"
)

// Encode renders b as a position record
func Encode(b *board.Board) string {
	var sb strings.Builder
	for r := 0; r < core.BoardSize; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < core.BoardSize; c++ {
			p, ok := b.Piece(core.Sq(r, c))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Symbol())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(b.Turn().String())
	return sb.String()
}

// Decode rebuilds a board from a position record. Pawns standing off their
// home row are marked as moved so they lose the double step; every other
// piece starts unmoved.
func Decode(s string) (*board.Board, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 && len(parts) != 6 {
		return nil, fmt.Errorf("invalid position: expected 2 or 6 fields, got %d", len(parts))
	}

	rows := strings.Split(parts[0], "/")
	if len(rows) != core.BoardSize {
		return nil, fmt.Errorf("invalid position: expected %d rows, got %d", core.BoardSize, len(rows))
	}

	b := board.New()
	for r, row := range rows {
		col := 0
		for i := 0; i < len(row); i++ {
			ch := row[i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			if col >= core.BoardSize {
				return nil, fmt.Errorf("invalid position: too many squares in row %d", r)
			}
			p, err := piece.FromSymbol(ch)
			if err != nil {
				return nil, fmt.Errorf("invalid position: %w", err)
			}
			if p.Kind == piece.Pawn {
				if r == piece.PromotionRow(p.Color) {
					return nil, fmt.Errorf("invalid position: pawn on its promotion row %d", r)
				}
				p.HasMoved = r != piece.HomeRow(p.Color)
			}
			b.PlacePiece(core.Sq(r, col), p)
			col++
		}
		if col != core.BoardSize {
			return nil, fmt.Errorf("invalid position: row %d has %d squares", r, col)
		}
	}

	turn, err := core.ParseColor(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid position: %w", err)
	}
	b.SetTurn(turn)

	return b, nil
}

// Validate checks that b can start a game: one King per side and the side
// not to move is not already in check
func Validate(b *board.Board) error {
	kings := map[core.Color]int{}
	for r := 0; r < core.BoardSize; r++ {
		for c := 0; c < core.BoardSize; c++ {
			if p, ok := b.Piece(core.Sq(r, c)); ok && p.Kind == piece.King {
				kings[p.Color]++
			}
		}
	}
	for _, c := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if kings[c] != 1 {
			return fmt.Errorf("invalid position: %s has %d kings", c.Name(), kings[c])
		}
	}
	if b.IsInCheck(core.OppositeColor(b.Turn())) {
		return fmt.Errorf("invalid position: side not to move is in check")
	}
	return nil
}

// Normalize decodes and re-encodes s, dropping any FEN extras
func Normalize(s string) (string, error) {
	b, err := Decode(s)
	if err != nil {
		return "", err
	}
	return Encode(b), nil
}

// ASCII renders a framed diagram of b
func ASCII(b *board.Board) string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < core.BoardSize; r++ {
		sb.WriteString(fmt.Sprintf("%d ", core.BoardSize-r))
		for c := 0; c < core.BoardSize; c++ {
			if p, ok := b.Piece(core.Sq(r, c)); ok {
				sb.WriteString(fmt.Sprintf("%c ", p.Symbol()))
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", core.BoardSize-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}
