// Package board holds the 8x8 grid, the side to move and the legality gate
// every move passes through.
package board

import (
	"chessboard/internal/core"
	"chessboard/internal/piece"
)

// Board is not safe for concurrent use. Callers sharing a Board must
// serialize every call, including read-only ones, since WouldBeInCheck
// mutates the grid temporarily.
type Board struct {
	squares [core.BoardSize][core.BoardSize]piece.Piece
	turn    core.Color
	kings   [2]kingEntry
}

type kingEntry struct {
	sq    core.Square
	valid bool
}

// Outcome describes an accepted move
type Outcome struct {
	Move     core.Move
	Mover    piece.Piece // piece as it stood before moving
	Captured piece.Piece // Kind is piece.None when nothing was taken
	Promoted bool
}

// New returns an empty board with White to move
func New() *Board {
	return &Board{turn: core.ColorWhite}
}

// NewStandard returns a board in the standard starting position
func NewStandard() *Board {
	b := New()
	b.Setup()
	return b
}

var backRank = [core.BoardSize]piece.Kind{
	piece.Rook, piece.Knight, piece.Bishop, piece.Queen,
	piece.King, piece.Bishop, piece.Knight, piece.Rook,
}

// Setup clears the board and places the standard 32 pieces with White to move
func (b *Board) Setup() {
	*b = Board{turn: core.ColorWhite}
	for col, kind := range backRank {
		b.PlacePiece(core.Sq(0, col), piece.New(kind, core.ColorBlack))
		b.PlacePiece(core.Sq(1, col), piece.New(piece.Pawn, core.ColorBlack))
		b.PlacePiece(core.Sq(6, col), piece.New(piece.Pawn, core.ColorWhite))
		b.PlacePiece(core.Sq(7, col), piece.New(kind, core.ColorWhite))
	}
}

// IsValidPosition reports whether sq lies on the board
func (b *Board) IsValidPosition(sq core.Square) bool {
	return sq.InBounds()
}

// Piece returns the occupant of sq, false when empty or off the board
func (b *Board) Piece(sq core.Square) (piece.Piece, bool) {
	if !sq.InBounds() {
		return piece.Piece{}, false
	}
	p := b.squares[sq.Row][sq.Col]
	return p, !p.IsEmpty()
}

// At satisfies piece.Occupancy
func (b *Board) At(sq core.Square) (piece.Piece, bool) {
	return b.Piece(sq)
}

// PlacePiece puts p on sq, overwriting any occupant. Placing a King
// records its square; overwriting a King forgets it.
func (b *Board) PlacePiece(sq core.Square, p piece.Piece) {
	if !sq.InBounds() {
		return
	}
	if old := b.squares[sq.Row][sq.Col]; old.Kind == piece.King && b.kingAt(old.Color, sq) {
		b.kings[kingIndex(old.Color)] = kingEntry{}
	}
	b.squares[sq.Row][sq.Col] = p
	if p.Kind == piece.King {
		b.kings[kingIndex(p.Color)] = kingEntry{sq: sq, valid: true}
	}
}

// RemovePiece empties sq
func (b *Board) RemovePiece(sq core.Square) {
	b.PlacePiece(sq, piece.Piece{})
}

// Turn returns the side to move
func (b *Board) Turn() core.Color {
	return b.turn
}

// SetTurn overrides the side to move when reconstructing a position
func (b *Board) SetTurn(c core.Color) {
	b.turn = c
}

// KingSquare returns the cached location of color's King
func (b *Board) KingSquare(c core.Color) (core.Square, bool) {
	e := b.kings[kingIndex(c)]
	return e.sq, e.valid
}

// IsInCheck reports whether any opposing piece could geometrically move
// onto color's King. A color without a King is never in check.
func (b *Board) IsInCheck(c core.Color) bool {
	king, ok := b.KingSquare(c)
	if !ok {
		return false
	}
	for r := 0; r < core.BoardSize; r++ {
		for col := 0; col < core.BoardSize; col++ {
			from := core.Sq(r, col)
			p, ok := b.Piece(from)
			if !ok || p.Color == c {
				continue
			}
			if p.ValidMove(b, from, king) {
				return true
			}
		}
	}
	return false
}

// WouldBeInCheck simulates start->end and reports whether the mover's own
// King would then be attacked. The board is restored before returning.
// An empty origin reports false.
func (b *Board) WouldBeInCheck(start, end core.Square) bool {
	mover, ok := b.Piece(start)
	if !ok || !end.InBounds() {
		return false
	}

	saved := b.snapshot(start, end)
	defer b.restore(saved)

	b.squares[end.Row][end.Col] = mover
	b.squares[start.Row][start.Col] = piece.Piece{}
	if mover.Kind == piece.King {
		b.kings[kingIndex(mover.Color)] = kingEntry{sq: end, valid: true}
	}

	return b.IsInCheck(mover.Color)
}

// MovePiece is Move reduced to accepted or rejected
func (b *Board) MovePiece(start, end core.Square) bool {
	_, err := b.Move(start, end)
	return err == nil
}

// Move validates and commits start->end for the side to move. A rejected
// move returns one of the Err* values and leaves the board untouched.
func (b *Board) Move(start, end core.Square) (Outcome, error) {
	if !start.InBounds() || !end.InBounds() {
		return Outcome{}, ErrOffBoard
	}
	mover, ok := b.Piece(start)
	if !ok {
		return Outcome{}, ErrNoPiece
	}
	if mover.Color != b.turn {
		return Outcome{}, ErrWrongTurn
	}
	if !mover.ValidMove(b, start, end) {
		return Outcome{}, ErrIllegalMove
	}
	if b.WouldBeInCheck(start, end) {
		return Outcome{}, ErrSelfCheck
	}

	out := Outcome{
		Move:     core.Move{From: start, To: end},
		Mover:    mover,
		Captured: b.squares[end.Row][end.Col],
	}

	moved := mover
	moved.HasMoved = true
	if moved.Kind == piece.Pawn && end.Row == piece.PromotionRow(moved.Color) {
		moved = piece.Piece{Kind: piece.Queen, Color: moved.Color, HasMoved: true}
		out.Promoted = true
	}

	b.RemovePiece(start)
	b.PlacePiece(end, moved)
	b.turn = core.OppositeColor(b.turn)

	return out, nil
}

// PseudoLegalMoves lists every geometrically valid move for color in
// row-major origin order, ignoring self-check
func (b *Board) PseudoLegalMoves(c core.Color) []core.Move {
	var moves []core.Move
	for r := 0; r < core.BoardSize; r++ {
		for col := 0; col < core.BoardSize; col++ {
			from := core.Sq(r, col)
			p, ok := b.Piece(from)
			if !ok || p.Color != c {
				continue
			}
			moves = append(moves, b.destinations(p, from)...)
		}
	}
	return moves
}

// LegalMoves is PseudoLegalMoves without moves that expose the mover's King
func (b *Board) LegalMoves(c core.Color) []core.Move {
	pseudo := b.PseudoLegalMoves(c)
	moves := pseudo[:0]
	for _, m := range pseudo {
		if !b.WouldBeInCheck(m.From, m.To) {
			moves = append(moves, m)
		}
	}
	return moves
}

// LegalMovesFrom lists legal moves of the piece on from, whoever's turn it is
func (b *Board) LegalMovesFrom(from core.Square) []core.Move {
	p, ok := b.Piece(from)
	if !ok {
		return nil
	}
	var moves []core.Move
	for _, m := range b.destinations(p, from) {
		if !b.WouldBeInCheck(m.From, m.To) {
			moves = append(moves, m)
		}
	}
	return moves
}

// HasLegalMove is a short-circuiting LegalMoves(c) != empty
func (b *Board) HasLegalMove(c core.Color) bool {
	for _, m := range b.PseudoLegalMoves(c) {
		if !b.WouldBeInCheck(m.From, m.To) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy
func (b *Board) Clone() *Board {
	cp := *b
	return &cp
}

func (b *Board) destinations(p piece.Piece, from core.Square) []core.Move {
	var moves []core.Move
	for r := 0; r < core.BoardSize; r++ {
		for col := 0; col < core.BoardSize; col++ {
			to := core.Sq(r, col)
			if p.ValidMove(b, from, to) {
				moves = append(moves, core.Move{From: from, To: to})
			}
		}
	}
	return moves
}

func (b *Board) kingAt(c core.Color, sq core.Square) bool {
	e := b.kings[kingIndex(c)]
	return e.valid && e.sq == sq
}

func kingIndex(c core.Color) int {
	if c == core.ColorBlack {
		return 1
	}
	return 0
}

type savedSquares struct {
	start, end   core.Square
	startP, endP piece.Piece
	kings        [2]kingEntry
}

func (b *Board) snapshot(start, end core.Square) savedSquares {
	return savedSquares{
		start:  start,
		end:    end,
		startP: b.squares[start.Row][start.Col],
		endP:   b.squares[end.Row][end.Col],
		kings:  b.kings,
	}
}

func (b *Board) restore(s savedSquares) {
	b.squares[s.start.Row][s.start.Col] = s.startP
	b.squares[s.end.Row][s.end.Col] = s.endP
	b.kings = s.kings
}
