package board

import "errors"

// Move rejection reasons. A rejected move never changes the board.
var (
	ErrOffBoard    = errors.New("square is off the board")
	ErrNoPiece     = errors.New("no piece on origin square")
	ErrWrongTurn   = errors.New("piece does not belong to the side to move")
	ErrIllegalMove = errors.New("piece cannot move that way")
	ErrSelfCheck   = errors.New("move would leave own king in check")
)
