// Package opponent picks moves for computer players.
package opponent

import (
	"math/rand/v2"
	"time"

	"chessboard/internal/board"
	"chessboard/internal/core"
)

// Greedy takes the first capture found scanning origins row by row,
// otherwise a uniformly random legal move. It is not safe for concurrent
// use; give each goroutine its own instance.
type Greedy struct {
	rng *rand.Rand
}

// New returns a Greedy seeded from the clock
func New() *Greedy {
	seed := uint64(time.Now().UnixNano())
	return NewSeeded(seed)
}

// NewSeeded returns a Greedy with deterministic choices for a given seed
func NewSeeded(seed uint64) *Greedy {
	return &Greedy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Choose returns a move for the side to move on b, false when it has none.
// Only legal moves are considered so the choice is always accepted by
// b.Move.
func (g *Greedy) Choose(b *board.Board) (core.Move, bool) {
	moves := b.LegalMoves(b.Turn())
	if len(moves) == 0 {
		return core.Move{}, false
	}

	for _, m := range moves {
		if target, ok := b.Piece(m.To); ok && target.Color != b.Turn() {
			return m, true
		}
	}

	return moves[g.rng.IntN(len(moves))], true
}
