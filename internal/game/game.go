package game

import (
	"errors"
	"fmt"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/piece"
	"chessboard/internal/position"
)

var ErrGameOver = errors.New("game is over")

// Score is cumulative captured material per side
type Score struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (s Score) For(c core.Color) int {
	if c == core.ColorWhite {
		return s.White
	}
	return s.Black
}

func (s *Score) add(c core.Color, n int) {
	if c == core.ColorWhite {
		s.White += n
	} else {
		s.Black += n
	}
}

// Leader returns the side ahead on material, false on a tie
func (s Score) Leader() (core.Color, bool) {
	switch {
	case s.White > s.Black:
		return core.ColorWhite, true
	case s.Black > s.White:
		return core.ColorBlack, true
	}
	return 0, false
}

func (s Score) IsZero() bool {
	return s.White == 0 && s.Black == 0
}

type Snapshot struct {
	Position      string     `json:"position"`
	PreviousMove  string     `json:"previousMove"`
	NextTurnColor core.Color `json:"nextTurnColor"`
	PlayerID      string     `json:"playerId"` // ID of the player whose turn it is
	Score         Score      `json:"score"`
}

// HistoryEntry records one accepted ply
type HistoryEntry struct {
	Move        core.Move  `json:"move"`
	Captured    piece.Kind `json:"captured,omitempty"`
	PlayerColor core.Color `json:"playerColor"`
	Promoted    bool       `json:"promoted,omitempty"`
}

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move        string     `json:"move"`
	PlayerColor core.Color `json:"playerColor"`
	GameState   core.State `json:"gameState"`
	Captured    piece.Kind `json:"captured,omitempty"`
	Promoted    bool       `json:"promoted,omitempty"`
	Check       bool       `json:"check,omitempty"`
}

// Game owns one board plus everything needed to undo, score and persist it.
// It is not safe for concurrent use.
type Game struct {
	board      *board.Board
	snapshots  []Snapshot
	history    []HistoryEntry
	players    map[core.Color]*core.Player
	state      core.State
	lastResult *MoveResult
}

// New starts a game from a position record. An empty record means the
// standard starting position.
func New(initialPosition string, whitePlayer, blackPlayer *core.Player) (*Game, error) {
	if initialPosition == "" {
		initialPosition = position.StartingPosition
	}
	b, err := position.Decode(initialPosition)
	if err != nil {
		return nil, err
	}
	if err = position.Validate(b); err != nil {
		return nil, err
	}

	g := &Game{
		board: b,
		players: map[core.Color]*core.Player{
			core.ColorWhite: whitePlayer,
			core.ColorBlack: blackPlayer,
		},
	}
	g.snapshots = []Snapshot{{
		Position:      position.Encode(b),
		NextTurnColor: b.Turn(),
		PlayerID:      g.players[b.Turn()].ID,
	}}
	g.state = g.evaluate()

	return g, nil
}

// NewWithScore is New for a game resumed mid-way, carrying the material
// already captured. Undo never goes below it.
func NewWithScore(initialPosition string, whitePlayer, blackPlayer *core.Player, score Score) (*Game, error) {
	g, err := New(initialPosition, whitePlayer, blackPlayer)
	if err != nil {
		return nil, err
	}
	g.snapshots[0].Score = score
	return g, nil
}

// Move plays m for the side to move. Board rejections are returned as the
// board package's sentinel errors.
func (g *Game) Move(m core.Move) (*MoveResult, error) {
	if g.state.IsOver() {
		return nil, fmt.Errorf("%w: %s", ErrGameOver, g.state)
	}

	out, err := g.board.Move(m.From, m.To)
	if err != nil {
		return nil, err
	}

	mover := out.Mover.Color
	score := g.Score()
	score.add(mover, out.Captured.Kind.Value())

	g.history = append(g.history, HistoryEntry{
		Move:        m,
		Captured:    out.Captured.Kind,
		PlayerColor: mover,
		Promoted:    out.Promoted,
	})

	next := g.board.Turn()
	g.snapshots = append(g.snapshots, Snapshot{
		Position:      position.Encode(g.board),
		PreviousMove:  m.String(),
		NextTurnColor: next,
		PlayerID:      g.players[next].ID,
		Score:         score,
	})

	if out.Captured.Kind == piece.King {
		g.state = core.WinState(mover)
	} else {
		g.state = g.evaluate()
	}

	g.lastResult = &MoveResult{
		Move:        m.String(),
		PlayerColor: mover,
		GameState:   g.state,
		Captured:    out.Captured.Kind,
		Promoted:    out.Promoted,
		Check:       g.board.IsInCheck(next),
	}
	return g.lastResult, nil
}

// evaluate decides the state of the current position for the side to move
func (g *Game) evaluate() core.State {
	turn := g.board.Turn()
	if _, ok := g.board.KingSquare(turn); !ok {
		return core.WinState(core.OppositeColor(turn))
	}
	if g.board.HasLegalMove(turn) {
		return core.StateOngoing
	}
	if g.board.IsInCheck(turn) {
		return core.WinState(core.OppositeColor(turn))
	}
	return core.StateStalemate
}

// Finish ends an ongoing game on material: the side with the higher score
// wins, equal scores draw. A game already decided keeps its state.
func (g *Game) Finish() core.State {
	if g.state.IsOver() {
		return g.state
	}
	if leader, ok := g.MaterialLeader(); ok {
		g.state = core.WinState(leader)
	} else {
		g.state = core.StateDraw
	}
	return g.state
}

// Resign hands the win to the other side
func (g *Game) Resign(c core.Color) error {
	if g.state.IsOver() {
		return fmt.Errorf("%w: %s", ErrGameOver, g.state)
	}
	g.state = core.WinState(core.OppositeColor(c))
	return nil
}

func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}

	availableMoves := len(g.snapshots) - 1
	if availableMoves < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, availableMoves)
	}

	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.history = g.history[:len(g.history)-count]

	b, err := position.Decode(g.CurrentPosition())
	if err != nil {
		return fmt.Errorf("corrupt snapshot: %w", err)
	}
	g.board = b
	g.lastResult = nil
	g.state = g.evaluate()
	return nil
}

// Board exposes the live board for read-only queries
func (g *Game) Board() *board.Board {
	return g.board
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

// CurrentSnapshot returns the latest game snapshot
func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

func (g *Game) CurrentPosition() string {
	return g.CurrentSnapshot().Position
}

func (g *Game) InitialPosition() string {
	return g.snapshots[0].Position
}

func (g *Game) Score() Score {
	return g.CurrentSnapshot().Score
}

// MaterialLeader is the side with more captured material, false when level
func (g *Game) MaterialLeader() (core.Color, bool) {
	return g.Score().Leader()
}

func (g *Game) NextTurnColor() core.Color {
	return g.CurrentSnapshot().NextTurnColor
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurnColor()]
}

func (g *Game) GetPlayer(color core.Color) *core.Player {
	return g.players[color]
}

// InCheck reports whether the side to move is in check
func (g *Game) InCheck() bool {
	return g.board.IsInCheck(g.board.Turn())
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[core.ColorWhite] = whitePlayer
	g.players[core.ColorBlack] = blackPlayer

	// Keep the current snapshot pointing at the player now on move
	currentSnap := &g.snapshots[len(g.snapshots)-1]
	currentSnap.PlayerID = g.players[currentSnap.NextTurnColor].ID
}

func (g *Game) Moves() []string {
	moves := make([]string, 0, len(g.history))
	for _, h := range g.history {
		moves = append(moves, h.Move.String())
	}
	return moves
}

// History returns a copy of the per-ply records
func (g *Game) History() []HistoryEntry {
	return append([]HistoryEntry(nil), g.history...)
}

func (g *Game) State() core.State {
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.state = s
}
