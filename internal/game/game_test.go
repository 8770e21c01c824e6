package game

import (
	"errors"
	"testing"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/piece"
	"chessboard/internal/position"

	"github.com/google/go-cmp/cmp"
)

func players() (*core.Player, *core.Player) {
	return core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, core.ColorWhite),
		core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer}, core.ColorBlack)
}

func newGame(t *testing.T, pos string) *Game {
	t.Helper()
	w, b := players()
	g, err := New(pos, w, b)
	if err != nil {
		t.Fatalf("New(%q): %v", pos, err)
	}
	return g
}

func play(t *testing.T, g *Game, moves ...string) *MoveResult {
	t.Helper()
	var res *MoveResult
	for _, s := range moves {
		m, err := core.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		if res, err = g.Move(m); err != nil {
			t.Fatalf("move %s: %v", s, err)
		}
	}
	return res
}

func TestNewDefaultsToStartingPosition(t *testing.T) {
	g := newGame(t, "")
	if g.CurrentPosition() != position.StartingPosition {
		t.Errorf("position = %q", g.CurrentPosition())
	}
	if g.State() != core.StateOngoing {
		t.Errorf("state = %v", g.State())
	}
	if g.NextPlayer() != g.GetPlayer(core.ColorWhite) {
		t.Error("white should be on move")
	}
}

func TestNewRejectsBadPositions(t *testing.T) {
	w, b := players()
	for _, pos := range []string{"garbage", "8/8/8/8/8/8/8/4K3 w"} {
		if _, err := New(pos, w, b); err == nil {
			t.Errorf("New(%q) succeeded", pos)
		}
	}
}

func TestCaptureScoresAndHistory(t *testing.T) {
	g := newGame(t, "")
	res := play(t, g, "e2e4", "d7d5", "e4d5")

	if res.Captured != piece.Pawn || res.PlayerColor != core.ColorWhite {
		t.Errorf("last result = %+v", res)
	}
	if diff := cmp.Diff(Score{White: 1}, g.Score()); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}

	play(t, g, "d8d5")
	if diff := cmp.Diff(Score{White: 1, Black: 1}, g.Score()); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"e2e4", "d7d5", "e4d5", "d8d5"}, g.Moves()); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	h := g.History()
	if h[3].PlayerColor != core.ColorBlack || h[3].Captured != piece.Pawn {
		t.Errorf("history[3] = %+v", h[3])
	}
}

func TestUndoRestoresBoardAndScore(t *testing.T) {
	g := newGame(t, "")
	play(t, g, "e2e4", "d7d5", "e4d5")
	afterCapture := g.CurrentPosition()
	play(t, g, "d8d5")

	if err := g.UndoMoves(1); err != nil {
		t.Fatal(err)
	}
	if g.CurrentPosition() != afterCapture {
		t.Errorf("position = %q, want %q", g.CurrentPosition(), afterCapture)
	}
	if got := position.Encode(g.Board()); got != afterCapture {
		t.Errorf("board = %q, want %q", got, afterCapture)
	}
	if diff := cmp.Diff(Score{White: 1}, g.Score()); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
	if len(g.History()) != 3 {
		t.Errorf("history length = %d", len(g.History()))
	}

	if err := g.UndoMoves(4); err == nil {
		t.Error("undo past the start succeeded")
	}
	if err := g.UndoMoves(3); err != nil {
		t.Fatal(err)
	}
	if *g.Board() != *board.NewStandard() {
		t.Error("board not back at the standard setup")
	}
}

func TestUndoRestoresDoubleStep(t *testing.T) {
	g := newGame(t, "")
	play(t, g, "a2a3", "h7h6")
	if err := g.UndoMoves(2); err != nil {
		t.Fatal(err)
	}
	play(t, g, "a2a4")
}

func TestCheckmateEndsGame(t *testing.T) {
	g := newGame(t, "")
	res := play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")

	if g.State() != core.StateBlackWins || res.GameState != core.StateBlackWins {
		t.Fatalf("state = %v", g.State())
	}
	if !res.Check || !g.InCheck() {
		t.Error("mated side should be in check")
	}

	m, _ := core.ParseMove("a2a3")
	if _, err := g.Move(m); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after mate error = %v, want ErrGameOver", err)
	}

	if err := g.UndoMoves(1); err != nil {
		t.Fatal(err)
	}
	if g.State() != core.StateOngoing {
		t.Errorf("state after undo = %v", g.State())
	}
}

func TestStalemate(t *testing.T) {
	g := newGame(t, "k7/8/1K6/8/8/8/8/2Q5 w")
	res := play(t, g, "c1c7")
	if res.GameState != core.StateStalemate {
		t.Errorf("state = %v, want stalemate", res.GameState)
	}
	if res.Check {
		t.Error("stalemate reported as check")
	}
}

func TestStartingInMate(t *testing.T) {
	g := newGame(t, "k7/1Q6/1K6/8/8/8/8/8 b")
	if g.State() != core.StateWhiteWins {
		t.Errorf("state = %v, want white wins", g.State())
	}
}

func TestMoveErrorsAreBoardSentinels(t *testing.T) {
	g := newGame(t, "")
	tests := []struct {
		move string
		want error
	}{
		{"e7e5", board.ErrWrongTurn},
		{"e3e4", board.ErrNoPiece},
		{"e2e5", board.ErrIllegalMove},
	}
	for _, tt := range tests {
		m, _ := core.ParseMove(tt.move)
		if _, err := g.Move(m); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.move, err, tt.want)
		}
	}
	if len(g.Moves()) != 0 {
		t.Error("rejected moves recorded")
	}
}

func TestFinishByMaterial(t *testing.T) {
	g := newGame(t, "")
	if got := g.Finish(); got != core.StateDraw {
		t.Errorf("even material = %v, want draw", got)
	}

	g = newGame(t, "")
	play(t, g, "e2e4", "d7d5", "e4d5")
	if got := g.Finish(); got != core.StateWhiteWins {
		t.Errorf("white ahead = %v", got)
	}
	// a decided game keeps its result
	g.SetState(core.StateBlackWins)
	if got := g.Finish(); got != core.StateBlackWins {
		t.Errorf("Finish overwrote %v", got)
	}
}

func TestNewWithScoreCarriesMaterial(t *testing.T) {
	w, b := players()
	g, err := NewWithScore("", w, b, Score{White: 3, Black: 1})
	if err != nil {
		t.Fatal(err)
	}

	play(t, g, "e2e4", "d7d5", "e4d5")
	if diff := cmp.Diff(Score{White: 4, Black: 1}, g.Score()); diff != "" {
		t.Errorf("score after capture (-want +got):\n%s", diff)
	}
	if err := g.UndoMoves(3); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Score{White: 3, Black: 1}, g.Score()); diff != "" {
		t.Errorf("score after undo (-want +got):\n%s", diff)
	}
}

func TestResign(t *testing.T) {
	g := newGame(t, "")
	if err := g.Resign(core.ColorWhite); err != nil {
		t.Fatal(err)
	}
	if g.State() != core.StateBlackWins {
		t.Errorf("state = %v", g.State())
	}
	if err := g.Resign(core.ColorBlack); !errors.Is(err, ErrGameOver) {
		t.Errorf("second resign error = %v", err)
	}
}

func TestUpdatePlayersRetargetsSnapshot(t *testing.T) {
	g := newGame(t, "")
	w := core.NewPlayer(core.PlayerConfig{Type: core.PlayerComputer}, core.ColorWhite)
	_, b := players()
	g.UpdatePlayers(w, b)
	if g.CurrentSnapshot().PlayerID != w.ID {
		t.Error("snapshot still points at the old white player")
	}
}
