package opponent

import (
	"testing"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/position"
)

func decode(t *testing.T, s string) *board.Board {
	t.Helper()
	b, err := position.Decode(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPrefersCapture(t *testing.T) {
	// the b5 knight can take on a7 or c7; a7 comes first in row-major scan
	b := decode(t, "4k3/p1p5/8/1N6/8/8/8/4K3 w")
	g := NewSeeded(1)

	m, ok := g.Choose(b)
	if !ok {
		t.Fatal("no move chosen")
	}
	if got, want := m.String(), "b5a7"; got != want {
		t.Errorf("Choose = %s, want %s", got, want)
	}
}

func TestSkipsCaptureThatExposesKing(t *testing.T) {
	// taking the a6 pawn would uncover the rook on e8
	b := decode(t, "4r1k1/8/p7/8/8/8/4B3/4K3 w")
	g := NewSeeded(7)

	for i := 0; i < 20; i++ {
		m, ok := g.Choose(b)
		if !ok {
			t.Fatal("no move chosen")
		}
		if m.From.String() == "e2" {
			t.Fatalf("chose pinned bishop move %s", m)
		}
		if _, err := b.Clone().Move(m.From, m.To); err != nil {
			t.Fatalf("chosen move %s rejected: %v", m, err)
		}
	}
}

func TestRandomMoveIsLegalAndSeeded(t *testing.T) {
	b := board.NewStandard()

	a, _ := NewSeeded(42).Choose(b)
	again, _ := NewSeeded(42).Choose(b)
	if a != again {
		t.Errorf("same seed chose %s then %s", a, again)
	}

	g := NewSeeded(3)
	seen := map[core.Move]bool{}
	for i := 0; i < 200; i++ {
		m, ok := g.Choose(b)
		if !ok {
			t.Fatal("no move from the starting position")
		}
		if !b.Clone().MovePiece(m.From, m.To) {
			t.Fatalf("chosen move %s rejected", m)
		}
		seen[m] = true
	}
	if len(seen) < 10 {
		t.Errorf("only %d distinct opening moves in 200 draws", len(seen))
	}
}

func TestNoMoveWhenStalemated(t *testing.T) {
	b := decode(t, "k7/2Q5/1K6/8/8/8/8/8 b")
	if _, ok := New().Choose(b); ok {
		t.Error("stalemated side produced a move")
	}
}

func TestPlaysWholeGame(t *testing.T) {
	b := board.NewStandard()
	white, black := NewSeeded(11), NewSeeded(12)
	for ply := 0; ply < 300; ply++ {
		g := white
		if b.Turn() == core.ColorBlack {
			g = black
		}
		m, ok := g.Choose(b)
		if !ok {
			return
		}
		if !b.MovePiece(m.From, m.To) {
			t.Fatalf("ply %d: %s rejected", ply, m)
		}
		if b.IsInCheck(core.OppositeColor(b.Turn())) {
			t.Fatalf("ply %d: %s left the mover in check", ply, m)
		}
	}
}
