package cli

import (
	"bytes"
	"strings"
	"testing"

	"chessboard/internal/cli"
	"chessboard/internal/opponent"
	"chessboard/internal/position"
	"chessboard/internal/service"
)

// session runs a scripted terminal session and returns everything printed
func session(t *testing.T, script ...string) (string, *CLIHandler) {
	t.Helper()

	svc := service.New(nil, []byte("cli-test-secret-of-sufficient-length"))
	t.Cleanup(func() { svc.Shutdown() })

	var out bytes.Buffer
	input := strings.NewReader(strings.Join(script, "\n") + "\n")
	view := cli.New(cli.NewScannerReader(input), &out)
	h := New(svc, view, opponent.NewSeeded(7))

	if err := h.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), h
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestComputerRepliesToHumanMove(t *testing.T) {
	out, h := session(t, "new", "e2e4")

	assertContains(t, out, "Game started.", "You (white): e2e4", "Computer (black): ")
	if h.GameID() != "" {
		t.Errorf("game still open after end of input")
	}
}

func TestUndoTakesBackFullTurn(t *testing.T) {
	out, _ := session(t, "new", "e2e4", "undo", "history")

	assertContains(t, out, "2 moves undone", "Position: "+position.StartingPosition)
}

func TestCheckmateEndsGame(t *testing.T) {
	out, h := session(t, "resume k7/8/1K6/8/8/8/8/7R w", "h1h8", "moves")

	assertContains(t, out,
		"Game Over: white wins",
		"Result: white (white 0, black 0) after 1 moves",
		"No active game.",
	)
	if h.GameID() != "" {
		t.Errorf("finished game still active")
	}
}

func TestQuitRecordsChangedGame(t *testing.T) {
	out, _ := session(t, "new human", "e2e4", "d7d5", "e4d5", "quit")

	assertContains(t, out, "Result: white (white 1, black 0) after 3 moves")
}

func TestCommandErrors(t *testing.T) {
	out, _ := session(t,
		"moves",
		"new human",
		"e2e5",
		"bogus",
		"moves e7",
		"moves g1",
		"undo zero",
		"color purple",
		"load",
		"scores",
	)

	assertContains(t, out,
		"No active game.",
		"Error: invalid move: ",
		`Unknown command or move "bogus"`,
		"No legal moves.",
		"Moves from g1: g1f3 g1h3",
		"Invalid undo count.",
		"Error: invalid theme: purple",
		"Usage: load <game id>",
		"Error: storage disabled",
	)
}
