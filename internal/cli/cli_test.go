package cli

import (
	"bytes"
	"strings"
	"testing"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/game"
	"chessboard/internal/piece"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  *Command
	}{
		{"", &Command{Type: CmdNone}},
		{"NEW human", &Command{Type: CmdNew, Args: []string{"human"}, Raw: "NEW human"}},
		{"resume 8/8 w", &Command{Type: CmdResume, Args: []string{"8/8", "w"}, Raw: "resume 8/8 w"}},
		{"e2e4", &Command{Type: CmdMove, Args: []string{"e2e4"}, Raw: "e2e4"}},
		{"?", &Command{Type: CmdHelp, Args: []string{}, Raw: "?"}},
		{"exit", &Command{Type: CmdQuit, Args: []string{}, Raw: "exit"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseCommand(tt.input)); diff != "" {
				t.Errorf("ParseCommand(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestGetCommandEndOfInput(t *testing.T) {
	var out bytes.Buffer
	c := New(NewScannerReader(strings.NewReader("\n  undo 2 \n")), &out)
	c.SetPrompt("> ")

	var got []CommandType
	for i := 0; i < 3; i++ {
		cmd, err := c.GetCommand()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, cmd.Type)
	}
	if diff := cmp.Diff([]CommandType{CmdNone, CmdUndo, CmdQuit}, got); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
	if out.String() != "> > > " {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestDisplayBoardPlain(t *testing.T) {
	var out bytes.Buffer
	c := New(NewScannerReader(strings.NewReader("")), &out)
	c.DisplayBoard(board.NewStandard())

	lines := strings.Split(out.String(), "\n")
	want := []string{
		"",
		"  a b c d e f g h",
		"8 r n b q k b n r  8",
		"7 p p p p p p p p  7",
		"6 . . . . . . . .  6",
	}
	if diff := cmp.Diff(want, lines[:len(want)]); diff != "" {
		t.Errorf("board (-want +got):\n%s", diff)
	}
}

func TestShowMoveVerbose(t *testing.T) {
	var out bytes.Buffer
	c := New(NewScannerReader(strings.NewReader("")), &out)
	result := &game.MoveResult{
		Move:        "e4d5",
		PlayerColor: core.ColorWhite,
		Captured:    piece.Pawn,
		Check:       true,
	}

	c.ShowMove("You", result)
	c.ToggleVerbose()
	c.ShowMove("You", result)

	want := "You (white): e4d5\nYou (white): e4d5, captures Pawn (+1), check\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}
