package processor

import (
	"testing"
	"time"

	"chessboard/internal/core"
	"chessboard/internal/service"

	"github.com/google/go-cmp/cmp"
)

func newProcessor(t *testing.T) (*Processor, *service.Service) {
	t.Helper()
	svc := service.New(nil, []byte("processor-test-secret"))
	p := New(svc, Config{Workers: 1, Seed: 7})
	t.Cleanup(func() {
		p.Close()
		svc.Shutdown()
	})
	return p, svc
}

func createGame(t *testing.T, p *Processor, white, black core.PlayerType, pos string) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{
		White:    core.PlayerConfig{Type: white},
		Black:    core.PlayerConfig{Type: black},
		Position: pos,
	}))
	if !resp.Success {
		t.Fatalf("create game failed: %+v", resp.Error)
	}
	return resp.Data.(core.GameResponse)
}

func wantCode(t *testing.T, resp ProcessorResponse, code string) {
	t.Helper()
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected %s error, got success: %+v", code, resp.Data)
	}
	if resp.Error.Code != code {
		t.Errorf("code = %s (%s), want %s", resp.Error.Code, resp.Error.Error, code)
	}
}

func TestCreateGame(t *testing.T) {
	p, _ := newProcessor(t)

	g := createGame(t, p, core.PlayerHuman, core.PlayerHuman, "")
	if g.Position != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w" || g.Turn != "w" || g.State != "ongoing" {
		t.Errorf("new game = %+v", g)
	}
	if g.Moves == nil || len(g.Moves) != 0 {
		t.Errorf("moves = %#v, want empty non-nil", g.Moves)
	}

	resp := p.Execute(NewCreateGameCommand("", core.CreateGameRequest{
		White:    core.PlayerConfig{Type: core.PlayerHuman},
		Black:    core.PlayerConfig{Type: core.PlayerHuman},
		Position: "8/8/8/8/8/8/8/8 w",
	}))
	wantCode(t, resp, core.ErrInvalidPosition)
}

func TestCreateGameAssignsUser(t *testing.T) {
	p, _ := newProcessor(t)
	resp := p.Execute(NewCreateGameCommand("user-1", core.CreateGameRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerComputer},
	}))
	g := resp.Data.(core.GameResponse)
	if g.Players.White.ID != "user-1" || g.Players.Black.ID == "user-1" {
		t.Errorf("players = %+v / %+v", g.Players.White, g.Players.Black)
	}
}

func TestHumanMoves(t *testing.T) {
	p, _ := newProcessor(t)
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman, "").GameID

	resp := p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: " E2E4 "}))
	if !resp.Success {
		t.Fatalf("e2e4 rejected: %+v", resp.Error)
	}
	g := resp.Data.(core.GameResponse)
	if g.Turn != "b" || g.LastMove == nil || g.LastMove.Move != "e2e4" || g.LastMove.PlayerColor != "w" {
		t.Errorf("after e2e4: %+v last %+v", g, g.LastMove)
	}

	p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "d7d5"}))
	resp = p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "e4d5"}))
	g = resp.Data.(core.GameResponse)
	if g.LastMove.Captured != "Pawn" || g.Score != (core.ScoreResponse{White: 1}) {
		t.Errorf("capture not reported: last %+v score %+v", g.LastMove, g.Score)
	}

	tests := []struct {
		name string
		move string
		code string
	}{
		{"bad format", "e9e4", core.ErrInvalidMove},
		{"wrong side", "d5d6", core.ErrInvalidMove},
		{"blocked", "a8a5", core.ErrInvalidMove},
		{"empty square", "e4e5", core.ErrInvalidMove},
		{"computer not playing", "cccc", core.ErrNotHumanTurn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: tt.move})), tt.code)
		})
	}

	resp = p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "a8a5"}))
	if resp.Error.Details == "" {
		t.Error("rejection reason missing from details")
	}

	wantCode(t, p.Execute(NewMakeMoveCommand("missing", core.MoveRequest{Move: "e2e4"})), core.ErrGameNotFound)
}

func TestComputerMoveThroughQueue(t *testing.T) {
	p, svc := newProcessor(t)
	id := createGame(t, p, core.PlayerHuman, core.PlayerComputer, "").GameID

	p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "e2e4"}))
	resp := p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "cccc"}))
	if !resp.Success || !resp.Pending {
		t.Fatalf("computer move not queued: %+v", resp)
	}
	if g := resp.Data.(core.GameResponse); g.LastMove == nil || g.LastMove.PlayerColor != "b" {
		t.Errorf("pending response last move = %+v", g.LastMove)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		v, err := svc.View(id)
		if err != nil {
			t.Fatal(err)
		}
		if len(v.Moves) == 2 && v.State == core.StateOngoing {
			if v.Turn != core.ColorWhite {
				t.Errorf("turn after computer move = %v", v.Turn)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("computer never moved: state %v moves %v", v.State, v.Moves)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLegalMoves(t *testing.T) {
	p, _ := newProcessor(t)
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman, "").GameID

	resp := p.Execute(NewLegalMovesCommand(id, "G1"))
	if !resp.Success {
		t.Fatal(resp.Error)
	}
	got := resp.Data.(core.LegalMovesResponse)
	if diff := cmp.Diff(core.LegalMovesResponse{From: "g1", Moves: []string{"g1f3", "g1h3"}}, got); diff != "" {
		t.Errorf("knight moves (-want +got):\n%s", diff)
	}

	resp = p.Execute(NewLegalMovesCommand(id, "e7"))
	if got := resp.Data.(core.LegalMovesResponse); len(got.Moves) != 0 || got.Moves == nil {
		t.Errorf("opponent piece moves = %#v", got.Moves)
	}

	if got := p.Execute(NewLegalMovesCommand(id, "")).Data.(core.LegalMovesResponse); len(got.Moves) != 20 {
		t.Errorf("%d moves from the start, want 20", len(got.Moves))
	}
	wantCode(t, p.Execute(NewLegalMovesCommand(id, "z9")), core.ErrInvalidRequest)
}

func TestUndoFinishAndStorage(t *testing.T) {
	p, _ := newProcessor(t)
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman, "").GameID

	wantCode(t, p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1})), core.ErrInvalidRequest)

	for _, m := range []string{"e2e4", "d7d5", "e4d5"} {
		p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: m}))
	}
	resp := p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 2}))
	if g := resp.Data.(core.GameResponse); len(g.Moves) != 1 || g.Turn != "b" {
		t.Errorf("after undo: %+v", g)
	}

	wantCode(t, p.Execute(NewSaveGameCommand(id)), core.ErrStorageDisabled)
	wantCode(t, p.Execute(NewGetResultsCommand(ResultsQuery{})), core.ErrStorageDisabled)

	resp = p.Execute(NewFinishGameCommand(id))
	if !resp.Success {
		t.Fatal(resp.Error)
	}
	if r := resp.Data.(*core.ResultResponse); r.Winner != "draw" || r.TotalMoves != 1 {
		t.Errorf("result = %+v", r)
	}
	wantCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "d7d5"})), core.ErrGameOver)

	if resp := p.Execute(NewDeleteGameCommand(id)); !resp.Success {
		t.Errorf("delete failed: %+v", resp.Error)
	}
	wantCode(t, p.Execute(NewGetGameCommand(id)), core.ErrGameNotFound)
}

func TestGetBoard(t *testing.T) {
	p, _ := newProcessor(t)
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman, "").GameID

	resp := p.Execute(NewGetBoardCommand(id))
	b := resp.Data.(core.BoardResponse)
	if b.Position == "" || b.Board == "" {
		t.Errorf("board response = %+v", b)
	}
}
