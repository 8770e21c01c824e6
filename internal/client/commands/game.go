package commands

import (
	"fmt"
	"strconv"
	"strings"

	"chessboard/internal/client/display"
	"chessboard/internal/core"
)

const computerMove = "cccc"

func (r *Registry) registerGameCommands() {
	for _, cmd := range []*Command{
		{Name: "new", ShortName: "n", Description: "Create a new game (players h or c, default human vs computer)", Usage: "new [white h|c] [black h|c] [position...]", Handler: newGameHandler},
		{Name: "join", ShortName: "j", Description: "Set the current game", Usage: "join <gameId>", Handler: joinGameHandler},
		{Name: "players", ShortName: "y", Description: "Change player types", Usage: "players <white h|c> <black h|c>", Handler: playersHandler},
		{Name: "move", ShortName: "m", Description: "Make a move", Usage: "move <from><to>", Handler: moveHandler},
		{Name: "computer", ShortName: "c", Description: "Ask the computer to move", Usage: "computer", Handler: computerMoveHandler},
		{Name: "undo", ShortName: "u", Description: "Undo moves", Usage: "undo [count]", Handler: undoHandler},
		{Name: "show", ShortName: "h", Description: "Show board and game state", Usage: "show", Handler: showBoardHandler},
		{Name: "legal", ShortName: "g", Description: "List legal moves", Usage: "legal [square]", Handler: legalHandler},
		{Name: "save", ShortName: "v", Description: "Save the current game", Usage: "save", Handler: saveHandler},
		{Name: "restore", ShortName: "t", Description: "Load a saved game", Usage: "restore <gameId>", Handler: restoreHandler},
		{Name: "finish", ShortName: "f", Description: "End the game and record the result", Usage: "finish", Handler: finishHandler},
		{Name: "results", ShortName: "s", Description: "Show the scoreboard", Usage: "results [white|black|draw] [limit]", Handler: resultsHandler},
		{Name: "delete", ShortName: "d", Description: "Delete a game", Usage: "delete [gameId]", Handler: deleteGameHandler},
		{Name: "poll", ShortName: "p", Description: "Long-poll for game updates", Usage: "poll", Handler: pollHandler},
	} {
		cmd.Group = groupGame
		r.Register(cmd)
	}
}

func parsePlayer(arg string) (core.PlayerConfig, error) {
	switch strings.ToLower(arg) {
	case "h", "human":
		return core.PlayerConfig{Type: core.PlayerHuman}, nil
	case "c", "computer":
		return core.PlayerConfig{Type: core.PlayerComputer}, nil
	}
	return core.PlayerConfig{}, fmt.Errorf("player must be h or c, got %q", arg)
}

func newGameHandler(s *Session, args []string) error {
	req := &core.CreateGameRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerComputer},
	}

	var err error
	if len(args) > 0 {
		if req.White, err = parsePlayer(args[0]); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if req.Black, err = parsePlayer(args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		req.Position = strings.Join(args[2:], " ")
	}

	resp, err := s.Client.CreateGame(req)
	if err != nil {
		return err
	}
	s.setGame(resp)
	s.printf(display.Green, "Game created: %s", resp.GameID)

	return s.playComputer()
}

func joinGameHandler(s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := s.Client.GetGame(args[0])
	if err != nil {
		return err
	}
	s.setGame(resp)

	s.printf(display.Green, "Joined game: %s", resp.GameID)
	fmt.Fprintf(s.Out, "Turn: %s | State: %s | Moves: %d\n",
		display.TurnName(resp.Turn), resp.State, len(resp.Moves))
	return nil
}

func playersHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: players <white h|c> <black h|c>")
	}
	white, err := parsePlayer(args[0])
	if err != nil {
		return err
	}
	black, err := parsePlayer(args[1])
	if err != nil {
		return err
	}

	resp, err := s.Client.ConfigurePlayers(s.CurrentGame, &core.ConfigurePlayersRequest{White: white, Black: black})
	if err != nil {
		return err
	}
	s.setGame(resp)
	s.printf(display.Green, "Players updated")
	return s.playComputer()
}

func moveHandler(s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <from><to>")
	}
	if s.CurrentGame == "" {
		return errNoGame
	}

	resp, _, err := s.Client.MakeMove(s.CurrentGame, args[0])
	if err != nil {
		return err
	}
	s.setGame(resp)
	s.printf(display.Green, "Move accepted: %s", describeMove(resp.LastMove))

	return s.playComputer()
}

func computerMoveHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	return s.requestComputerMove()
}

// playComputer makes one computer move when the computer holds the move;
// computer-only games advance one move per command
func (s *Session) playComputer() error {
	if s.Game != nil && s.Game.State == core.StateOngoing.String() && computerOnMove(s.Game) {
		if err := s.requestComputerMove(); err != nil {
			return err
		}
	}
	if s.Game != nil && s.Game.State != core.StateOngoing.String() {
		s.printf(display.Yellow, "Game over: %s", s.Game.State)
	}
	return nil
}

func computerOnMove(g *core.GameResponse) bool {
	p := g.Players.White
	if g.Turn == core.ColorBlack.String() {
		p = g.Players.Black
	}
	return p != nil && p.Type == core.PlayerComputer
}

// requestComputerMove submits the computer's move and waits for it to land
func (s *Session) requestComputerMove() error {
	before := s.LastMoveCount

	resp, pending, err := s.Client.MakeMove(s.CurrentGame, computerMove)
	if err != nil {
		return err
	}
	if pending {
		s.printf(display.Magenta, "Computer is thinking...")
		if resp, err = s.Client.WaitGame(s.CurrentGame, before); err != nil {
			return err
		}
	}
	s.setGame(resp)

	if len(resp.Moves) == before {
		return fmt.Errorf("computer move still pending, use 'poll'")
	}
	s.printf(display.Magenta, "Computer played: %s", describeMove(resp.LastMove))
	return nil
}

func describeMove(m *core.MoveInfo) string {
	if m == nil {
		return "-"
	}
	desc := m.Move
	if m.Captured != "" {
		desc += " captures " + m.Captured
	}
	if m.Promoted {
		desc += ", promotes"
	}
	return desc
}

func undoHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}

	count := 1
	if len(args) > 0 {
		var err error
		if count, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	resp, err := s.Client.UndoMoves(s.CurrentGame, count)
	if err != nil {
		return err
	}
	s.setGame(resp)
	s.printf(display.Green, "Undid %d move(s)", count)
	return nil
}

func showBoardHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}

	game, err := s.Client.GetGame(s.CurrentGame)
	if err != nil {
		return err
	}
	board, err := s.Client.GetBoard(s.CurrentGame)
	if err != nil {
		return err
	}
	s.setGame(game)

	fmt.Fprintln(s.Out)
	display.RenderBoard(s.Out, board.Board, s.Plain)

	fmt.Fprintf(s.Out, "\nPosition: %s\n", game.Position)
	status := fmt.Sprintf("Turn: %s | State: %s | Moves: %d | Score: %d-%d",
		display.TurnName(game.Turn), game.State, len(game.Moves), game.Score.White, game.Score.Black)
	if game.InCheck {
		status += " | Check"
	}
	fmt.Fprintln(s.Out, status)

	if len(game.Moves) > 0 {
		var sb strings.Builder
		for i, move := range game.Moves {
			if i%2 == 0 {
				fmt.Fprintf(&sb, " %d.", i/2+1)
			}
			sb.WriteString(" " + move)
		}
		fmt.Fprintf(s.Out, "History:%s\n", sb.String())
	}
	if game.LastMove != nil {
		fmt.Fprintf(s.Out, "Last move: %s by %s\n",
			describeMove(game.LastMove), display.TurnName(game.LastMove.PlayerColor))
	}
	return nil
}

func legalHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	from := ""
	if len(args) > 0 {
		from = args[0]
	}

	resp, err := s.Client.LegalMoves(s.CurrentGame, from)
	if err != nil {
		return err
	}
	if len(resp.Moves) == 0 {
		fmt.Fprintln(s.Out, "No legal moves")
		return nil
	}
	fmt.Fprintf(s.Out, "%d legal move(s): %s\n", len(resp.Moves), strings.Join(resp.Moves, " "))
	return nil
}

func saveHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	if err := s.Client.SaveGame(s.CurrentGame); err != nil {
		return err
	}
	s.printf(display.Green, "Game saved: %s", s.CurrentGame)
	return nil
}

func restoreHandler(s *Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: restore <gameId>")
	}
	resp, err := s.Client.RestoreGame(args[0])
	if err != nil {
		return err
	}
	s.setGame(resp)
	s.printf(display.Green, "Game restored: %s (%d moves)", resp.GameID, len(resp.Moves))
	return nil
}

func finishHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}
	result, err := s.Client.FinishGame(s.CurrentGame)
	if err != nil {
		return err
	}
	s.printf(display.Yellow, "Result: %s (white %d, black %d) after %d moves",
		result.Winner, result.WhiteScore, result.BlackScore, result.TotalMoves)
	return nil
}

func resultsHandler(s *Session, args []string) error {
	winner, limit := "", 0
	if len(args) > 0 {
		winner = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid limit: %s", args[1])
		}
		limit = n
	}

	results, err := s.Client.Results(winner, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(s.Out, "No results")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(s.Out, "%s  %-5s  %d-%d  %3d moves  %s\n",
			r.GameID, r.Winner, r.WhiteScore, r.BlackScore, r.TotalMoves,
			r.EndedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func deleteGameHandler(s *Session, args []string) error {
	gameID := s.CurrentGame
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.Client.DeleteGame(gameID); err != nil {
		return err
	}
	if gameID == s.CurrentGame {
		s.clearGame()
	}
	s.printf(display.Green, "Game deleted: %s", gameID)
	return nil
}

func pollHandler(s *Session, args []string) error {
	if s.CurrentGame == "" {
		return errNoGame
	}

	moveCount := s.LastMoveCount
	s.printf(display.Cyan, "Long-polling for updates (move count: %d)...", moveCount)

	resp, err := s.Client.WaitGame(s.CurrentGame, moveCount)
	if err != nil {
		return err
	}
	s.setGame(resp)

	if len(resp.Moves) != moveCount {
		s.printf(display.Green, "Game updated, last move: %s", describeMove(resp.LastMove))
	} else {
		s.printf(display.Yellow, "No updates (timeout)")
	}
	return nil
}
