package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chessboard/internal/cli"
	"chessboard/internal/core"
	"chessboard/internal/opponent"
	"chessboard/internal/position"
	"chessboard/internal/service"
	"chessboard/internal/transport"
)

const scoreboardSize = 20

// CLIHandler runs one terminal session: a human, usually White, against
// the greedy computer
type CLIHandler struct {
	svc    *service.Service
	view   transport.View
	opp    *opponent.Greedy
	gameID string
}

func New(svc *service.Service, view transport.View, opp *opponent.Greedy) *CLIHandler {
	return &CLIHandler{
		svc:  svc,
		view: view,
		opp:  opp,
	}
}

// Run processes commands until quit or end of input
func (h *CLIHandler) Run() error {
	for {
		h.view.SetPrompt(h.prompt())

		cmd, err := h.view.GetCommand()
		if err != nil {
			h.leaveGame()
			return err
		}

		if !h.ProcessCommand(cmd) {
			return nil
		}
	}
}

// GameID is the game in progress, "" when none
func (h *CLIHandler) GameID() string {
	return h.gameID
}

func (h *CLIHandler) prompt() string {
	if h.gameID == "" {
		return "> "
	}
	v, err := h.svc.View(h.gameID)
	if err != nil || v.State != core.StateOngoing {
		return "> "
	}
	prompt := fmt.Sprintf("[%s]> ", v.Turn)
	if v.NextPlayer().Type == core.PlayerComputer {
		prompt = "ENTER for the computer's move\n" + prompt
	}
	return prompt
}

// ProcessCommand handles one command; it returns false to exit
func (h *CLIHandler) ProcessCommand(cmd *cli.Command) bool {
	switch cmd.Type {
	case cli.CmdQuit:
		h.leaveGame()
		return false

	case cli.CmdNone:
		h.computerMoves()

	case cli.CmdNew:
		black := core.PlayerComputer
		if len(cmd.Args) > 0 && strings.HasPrefix(strings.ToLower(cmd.Args[0]), "h") {
			black = core.PlayerHuman
		}
		h.startGame("", black)

	case cli.CmdResume:
		if len(cmd.Args) == 0 {
			h.view.ShowMessage("Usage: resume <position>")
			return true
		}
		h.startGame(strings.Join(cmd.Args, " "), core.PlayerComputer)

	case cli.CmdMove:
		h.humanMove(cmd.Args[0])

	case cli.CmdUndo:
		h.undo(cmd.Args)

	case cli.CmdMoves:
		h.legalMoves(cmd.Args)

	case cli.CmdSave:
		if !h.requireGame() {
			return true
		}
		if err := h.svc.SaveGame(h.gameID); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Game saved. Resume it with 'load %s'.", h.gameID))

	case cli.CmdLoad:
		if len(cmd.Args) == 0 {
			h.view.ShowMessage("Usage: load <game id>")
			return true
		}
		h.load(cmd.Args[0])

	case cli.CmdDelete:
		id := h.gameID
		if len(cmd.Args) > 0 {
			id = cmd.Args[0]
		}
		if id == "" {
			h.view.ShowMessage("Usage: delete <game id>")
			return true
		}
		if err := h.svc.DeleteGame(id); err != nil {
			h.view.ShowError(err)
			return true
		}
		if id == h.gameID {
			h.gameID = ""
		}
		h.view.ShowMessage(fmt.Sprintf("Game %s deleted.", id))

	case cli.CmdGames:
		games, err := h.svc.SavedGames()
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowSavedGames(games)

	case cli.CmdScores:
		winner := ""
		if len(cmd.Args) > 0 {
			winner = strings.ToLower(cmd.Args[0])
		}
		results, err := h.svc.Results(winner, scoreboardSize)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowScores(results)

	case cli.CmdColor:
		if len(cmd.Args) == 0 {
			h.view.ShowMessage("Usage: color <off|brown|green|gray>")
			return true
		}
		theme := cli.ColorTheme(strings.ToLower(cmd.Args[0]))
		if err := h.view.SetTheme(theme); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		h.displayBoard()

	case cli.CmdVerbose:
		h.view.ShowMessage(fmt.Sprintf("Verbose mode: %t", h.view.ToggleVerbose()))

	case cli.CmdHistory:
		if !h.requireGame() {
			return true
		}
		v, err := h.svc.View(h.gameID)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowGameHistory(v)

	case cli.CmdHelp:
		h.view.ShowHelp()
	}

	return true
}

func (h *CLIHandler) requireGame() bool {
	if h.gameID == "" {
		h.view.ShowMessage("No active game. Use 'new', 'resume <position>' or 'load <id>'.")
		return false
	}
	return true
}

// startGame records the abandoned game, if any, and opens a new one with a
// human White
func (h *CLIHandler) startGame(pos string, black core.PlayerType) {
	h.leaveGame()

	white := core.NewPlayer(core.PlayerConfig{Type: core.PlayerHuman}, core.ColorWhite)
	blackPlayer := core.NewPlayer(core.PlayerConfig{Type: black}, core.ColorBlack)

	id, err := h.svc.CreateGame(white, blackPlayer, pos)
	if err != nil {
		h.view.ShowError(fmt.Errorf("could not start the game: %w", err))
		return
	}
	h.gameID = id

	h.view.ShowMessage("Game started.")
	h.displayBoard()
	if h.checkOver() {
		return
	}
	h.computerMoves()
}

func (h *CLIHandler) humanMove(text string) {
	if !h.requireGame() {
		return
	}

	m, err := core.ParseMove(text)
	if err != nil {
		h.view.ShowMessage(fmt.Sprintf("Unknown command or move %q. Type 'help' for commands.", text))
		return
	}

	result, err := h.svc.ApplyMove(h.gameID, m, core.PlayerHuman)
	if errors.Is(err, service.ErrNotPlayersTurn) {
		h.view.ShowMessage("It is the computer's turn. Press ENTER to let it move.")
		return
	}
	if err != nil {
		h.view.ShowError(fmt.Errorf("invalid move: %w", err))
		return
	}

	h.view.ShowMove("You", result)
	h.displayBoard()
	if h.checkOver() {
		return
	}
	h.computerMoves()
}

// computerMoves plays for the computer while it is on move
func (h *CLIHandler) computerMoves() {
	for h.gameID != "" {
		v, err := h.svc.View(h.gameID)
		if err != nil || v.State != core.StateOngoing || v.NextPlayer().Type != core.PlayerComputer {
			return
		}

		result, err := h.svc.MakeComputerMove(h.gameID, h.opp)
		if err != nil {
			h.view.ShowError(fmt.Errorf("computer move failed: %w", err))
			return
		}

		h.view.ShowMove("Computer", result)
		h.displayBoard()
		if h.checkOver() {
			return
		}
	}
}

// checkOver announces a decided game, records it and closes it
func (h *CLIHandler) checkOver() bool {
	v, err := h.svc.View(h.gameID)
	if err != nil || !v.State.IsOver() {
		return false
	}

	h.view.ShowGameOver(v.State)
	h.record()
	h.gameID = ""
	return true
}

// leaveGame records a game left unfinished with material on the board
// changed; untouched games are simply dropped
func (h *CLIHandler) leaveGame() {
	if h.gameID == "" {
		return
	}
	if v, err := h.svc.View(h.gameID); err == nil && !v.State.IsOver() && !v.Score.IsZero() {
		h.record()
	}
	h.gameID = ""
}

func (h *CLIHandler) record() {
	result, err := h.svc.FinishGame(h.gameID)
	if result != nil {
		h.view.ShowResult(result)
	}
	if err != nil {
		h.view.ShowError(fmt.Errorf("result not recorded: %w", err))
	}
}

func (h *CLIHandler) undo(args []string) {
	if !h.requireGame() {
		return
	}
	v, err := h.svc.View(h.gameID)
	if err != nil {
		h.view.ShowError(err)
		return
	}

	// Against the computer take back its reply too
	count := 1
	if v.NextPlayer().Type == core.PlayerHuman && len(v.Moves) >= 2 &&
		(v.White.Type == core.PlayerComputer || v.Black.Type == core.PlayerComputer) {
		count = 2
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			h.view.ShowMessage("Invalid undo count. Usage: undo [count]")
			return
		}
		count = n
	}

	if err := h.svc.UndoMoves(h.gameID, count); err != nil {
		h.view.ShowError(err)
		return
	}
	if count == 1 {
		h.view.ShowMessage("Move undone")
	} else {
		h.view.ShowMessage(fmt.Sprintf("%d moves undone", count))
	}
	h.displayBoard()
}

func (h *CLIHandler) legalMoves(args []string) {
	if !h.requireGame() {
		return
	}

	var (
		from   *core.Square
		origin string
	)
	if len(args) > 0 {
		sq, err := core.ParseSquare(args[0])
		if err != nil {
			h.view.ShowError(err)
			return
		}
		from, origin = &sq, sq.String()
	}

	moves, err := h.svc.LegalMoves(h.gameID, from)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.view.ShowLegalMoves(origin, moves)
}

func (h *CLIHandler) load(id string) {
	if id == h.gameID {
		h.view.ShowMessage("That game is already in progress.")
		return
	}
	if err := h.svc.RestoreGame(id); err != nil {
		h.view.ShowError(fmt.Errorf("could not load game: %w", err))
		return
	}
	h.leaveGame()
	h.gameID = id

	h.view.ShowMessage(fmt.Sprintf("Game %s loaded.", id))
	h.displayBoard()

	if v, err := h.svc.View(id); err == nil && v.State.IsOver() {
		h.view.ShowGameOver(v.State)
		h.gameID = ""
	}
}

func (h *CLIHandler) displayBoard() {
	if h.gameID == "" {
		return
	}
	pos, _, err := h.svc.Board(h.gameID)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	b, err := position.Decode(pos)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.view.DisplayBoard(b)
}
