// Package transport declares what an interactive front-end must provide so
// a game loop can drive it without knowing how it draws or reads.
package transport

import (
	"chessboard/internal/board"
	"chessboard/internal/cli"
	"chessboard/internal/core"
	"chessboard/internal/game"
	"chessboard/internal/service"
	"chessboard/internal/storage"
)

// View abstracts command input and display output
type View interface {
	GetCommand() (*cli.Command, error)
	SetPrompt(prompt string)
	SetTheme(theme cli.ColorTheme) error
	ToggleVerbose() bool

	DisplayBoard(b *board.Board)
	ShowMessage(msg string)
	ShowError(err error)
	ShowHelp()
	ShowGameHistory(v *service.View)
	ShowMove(who string, result *game.MoveResult)
	ShowLegalMoves(from string, moves []core.Move)
	ShowSavedGames(games []storage.GameRecord)
	ShowScores(results []core.ResultResponse)
	ShowResult(r *core.ResultResponse)
	ShowGameOver(state core.State)
}

var _ View = (*cli.CLI)(nil)
