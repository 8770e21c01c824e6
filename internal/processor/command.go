package processor

import (
	"chessboard/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdConfigurePlayers
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdUndoMove
	CmdGetBoard
	CmdLegalMoves
	CmdSaveGame
	CmdRestoreGame
	CmdFinishGame
	CmdGetResults
	CmdDeleteResult
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ResultsQuery filters the scoreboard; Winner "" matches all
type ResultsQuery struct {
	Winner string
	Limit  int
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // Computer move queued
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(userID string, req core.CreateGameRequest) Command {
	return Command{
		Type:   CmdCreateGame,
		UserID: userID,
		Args:   req,
	}
}

func NewConfigurePlayersCommand(gameID string, req core.ConfigurePlayersRequest) Command {
	return Command{
		Type:   CmdConfigurePlayers,
		GameID: gameID,
		Args:   req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMakeMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{
		Type:   CmdUndoMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

// NewLegalMovesCommand lists moves from one square, or all moves when from is ""
func NewLegalMovesCommand(gameID, from string) Command {
	return Command{
		Type:   CmdLegalMoves,
		GameID: gameID,
		Args:   from,
	}
}

func NewSaveGameCommand(gameID string) Command {
	return Command{
		Type:   CmdSaveGame,
		GameID: gameID,
	}
}

func NewRestoreGameCommand(gameID string) Command {
	return Command{
		Type:   CmdRestoreGame,
		GameID: gameID,
	}
}

func NewFinishGameCommand(gameID string) Command {
	return Command{
		Type:   CmdFinishGame,
		GameID: gameID,
	}
}

func NewGetResultsCommand(q ResultsQuery) Command {
	return Command{
		Type: CmdGetResults,
		Args: q,
	}
}

func NewDeleteResultCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteResult,
		GameID: gameID,
	}
}
