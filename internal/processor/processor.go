// Package processor turns transport-level commands into service calls and
// shapes the responses every front-end shares.
package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/game"
	"chessboard/internal/piece"
	"chessboard/internal/service"
	"chessboard/internal/storage"
)

// computerMoveToken in a move request asks the computer to play
const computerMoveToken = "cccc"

// Config controls the computer move worker pool
type Config struct {
	Workers int
	Seed    uint64 // 0 seeds each worker from the clock
}

// Processor handles command execution and coordinates the service and the
// computer move queue
type Processor struct {
	svc   *service.Service
	queue *MoveQueue
}

func New(svc *service.Service, cfg Config) *Processor {
	return &Processor{
		svc:   svc,
		queue: NewMoveQueue(cfg.Workers, cfg.Seed),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	case CmdSaveGame:
		return p.handleSaveGame(cmd)
	case CmdRestoreGame:
		return p.handleRestoreGame(cmd)
	case CmdFinishGame:
		return p.handleFinishGame(cmd)
	case CmdGetResults:
		return p.handleGetResults(cmd)
	case CmdDeleteResult:
		return p.handleDeleteResult(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// handleCreateGame creates a new game; authenticated users own its human seats
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	if args.White.Type == core.PlayerHuman && cmd.UserID != "" {
		whitePlayer.ID = cmd.UserID
	}
	if args.Black.Type == core.PlayerHuman && cmd.UserID != "" {
		blackPlayer.ID = cmd.UserID
	}

	gameID, err := p.svc.CreateGame(whitePlayer, blackPlayer, strings.TrimSpace(args.Position))
	if err != nil {
		return p.serviceError(err)
	}

	return p.gameResponse(gameID)
}

// handleConfigurePlayers swaps player types mid-game
func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	if err := p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer); err != nil {
		return p.serviceError(err)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

// handleMakeMove plays a human move, or queues a computer move for "cccc"
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	move := strings.ToLower(strings.TrimSpace(args.Move))
	if move == computerMoveToken {
		return p.triggerComputerMove(cmd.GameID)
	}

	m, err := core.ParseMove(move)
	if err != nil {
		return p.errorDetails("invalid move format", core.ErrInvalidMove, err.Error())
	}

	if _, err = p.svc.ApplyMove(cmd.GameID, m, core.PlayerHuman); err != nil {
		return p.serviceError(err)
	}

	return p.gameResponse(cmd.GameID)
}

// handleUndoMove reverts Count plies (default one)
func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	if err := p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		if resp, known := p.knownError(err); known {
			return resp
		}
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
	}
}

// handleGetBoard returns board visualization
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	pos, ascii, err := p.svc.Board(cmd.GameID)
	if err != nil {
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			Position: pos,
			Board:    ascii,
		},
	}
}

func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	from, _ := cmd.Args.(string)
	from = strings.ToLower(strings.TrimSpace(from))

	var origin *core.Square
	if from != "" {
		sq, err := core.ParseSquare(from)
		if err != nil {
			return p.errorDetails("invalid square", core.ErrInvalidRequest, err.Error())
		}
		origin = &sq
	}

	moves, err := p.svc.LegalMoves(cmd.GameID, origin)
	if err != nil {
		return p.serviceError(err)
	}

	resp := core.LegalMovesResponse{
		From:  from,
		Moves: make([]string, 0, len(moves)),
	}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, m.String())
	}

	return ProcessorResponse{
		Success: true,
		Data:    resp,
	}
}

func (p *Processor) handleSaveGame(cmd Command) ProcessorResponse {
	if err := p.svc.SaveGame(cmd.GameID); err != nil {
		return p.serviceError(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleRestoreGame(cmd Command) ProcessorResponse {
	if err := p.svc.RestoreGame(cmd.GameID); err != nil {
		return p.serviceError(err)
	}
	return p.gameResponse(cmd.GameID)
}

// handleFinishGame ends the game and records it on the scoreboard
func (p *Processor) handleFinishGame(cmd Command) ProcessorResponse {
	result, err := p.svc.FinishGame(cmd.GameID)
	if err != nil && result == nil {
		return p.serviceError(err)
	}
	if err != nil {
		log.Printf("Game %s finished but result not recorded: %v", cmd.GameID, err)
	}

	return ProcessorResponse{
		Success: true,
		Data:    result,
	}
}

func (p *Processor) handleGetResults(cmd Command) ProcessorResponse {
	q, _ := cmd.Args.(ResultsQuery)

	results, err := p.svc.Results(q.Winner, q.Limit)
	if err != nil {
		return p.serviceError(err)
	}
	if results == nil {
		results = []core.ResultResponse{}
	}

	return ProcessorResponse{
		Success: true,
		Data:    results,
	}
}

func (p *Processor) handleDeleteResult(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteResult(cmd.GameID); err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{
		Success: true,
	}
}

// triggerComputerMove marks the game pending and hands the position to the
// queue; the worker's answer is applied from the callback
func (p *Processor) triggerComputerMove(gameID string) ProcessorResponse {
	pos, err := p.svc.BeginComputerMove(gameID)
	if err != nil {
		return p.serviceError(err)
	}

	v, err := p.svc.View(gameID)
	if err != nil {
		return p.serviceError(err)
	}
	response := buildGameResponse(v)
	response.LastMove = &core.MoveInfo{
		PlayerColor: v.Turn.String(),
	}

	err = p.queue.SubmitAsync(gameID, pos, func(result MoveResult) {
		if result.Error != nil {
			p.svc.AbortComputerMove(gameID, result.Error)
			return
		}
		if _, err := p.svc.CompleteComputerMove(gameID, result.Move); err != nil {
			log.Printf("Computer move %s rejected for game %s: %v", result.Move, gameID, err)
		}
	})
	if err != nil {
		p.svc.AbortComputerMove(gameID, err)
		return p.serviceError(err)
	}

	return ProcessorResponse{
		Success: true,
		Pending: true,
		Data:    response,
	}
}

func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	v, err := p.svc.View(gameID)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{
		Success: true,
		Data:    buildGameResponse(v),
	}
}

// buildGameResponse constructs standard game response
func buildGameResponse(v *service.View) core.GameResponse {
	white, black := v.White, v.Black
	resp := core.GameResponse{
		GameID:   v.GameID,
		Position: v.Position,
		Turn:     v.Turn.String(),
		State:    v.State.String(),
		InCheck:  v.InCheck,
		Moves:    v.Moves,
		Players: core.PlayersResponse{
			White: &white,
			Black: &black,
		},
		Score: core.ScoreResponse{
			White: v.Score.White,
			Black: v.Score.Black,
		},
	}
	if resp.Moves == nil {
		resp.Moves = []string{}
	}

	if r := v.LastResult; r != nil {
		resp.LastMove = &core.MoveInfo{
			Move:        r.Move,
			PlayerColor: r.PlayerColor.String(),
			Promoted:    r.Promoted,
		}
		if r.Captured != piece.None {
			resp.LastMove.Captured = r.Captured.String()
		}
	}

	return resp
}

// serviceError maps a service or rule error onto an API error code
func (p *Processor) serviceError(err error) ProcessorResponse {
	if resp, known := p.knownError(err); known {
		return resp
	}
	log.Printf("Unexpected processor error: %v", err)
	return p.errorResponse("internal error", core.ErrInternalError)
}

func (p *Processor) knownError(err error) (ProcessorResponse, bool) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return p.errorResponse("game not found", core.ErrGameNotFound), true
	case errors.Is(err, storage.ErrResultNotFound):
		return p.errorResponse("result not found", core.ErrGameNotFound), true
	case errors.Is(err, game.ErrGameOver):
		return p.errorDetails("game is over", core.ErrGameOver, err.Error()), true
	case errors.Is(err, service.ErrNotPlayersTurn):
		return p.errorResponse("not this player's turn", core.ErrNotHumanTurn), true
	case errors.Is(err, service.ErrComputerThinking):
		return p.errorResponse("computer move in progress", core.ErrInvalidRequest), true
	case errors.Is(err, service.ErrInvalidPosition):
		return p.errorDetails("invalid position", core.ErrInvalidPosition, err.Error()), true
	case errors.Is(err, service.ErrStorageDisabled):
		return p.errorResponse("storage is disabled", core.ErrStorageDisabled), true
	case errors.Is(err, service.ErrTooManyComputerGames), errors.Is(err, ErrQueueFull):
		return p.errorResponse(err.Error(), core.ErrResourceLimit), true
	case errors.Is(err, ErrQueueShutdown):
		return p.errorResponse(err.Error(), core.ErrInternalError), true
	case errors.Is(err, board.ErrOffBoard), errors.Is(err, board.ErrNoPiece),
		errors.Is(err, board.ErrWrongTurn), errors.Is(err, board.ErrIllegalMove),
		errors.Is(err, board.ErrSelfCheck):
		return p.errorDetails("illegal move", core.ErrInvalidMove, err.Error()), true
	}
	return ProcessorResponse{}, false
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return p.errorDetails(message, code, "")
}

func (p *Processor) errorDetails(message, code, details string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error:   message,
			Code:    code,
			Details: details,
		},
	}
}

// Close stops the computer move workers
func (p *Processor) Close() error {
	if err := p.queue.Shutdown(5 * time.Second); err != nil {
		return fmt.Errorf("move queue: %w", err)
	}
	return nil
}
