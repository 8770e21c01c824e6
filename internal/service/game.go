package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chessboard/internal/core"
	"chessboard/internal/game"
	"chessboard/internal/opponent"
	"chessboard/internal/piece"
	"chessboard/internal/position"
	"chessboard/internal/storage"

	"github.com/google/uuid"
)

var ErrTooManyComputerGames = errors.New("computer game limit reached")

// View is a copy of a game's public state taken under the service lock
type View struct {
	GameID     string
	Position   string
	Turn       core.Color
	State      core.State
	InCheck    bool
	Moves      []string
	History    []game.HistoryEntry
	White      core.Player
	Black      core.Player
	Score      game.Score
	LastResult *game.MoveResult
}

// NextPlayer is the player whose turn it is
func (v *View) NextPlayer() core.Player {
	if v.Turn == core.ColorWhite {
		return v.White
	}
	return v.Black
}

func hasComputer(white, black *core.Player) bool {
	return white.Type == core.PlayerComputer || black.Type == core.PlayerComputer
}

// CreateGame registers a new game from position ("" for the standard setup)
// and returns its ID
func (s *Service) CreateGame(white, black *core.Player, pos string) (string, error) {
	g, err := game.New(pos, white, black)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	if hasComputer(white, black) && !s.reserveComputerGame() {
		return "", ErrTooManyComputerGames
	}

	gameID := uuid.New().String()

	s.mu.Lock()
	s.games[gameID] = g
	s.mu.Unlock()

	if s.store != nil {
		s.store.RecordNewGame(gameRecord(gameID, g))
	}

	return gameID, nil
}

// View returns a snapshot of the game
func (s *Service) View(gameID string) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return viewOf(gameID, g), nil
}

func viewOf(gameID string, g *game.Game) *View {
	v := &View{
		GameID:   gameID,
		Position: g.CurrentPosition(),
		Turn:     g.NextTurnColor(),
		State:    g.State(),
		InCheck:  g.InCheck(),
		Moves:    g.Moves(),
		History:  g.History(),
		White:    *g.GetPlayer(core.ColorWhite),
		Black:    *g.GetPlayer(core.ColorBlack),
		Score:    g.Score(),
	}
	if r := g.LastResult(); r != nil {
		last := *r
		v.LastResult = &last
	}
	return v
}

// Board returns the position record and an ASCII diagram
func (s *Service) Board(gameID string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g.CurrentPosition(), position.ASCII(g.Board()), nil
}

// UpdatePlayers swaps both players of a game
func (s *Service) UpdatePlayers(gameID string, white, black *core.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State() == core.StatePending {
		return ErrComputerThinking
	}

	before := hasComputer(g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack))
	after := hasComputer(white, black)
	switch {
	case after && !before:
		if !s.reserveComputerGame() {
			return ErrTooManyComputerGames
		}
	case before && !after:
		s.computerGames.Add(-1)
	}

	g.UpdatePlayers(white, black)

	if s.store != nil {
		s.store.UpdatePlayers(gameRecord(gameID, g))
	}
	s.waiter.Broadcast(gameID)
	return nil
}

// ApplyMove plays m on behalf of a player of type by. The move is refused
// unless that kind of player is on move.
func (s *Service) ApplyMove(gameID string, m core.Move, by core.PlayerType) (*game.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if by == core.PlayerHuman && g.State() == core.StatePending {
		return nil, ErrComputerThinking
	}
	if g.NextPlayer().Type != by {
		return nil, ErrNotPlayersTurn
	}

	return s.playLocked(gameID, g, m)
}

// MakeComputerMove lets opp choose and play a move synchronously
func (s *Service) MakeComputerMove(gameID string, opp *opponent.Greedy) (*game.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State().IsOver() {
		return nil, fmt.Errorf("%w: %s", game.ErrGameOver, g.State())
	}
	if g.NextPlayer().Type != core.PlayerComputer {
		return nil, ErrNotPlayersTurn
	}

	m, found := opp.Choose(g.Board())
	if !found {
		return nil, fmt.Errorf("%w: no legal moves", game.ErrGameOver)
	}
	return s.playLocked(gameID, g, m)
}

// BeginComputerMove marks the game pending and returns the position the
// computer has to answer
func (s *Service) BeginComputerMove(gameID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	switch {
	case g.State() == core.StatePending:
		return "", ErrComputerThinking
	case g.State().IsOver():
		return "", fmt.Errorf("%w: %s", game.ErrGameOver, g.State())
	case g.NextPlayer().Type != core.PlayerComputer:
		return "", ErrNotPlayersTurn
	}

	g.SetState(core.StatePending)
	s.waiter.Broadcast(gameID)
	return g.CurrentPosition(), nil
}

// CompleteComputerMove plays the move chosen for a pending game
func (s *Service) CompleteComputerMove(gameID string, m core.Move) (*game.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State() != core.StatePending {
		return nil, fmt.Errorf("game %s is not waiting for a computer move", gameID)
	}
	res, err := s.playLocked(gameID, g, m)
	if err != nil {
		g.SetState(core.StateOngoing)
		s.waiter.Broadcast(gameID)
	}
	return res, err
}

// AbortComputerMove returns a pending game to ongoing
func (s *Service) AbortComputerMove(gameID string, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok || g.State() != core.StatePending {
		return
	}
	log.Printf("Computer move for game %s abandoned: %v", gameID, reason)
	g.SetState(core.StateOngoing)
	s.waiter.Broadcast(gameID)
}

// playLocked must be called with mu held
func (s *Service) playLocked(gameID string, g *game.Game, m core.Move) (*game.MoveResult, error) {
	res, err := g.Move(m)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		h := g.History()
		last := h[len(h)-1]
		captured := ""
		if last.Captured != piece.None {
			captured = last.Captured.String()
		}
		s.store.RecordMove(storage.MoveRecord{
			GameID:        gameID,
			MoveNumber:    len(h),
			Move:          last.Move.String(),
			Captured:      captured,
			PositionAfter: g.CurrentPosition(),
			PlayerColor:   last.PlayerColor.String(),
			MoveTimeUTC:   time.Now().UTC(),
		}, stateRecord(gameID, g))
	}

	s.waiter.NotifyGame(gameID, len(g.Moves()))
	return res, nil
}

// UndoMoves takes back count plies
func (s *Service) UndoMoves(gameID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State() == core.StatePending {
		return ErrComputerThinking
	}

	if err := g.UndoMoves(count); err != nil {
		return err
	}

	if s.store != nil {
		s.store.DeleteUndoneMoves(gameID, len(g.Moves()), stateRecord(gameID, g))
	}
	s.waiter.Broadcast(gameID)
	return nil
}

// LegalMoves lists legal moves for the side to move, restricted to one
// origin when from is set. An origin holding the waiting side's piece, or
// nothing, yields no moves.
func (s *Service) LegalMoves(gameID string, from *core.Square) ([]core.Move, error) {
	// Write lock: legality checks simulate moves on the live board
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State().IsOver() {
		return nil, nil
	}

	b := g.Board()
	if from != nil {
		if p, ok := b.Piece(*from); !ok || p.Color != b.Turn() {
			return nil, nil
		}
		return b.LegalMovesFrom(*from), nil
	}
	return b.LegalMoves(b.Turn()), nil
}

// DeleteGame drops a game from memory and from storage
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	g, live := s.games[gameID]
	if live {
		if g.State() == core.StatePending {
			s.mu.Unlock()
			return ErrComputerThinking
		}
		delete(s.games, gameID)
		if hasComputer(g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack)) {
			s.computerGames.Add(-1)
		}
	}
	s.mu.Unlock()

	if live {
		s.waiter.RemoveGame(gameID)
	}

	if s.store == nil {
		if !live {
			return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
		}
		return nil
	}

	if err := s.flush(); err != nil {
		log.Printf("Delete of game %s: storage flush failed: %v", gameID, err)
	}
	err := s.store.DeleteGame(gameID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrGameNotFound):
		if live {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	default:
		return err
	}
}

// SaveGame writes the game's current position, scores and state
func (s *Service) SaveGame(gameID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}

	s.mu.RLock()
	g, ok := s.games[gameID]
	var st storage.GameStateRecord
	if ok {
		st = stateRecord(gameID, g)
	}
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	if err := s.flush(); err != nil {
		return fmt.Errorf("failed to flush pending writes: %w", err)
	}
	return s.store.SaveGameState(st)
}

// RestoreGame loads a saved game into memory. Moves are replayed from the
// initial position; if the log cannot be replayed the saved current
// position is used without history.
func (s *Service) RestoreGame(gameID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}

	s.mu.RLock()
	_, live := s.games[gameID]
	s.mu.RUnlock()
	if live {
		return nil
	}

	if err := s.flush(); err != nil {
		log.Printf("Restore of game %s: storage flush failed: %v", gameID, err)
	}
	rec, moves, err := s.store.LoadGame(gameID)
	if errors.Is(err, storage.ErrGameNotFound) {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return err
	}

	white := &core.Player{ID: rec.WhitePlayerID, Color: core.ColorWhite, Type: core.PlayerType(rec.WhiteType)}
	black := &core.Player{ID: rec.BlackPlayerID, Color: core.ColorBlack, Type: core.PlayerType(rec.BlackType)}

	g, err := replay(rec, moves, white, black)
	if err != nil {
		log.Printf("Restore of game %s: replay failed, using saved position: %v", gameID, err)
		score := game.Score{White: rec.WhiteScore, Black: rec.BlackScore}
		if g, err = game.NewWithScore(rec.CurrentPosition, white, black, score); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
	}
	if saved := core.State(rec.State); saved.IsOver() && g.State() != saved {
		g.SetState(saved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; ok {
		return nil
	}
	s.games[gameID] = g
	if hasComputer(white, black) {
		s.computerGames.Add(1)
	}
	return nil
}

func replay(rec *storage.GameRecord, moves []storage.MoveRecord, white, black *core.Player) (*game.Game, error) {
	g, err := game.New(rec.InitialPosition, white, black)
	if err != nil {
		return nil, err
	}
	for _, mr := range moves {
		m, err := core.ParseMove(mr.Move)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mr.MoveNumber, err)
		}
		if _, err := g.Move(m); err != nil {
			return nil, fmt.Errorf("move %d %s: %w", mr.MoveNumber, mr.Move, err)
		}
	}
	if g.CurrentPosition() != rec.CurrentPosition {
		return nil, fmt.Errorf("replayed position %q differs from saved %q", g.CurrentPosition(), rec.CurrentPosition)
	}
	return g, nil
}

// SavedGames lists games held in storage, newest first
func (s *Service) SavedGames() ([]storage.GameRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if err := s.flush(); err != nil {
		log.Printf("Listing saved games: storage flush failed: %v", err)
	}
	return s.store.QueryGames("", "")
}

// FinishGame ends the game and records it on the scoreboard. An ongoing
// game is decided on material.
func (s *Service) FinishGame(gameID string) (*core.ResultResponse, error) {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if g.State() == core.StatePending {
		s.mu.Unlock()
		return nil, ErrComputerThinking
	}

	state := g.Finish()
	score := g.Score()
	moves := g.Moves()
	st := stateRecord(gameID, g)
	s.mu.Unlock()

	s.waiter.Broadcast(gameID)

	result := &core.ResultResponse{
		GameID:     gameID,
		Winner:     WinnerName(state),
		WhiteScore: score.White,
		BlackScore: score.Black,
		TotalMoves: len(moves),
		EndedAt:    time.Now().UTC(),
	}

	if s.store == nil {
		return result, nil
	}

	if err := s.flush(); err != nil {
		log.Printf("Finish of game %s: storage flush failed: %v", gameID, err)
	}
	if err := s.store.SaveGameState(st); err != nil {
		log.Printf("Finish of game %s: failed to save final state: %v", gameID, err)
	}
	if err := s.store.RecordResult(storage.ResultRecord{
		GameID:     result.GameID,
		Winner:     result.Winner,
		WhiteScore: result.WhiteScore,
		BlackScore: result.BlackScore,
		TotalMoves: result.TotalMoves,
		Moves:      strings.Join(moves, " "),
		EndedAtUTC: result.EndedAt,
	}); err != nil {
		return result, err
	}
	return result, nil
}

// Results returns scoreboard entries, newest first
func (s *Service) Results(winner string, limit int) ([]core.ResultResponse, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	records, err := s.store.QueryResults(winner, limit)
	if err != nil {
		return nil, err
	}

	results := make([]core.ResultResponse, 0, len(records))
	for _, r := range records {
		results = append(results, core.ResultResponse{
			GameID:     r.GameID,
			Winner:     r.Winner,
			WhiteScore: r.WhiteScore,
			BlackScore: r.BlackScore,
			TotalMoves: r.TotalMoves,
			EndedAt:    r.EndedAtUTC,
		})
	}
	return results, nil
}

func (s *Service) DeleteResult(gameID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.DeleteResult(gameID)
}

// WinnerName maps a finished state to "white", "black" or "draw"
func WinnerName(state core.State) string {
	switch state {
	case core.StateWhiteWins:
		return core.ColorWhite.Name()
	case core.StateBlackWins:
		return core.ColorBlack.Name()
	default:
		return "draw"
	}
}

func gameRecord(gameID string, g *game.Game) storage.GameRecord {
	white, black := g.GetPlayer(core.ColorWhite), g.GetPlayer(core.ColorBlack)
	now := time.Now().UTC()
	score := g.Score()
	return storage.GameRecord{
		GameID:          gameID,
		InitialPosition: g.InitialPosition(),
		CurrentPosition: g.CurrentPosition(),
		WhitePlayerID:   white.ID,
		WhiteType:       int(white.Type),
		BlackPlayerID:   black.ID,
		BlackType:       int(black.Type),
		WhiteScore:      score.White,
		BlackScore:      score.Black,
		State:           int(persistedState(g.State())),
		StartTimeUTC:    now,
		UpdatedAtUTC:    now,
	}
}

func stateRecord(gameID string, g *game.Game) storage.GameStateRecord {
	score := g.Score()
	return storage.GameStateRecord{
		GameID:          gameID,
		CurrentPosition: g.CurrentPosition(),
		WhiteScore:      score.White,
		BlackScore:      score.Black,
		State:           int(persistedState(g.State())),
		UpdatedAtUTC:    time.Now().UTC(),
	}
}

// persistedState never stores pending, a restored game has no computer
// search running
func persistedState(st core.State) core.State {
	if st == core.StatePending {
		return core.StateOngoing
	}
	return st
}
