package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

const gameColumns = `game_id, initial_position, current_position,
	white_player_id, white_type, black_player_id, black_type,
	white_score, black_score, state, start_time_utc, updated_at_utc`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (GameRecord, error) {
	var g GameRecord
	err := row.Scan(
		&g.GameID, &g.InitialPosition, &g.CurrentPosition,
		&g.WhitePlayerID, &g.WhiteType, &g.BlackPlayerID, &g.BlackType,
		&g.WhiteScore, &g.BlackScore, &g.State, &g.StartTimeUTC, &g.UpdatedAtUTC,
	)
	return g, err
}

// RecordNewGame asynchronously records a new game
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game record", func(tx *sql.Tx) error {
		query := `INSERT INTO games (` + gameColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.Exec(query,
			record.GameID, record.InitialPosition, record.CurrentPosition,
			record.WhitePlayerID, record.WhiteType, record.BlackPlayerID, record.BlackType,
			record.WhiteScore, record.BlackScore, record.State,
			record.StartTimeUTC, record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously appends a move and advances the game row
func (s *Store) RecordMove(record MoveRecord, state GameStateRecord) {
	s.enqueue("move record", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			game_id, move_number, move, captured, position_after, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query,
			record.GameID, record.MoveNumber, record.Move, record.Captured,
			record.PositionAfter, record.PlayerColor, record.MoveTimeUTC,
		); err != nil {
			return err
		}
		return updateState(tx, state)
	})
}

// DeleteUndoneMoves asynchronously drops moves past afterMoveNumber
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int, state GameStateRecord) {
	s.enqueue("undo operation", func(tx *sql.Tx) error {
		query := `DELETE FROM moves WHERE game_id = ? AND move_number > ?`
		if _, err := tx.Exec(query, gameID, afterMoveNumber); err != nil {
			return err
		}
		return updateState(tx, state)
	})
}

// UpdatePlayers asynchronously rewrites the player columns
func (s *Store) UpdatePlayers(record GameRecord) {
	s.enqueue("player update", func(tx *sql.Tx) error {
		query := `UPDATE games SET white_player_id = ?, white_type = ?, black_player_id = ?, black_type = ?
			WHERE game_id = ?`
		_, err := tx.Exec(query,
			record.WhitePlayerID, record.WhiteType, record.BlackPlayerID, record.BlackType, record.GameID)
		return err
	})
}

func updateState(tx *sql.Tx, st GameStateRecord) error {
	query := `UPDATE games SET current_position = ?, white_score = ?, black_score = ?, state = ?, updated_at_utc = ?
		WHERE game_id = ?`
	_, err := tx.Exec(query, st.CurrentPosition, st.WhiteScore, st.BlackScore, st.State, st.UpdatedAtUTC, st.GameID)
	return err
}

// SaveGameState synchronously writes the current position, scores and state
func (s *Store) SaveGameState(st GameStateRecord) error {
	query := `UPDATE games SET current_position = ?, white_score = ?, black_score = ?, state = ?, updated_at_utc = ?
		WHERE game_id = ?`
	res, err := s.db.Exec(query, st.CurrentPosition, st.WhiteScore, st.BlackScore, st.State, st.UpdatedAtUTC, st.GameID)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", st.GameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, st.GameID)
	}
	return nil
}

// LoadGame reads a game row and its moves in order
func (s *Store) LoadGame(gameID string) (*GameRecord, []MoveRecord, error) {
	row := s.db.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game_id = ?`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	moves, err := s.LoadMoves(gameID)
	if err != nil {
		return nil, nil, err
	}
	return &g, moves, nil
}

// LoadMoves returns a game's moves ordered by move number
func (s *Store) LoadMoves(gameID string) ([]MoveRecord, error) {
	query := `SELECT move_id, game_id, move_number, move, captured, position_after, player_color, move_time_utc
		FROM moves WHERE game_id = ? ORDER BY move_number`
	rows, err := s.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber, &m.Move, &m.Captured,
			&m.PositionAfter, &m.PlayerColor, &m.MoveTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}

// DeleteGame synchronously removes a game and its moves
func (s *Store) DeleteGame(gameID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM moves WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("failed to delete moves: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM games WHERE game_id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return tx.Commit()
}

// QueryGames retrieves games with optional filtering, "" or "*" match all
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE 1=1`
	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	if playerID != "" && playerID != "*" {
		query += " AND (white_player_id = ? OR black_player_id = ?)"
		args = append(args, playerID, playerID)
	}

	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}
