package storage

import (
	"fmt"
	"strings"
)

// RecordResult inserts a scoreboard entry, replacing any earlier entry for
// the same game
func (s *Store) RecordResult(r ResultRecord) error {
	query := `INSERT OR REPLACE INTO results (
		game_id, winner, white_score, black_score, total_moves, moves, ended_at_utc
	) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, r.GameID, r.Winner, r.WhiteScore, r.BlackScore, r.TotalMoves, r.Moves, r.EndedAtUTC)
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", r.GameID, err)
	}
	return nil
}

// UpdateResult overwrites an existing entry
func (s *Store) UpdateResult(r ResultRecord) error {
	query := `UPDATE results SET winner = ?, white_score = ?, black_score = ?, total_moves = ?, moves = ?, ended_at_utc = ?
		WHERE game_id = ?`
	res, err := s.db.Exec(query, r.Winner, r.WhiteScore, r.BlackScore, r.TotalMoves, r.Moves, r.EndedAtUTC, r.GameID)
	if err != nil {
		return fmt.Errorf("failed to update result for %s: %w", r.GameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrResultNotFound, r.GameID)
	}
	return nil
}

func (s *Store) DeleteResult(gameID string) error {
	res, err := s.db.Exec(`DELETE FROM results WHERE game_id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete result for %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrResultNotFound, gameID)
	}
	return nil
}

// QueryResults lists entries newest first. winner filters when set, limit
// caps the count when positive.
func (s *Store) QueryResults(winner string, limit int) ([]ResultRecord, error) {
	query := `SELECT game_id, winner, white_score, black_score, total_moves, moves, ended_at_utc
		FROM results WHERE 1=1`
	var args []any

	if winner != "" && winner != "*" {
		query += " AND winner = ?"
		args = append(args, strings.ToLower(winner))
	}
	query += " ORDER BY ended_at_utc DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []ResultRecord
	for rows.Next() {
		var r ResultRecord
		if err := rows.Scan(&r.GameID, &r.Winner, &r.WhiteScore, &r.BlackScore, &r.TotalMoves, &r.Moves, &r.EndedAtUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return results, nil
}
