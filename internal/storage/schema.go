package storage

import "time"

// UserRecord represents a user account in the database
type UserRecord struct {
	UserID       string     `db:"user_id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

// SessionRecord is one login; the token carries the session ID
type SessionRecord struct {
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID          string    `db:"game_id"`
	InitialPosition string    `db:"initial_position"`
	CurrentPosition string    `db:"current_position"`
	WhitePlayerID   string    `db:"white_player_id"`
	WhiteType       int       `db:"white_type"`
	BlackPlayerID   string    `db:"black_player_id"`
	BlackType       int       `db:"black_type"`
	WhiteScore      int       `db:"white_score"`
	BlackScore      int       `db:"black_score"`
	State           int       `db:"state"`
	StartTimeUTC    time.Time `db:"start_time_utc"`
	UpdatedAtUTC    time.Time `db:"updated_at_utc"`
}

// GameStateRecord is the mutable part of a games row
type GameStateRecord struct {
	GameID          string
	CurrentPosition string
	WhiteScore      int
	BlackScore      int
	State           int
	UpdatedAtUTC    time.Time
}

// MoveRecord represents a row in the moves table
type MoveRecord struct {
	MoveID        int64     `db:"move_id"`
	GameID        string    `db:"game_id"`
	MoveNumber    int       `db:"move_number"`
	Move          string    `db:"move"`
	Captured      string    `db:"captured"` // kind name, empty when nothing was taken
	PositionAfter string    `db:"position_after"`
	PlayerColor   string    `db:"player_color"`
	MoveTimeUTC   time.Time `db:"move_time_utc"`
}

// ResultRecord is one scoreboard entry for a finished game
type ResultRecord struct {
	GameID     string    `db:"game_id"`
	Winner     string    `db:"winner"` // "white", "black" or "draw"
	WhiteScore int       `db:"white_score"`
	BlackScore int       `db:"black_score"`
	TotalMoves int       `db:"total_moves"`
	Moves      string    `db:"moves"` // space separated coordinate moves
	EndedAtUTC time.Time `db:"ended_at_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	username TEXT UNIQUE NOT NULL COLLATE NOCASE,
	email TEXT COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_unique ON users(email) WHERE email IS NOT NULL AND email != '';

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	initial_position TEXT NOT NULL,
	current_position TEXT NOT NULL,
	white_player_id TEXT NOT NULL,
	white_type INTEGER NOT NULL,
	black_player_id TEXT NOT NULL,
	black_type INTEGER NOT NULL,
	white_score INTEGER NOT NULL DEFAULT 0,
	black_score INTEGER NOT NULL DEFAULT 0,
	state INTEGER NOT NULL DEFAULT 0,
	start_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	move TEXT NOT NULL,
	captured TEXT NOT NULL DEFAULT '',
	position_after TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_white_player ON games(white_player_id);
CREATE INDEX IF NOT EXISTS idx_games_black_player ON games(black_player_id);

CREATE TABLE IF NOT EXISTS results (
	game_id TEXT PRIMARY KEY,
	winner TEXT NOT NULL CHECK(winner IN ('white', 'black', 'draw')),
	white_score INTEGER NOT NULL,
	black_score INTEGER NOT NULL,
	total_moves INTEGER NOT NULL,
	moves TEXT NOT NULL DEFAULT '',
	ended_at_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_results_ended_at ON results(ended_at_utc);
`
