package core

import "time"

// Request types

type CreateGameRequest struct {
	White    PlayerConfig `json:"white" validate:"required"`
	Black    PlayerConfig `json:"black" validate:"required"`
	Position string       `json:"position,omitempty" validate:"omitempty,max=100"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=4,max=5"` // "cccc" asks the computer to move
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID   string          `json:"gameId"`
	Position string          `json:"position"`
	Turn     string          `json:"turn"`  // "w" or "b"
	State    string          `json:"state"` // "ongoing", "white wins", etc
	InCheck  bool            `json:"inCheck"`
	Moves    []string        `json:"moves"`
	Players  PlayersResponse `json:"players"`
	Score    ScoreResponse   `json:"score"`
	LastMove *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Captured    string `json:"captured,omitempty"`
	Promoted    bool   `json:"promoted,omitempty"`
}

type ScoreResponse struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type BoardResponse struct {
	Position string `json:"position"`
	Board    string `json:"board"` // ASCII representation
}

// LegalMovesResponse lists reachable destinations, optionally for one origin
type LegalMovesResponse struct {
	From  string   `json:"from,omitempty"`
	Moves []string `json:"moves"`
}

// ResultResponse is one finished game on the scoreboard
type ResultResponse struct {
	GameID     string    `json:"gameId"`
	Winner     string    `json:"winner"`
	WhiteScore int       `json:"whiteScore"`
	BlackScore int       `json:"blackScore"`
	TotalMoves int       `json:"totalMoves"`
	EndedAt    time.Time `json:"endedAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
