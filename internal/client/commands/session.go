package commands

import (
	"io"

	"chessboard/internal/client/api"
	"chessboard/internal/core"
)

// Session is the client's state between commands
type Session struct {
	Client *api.Client
	Out    io.Writer
	Plain  bool // no ANSI colors

	CurrentGame   string
	LastMoveCount int
	Game          *core.GameResponse

	UserID   string
	Username string

	// ReadPassword prompts without echo; nil means passwords must be given
	// as arguments
	ReadPassword func(prompt string) (string, error)
}

func (s *Session) setGame(g *core.GameResponse) {
	s.Game = g
	s.CurrentGame = g.GameID
	s.LastMoveCount = len(g.Moves)
}

func (s *Session) clearGame() {
	s.Game = nil
	s.CurrentGame = ""
	s.LastMoveCount = 0
}

// PlayerColor is "w" or "b" when the logged in user holds a seat in the
// current game
func (s *Session) PlayerColor() string {
	if s.Game == nil || s.UserID == "" {
		return ""
	}
	if p := s.Game.Players.White; p != nil && p.ID == s.UserID {
		return "w"
	}
	if p := s.Game.Players.Black; p != nil && p.ID == s.UserID {
		return "b"
	}
	return ""
}
