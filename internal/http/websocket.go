package http

import (
	"context"
	"fmt"
	"log"
	"strings"

	"chessboard/internal/core"
	"chessboard/internal/processor"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// StreamMessage is one frame pushed to a game subscriber
type StreamMessage struct {
	Type  string              `json:"type"` // "game" or "error"
	Game  *core.GameResponse  `json:"game,omitempty"`
	Error *core.ErrorResponse `json:"error,omitempty"`
}

// websocketUpgrade rejects plain HTTP requests and bad game IDs before the
// connection is upgraded
func websocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if strings.HasPrefix(c.Path(), "/ws/games/") {
		if id := strings.TrimPrefix(c.Path(), "/ws/games/"); !isValidUUID(id) {
			return invalidGameID(c)
		}
	}
	return c.Next()
}

// StreamGame pushes the game state on connect and after every change until
// the client disconnects or the game is deleted. Incoming frames are
// ignored; moves go through the REST API.
func (h *HTTPHandler) StreamGame(c *websocket.Conn) {
	gameID := c.Params("gameId")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reads only detect the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastSent := ""
	for {
		resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
		if !resp.Success {
			c.WriteJSON(StreamMessage{Type: "error", Error: resp.Error})
			return
		}

		game := resp.Data.(core.GameResponse)
		if key := streamKey(&game); key != lastSent {
			if err := c.WriteJSON(StreamMessage{Type: "game", Game: &game}); err != nil {
				log.Printf("Stream for game %s closed: %v", gameID, err)
				return
			}
			lastSent = key
		}

		<-h.svc.RegisterWait(ctx, gameID, len(game.Moves))
		if ctx.Err() != nil {
			return
		}
	}
}

// streamKey changes whenever a subscriber would see something new
func streamKey(g *core.GameResponse) string {
	return fmt.Sprintf("%s|%s|%d|%d%d", g.Position, g.State, len(g.Moves),
		g.Players.White.Type, g.Players.Black.Type)
}
