// Package api is a typed client for the chess server's REST API.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chessboard/internal/core"
)

const pollTimeout = 35 * time.Second

// Error is a non-2xx response decoded from the server's error body
type Error struct {
	Status int
	core.ErrorResponse
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.ErrorResponse.Error)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Time          int64  `json:"time"`
	Storage       string `json:"storage"`
	ComputerGames int    `json:"computerGames"`
}

type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	// Trace receives one line per request and response when set
	Trace io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: pollTimeout,
		},
	}
}

func (c *Client) SetBaseURL(u string) {
	c.BaseURL = strings.TrimRight(u, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

func (c *Client) tracef(format string, args ...any) {
	if c.Trace != nil {
		fmt.Fprintf(c.Trace, format+"\n", args...)
	}
}

// do sends body as JSON when non-nil and decodes a 2xx response into result
// when non-nil. It returns the status code.
func (c *Client) do(method, path string, body, result any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
		c.tracef("%s %s %s", method, path, data)
	} else {
		c.tracef("%s %s", method, path)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	c.tracef("%d %s %s", resp.StatusCode, http.StatusText(resp.StatusCode), raw)

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Unmarshal(raw, &apiErr.ErrorResponse) != nil || apiErr.ErrorResponse.Error == "" {
			apiErr.ErrorResponse.Error = strings.TrimSpace(string(raw))
		}
		return resp.StatusCode, apiErr
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func gamePath(gameID string, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(gameID) + suffix
}

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	_, err := c.do(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *core.CreateGameRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	_, err := c.do(http.MethodPost, "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) ConfigurePlayers(gameID string, req *core.ConfigurePlayersRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	_, err := c.do(http.MethodPut, gamePath(gameID, "/players"), req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	_, err := c.do(http.MethodGet, gamePath(gameID, ""), nil, &resp)
	return &resp, err
}

// WaitGame long-polls until the game moves past moveCount or the server
// times the wait out
func (c *Client) WaitGame(gameID string, moveCount int) (*core.GameResponse, error) {
	var resp core.GameResponse
	path := gamePath(gameID, "?wait=true&moveCount="+strconv.Itoa(moveCount))
	_, err := c.do(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	_, err := c.do(http.MethodDelete, gamePath(gameID, ""), nil, nil)
	return err
}

// MakeMove plays a coordinate move; "cccc" requests the computer's move,
// reported by pending as 202 Accepted
func (c *Client) MakeMove(gameID, move string) (resp *core.GameResponse, pending bool, err error) {
	resp = &core.GameResponse{}
	status, err := c.do(http.MethodPost, gamePath(gameID, "/moves"), &core.MoveRequest{Move: move}, resp)
	return resp, status == http.StatusAccepted, err
}

func (c *Client) UndoMoves(gameID string, count int) (*core.GameResponse, error) {
	var resp core.GameResponse
	_, err := c.do(http.MethodPost, gamePath(gameID, "/undo"), &core.UndoRequest{Count: count}, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*core.BoardResponse, error) {
	var resp core.BoardResponse
	_, err := c.do(http.MethodGet, gamePath(gameID, "/board"), nil, &resp)
	return &resp, err
}

// LegalMoves lists legal moves, only those from one square when from is set
func (c *Client) LegalMoves(gameID, from string) (*core.LegalMovesResponse, error) {
	path := gamePath(gameID, "/legal")
	if from != "" {
		path += "?from=" + url.QueryEscape(from)
	}
	var resp core.LegalMovesResponse
	_, err := c.do(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) SaveGame(gameID string) error {
	_, err := c.do(http.MethodPost, gamePath(gameID, "/save"), nil, nil)
	return err
}

func (c *Client) RestoreGame(gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	_, err := c.do(http.MethodPost, gamePath(gameID, "/restore"), nil, &resp)
	return &resp, err
}

func (c *Client) FinishGame(gameID string) (*core.ResultResponse, error) {
	var resp core.ResultResponse
	_, err := c.do(http.MethodPost, gamePath(gameID, "/finish"), nil, &resp)
	return &resp, err
}

func (c *Client) Results(winner string, limit int) ([]core.ResultResponse, error) {
	q := url.Values{}
	if winner != "" {
		q.Set("winner", winner)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/results"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp []core.ResultResponse
	_, err := c.do(http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *Client) DeleteResult(gameID string) error {
	_, err := c.do(http.MethodDelete, "/api/v1/results/"+url.PathEscape(gameID), nil, nil)
	return err
}

func (c *Client) Register(username, password, email string) (*AuthResponse, error) {
	req := map[string]string{"username": username, "password": password}
	if email != "" {
		req["email"] = email
	}
	var resp AuthResponse
	_, err := c.do(http.MethodPost, "/api/v1/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(identifier, password string) (*AuthResponse, error) {
	req := map[string]string{"identifier": identifier, "password": password}
	var resp AuthResponse
	_, err := c.do(http.MethodPost, "/api/v1/auth/login", req, &resp)
	return &resp, err
}

func (c *Client) Logout() error {
	_, err := c.do(http.MethodPost, "/api/v1/auth/logout", nil, nil)
	return err
}

func (c *Client) GetCurrentUser() (*UserResponse, error) {
	var resp UserResponse
	_, err := c.do(http.MethodGet, "/api/v1/auth/me", nil, &resp)
	return &resp, err
}
