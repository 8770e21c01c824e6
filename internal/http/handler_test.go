package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"chessboard/internal/core"
	"chessboard/internal/processor"
	"chessboard/internal/service"
	"chessboard/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
)

func newApp(t *testing.T, withStore bool) *fiber.App {
	t.Helper()

	var store *storage.Store
	if withStore {
		var err error
		store, err = storage.NewStore(filepath.Join(t.TempDir(), "api.db"), false)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.InitDB(); err != nil {
			t.Fatal(err)
		}
	}

	svc := service.New(store, []byte("http-test-secret-of-sufficient-length"))
	proc := processor.New(svc, processor.Config{Workers: 1, Seed: 3})
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown()
	})

	return NewFiberApp(proc, svc, Config{DisableLogs: true, RateLimit: 1000})
}

// call sends a request and decodes a JSON response into out when non-nil
func call(t *testing.T, app *fiber.App, method, path, body, token string, out any) int {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode
}

func newGame(t *testing.T, app *fiber.App, body string) core.GameResponse {
	t.Helper()
	var g core.GameResponse
	if status := call(t, app, fiber.MethodPost, "/api/v1/games", body, "", &g); status != fiber.StatusCreated {
		t.Fatalf("create game status %d", status)
	}
	return g
}

const humanVsHuman = `{"white":{"type":1},"black":{"type":1}}`

func TestHealth(t *testing.T) {
	app := newApp(t, false)
	var body map[string]any
	if status := call(t, app, fiber.MethodGet, "/health", "", "", &body); status != fiber.StatusOK {
		t.Fatalf("status %d", status)
	}
	if body["status"] != "healthy" || body["storage"] != "disabled" {
		t.Errorf("health = %v", body)
	}
}

func TestGameFlow(t *testing.T) {
	app := newApp(t, false)
	g := newGame(t, app, humanVsHuman)
	base := "/api/v1/games/" + g.GameID

	var after core.GameResponse
	if status := call(t, app, fiber.MethodPost, base+"/moves", `{"move":"e2e4"}`, "", &after); status != fiber.StatusOK {
		t.Fatalf("move status %d", status)
	}
	if diff := cmp.Diff([]string{"e2e4"}, after.Moves); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}

	var errResp core.ErrorResponse
	status := call(t, app, fiber.MethodPost, base+"/moves", `{"move":"e7e4"}`, "", &errResp)
	if status != fiber.StatusBadRequest || errResp.Code != core.ErrInvalidMove || errResp.Details == "" {
		t.Errorf("illegal move: %d %+v", status, errResp)
	}

	var legal core.LegalMovesResponse
	call(t, app, fiber.MethodGet, base+"/legal?from=b8", "", "", &legal)
	if diff := cmp.Diff([]string{"b8a6", "b8c6"}, legal.Moves); diff != "" {
		t.Errorf("knight moves (-want +got):\n%s", diff)
	}

	var board core.BoardResponse
	call(t, app, fiber.MethodGet, base+"/board", "", "", &board)
	if board.Position != after.Position || board.Board == "" {
		t.Errorf("board = %+v", board)
	}

	call(t, app, fiber.MethodPost, base+"/undo", `{"count":1}`, "", &after)
	if len(after.Moves) != 0 || after.Turn != "w" {
		t.Errorf("after undo: %+v", after)
	}

	var result core.ResultResponse
	if status := call(t, app, fiber.MethodPost, base+"/finish", "", "", &result); status != fiber.StatusOK {
		t.Fatalf("finish status %d", status)
	}
	if result.Winner != "draw" {
		t.Errorf("winner = %q", result.Winner)
	}
	call(t, app, fiber.MethodPost, base+"/moves", `{"move":"e2e4"}`, "", &errResp)
	if errResp.Code != core.ErrGameOver {
		t.Errorf("move after finish code = %s", errResp.Code)
	}

	if status := call(t, app, fiber.MethodDelete, base, "", "", nil); status != fiber.StatusNoContent {
		t.Errorf("delete status %d", status)
	}
	if status := call(t, app, fiber.MethodGet, base, "", "", nil); status != fiber.StatusNotFound {
		t.Errorf("get after delete status %d", status)
	}
}

func TestRequestValidation(t *testing.T) {
	app := newApp(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad player type", fiber.MethodPost, "/api/v1/games", `{"white":{"type":3},"black":{"type":1}}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"missing players", fiber.MethodPost, "/api/v1/games", `{}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"bad position", fiber.MethodPost, "/api/v1/games", `{"white":{"type":1},"black":{"type":1},"position":"8/8/8/8/8/8/8/8 w"}`, fiber.StatusBadRequest, core.ErrInvalidPosition},
		{"bad game id", fiber.MethodGet, "/api/v1/games/not-a-uuid", "", fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"unknown game", fiber.MethodGet, "/api/v1/games/00000000-0000-0000-0000-000000000000", "", fiber.StatusNotFound, core.ErrGameNotFound},
		{"move too short", fiber.MethodPost, "/api/v1/games/00000000-0000-0000-0000-000000000000/moves", `{"move":"e2"}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"bad winner filter", fiber.MethodGet, "/api/v1/results?winner=nobody", "", fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"results without storage", fiber.MethodGet, "/api/v1/results", "", fiber.StatusServiceUnavailable, core.ErrStorageDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp core.ErrorResponse
			status := call(t, app, tt.method, tt.path, tt.body, "", &errResp)
			if status != tt.status || errResp.Code != tt.code {
				t.Errorf("got %d %s (%s), want %d %s", status, errResp.Code, errResp.Error, tt.status, tt.code)
			}
		})
	}
}

func TestComputerMoveAccepted(t *testing.T) {
	app := newApp(t, false)
	g := newGame(t, app, `{"white":{"type":2},"black":{"type":1}}`)
	base := "/api/v1/games/" + g.GameID

	var pending core.GameResponse
	if status := call(t, app, fiber.MethodPost, base+"/moves", `{"move":"cccc"}`, "", &pending); status != fiber.StatusAccepted {
		t.Fatalf("computer move status %d", status)
	}

	// long-poll until the computer's move lands
	var after core.GameResponse
	call(t, app, fiber.MethodGet, base+"?wait=true&moveCount=0", "", "", &after)
	if len(after.Moves) != 1 || after.Turn != "b" || after.State != "ongoing" {
		t.Errorf("after computer move: %+v", after)
	}
}

func TestAuthAndResults(t *testing.T) {
	app := newApp(t, true)

	var reg AuthResponse
	status := call(t, app, fiber.MethodPost, "/api/v1/auth/register",
		`{"username":"Dana","email":"dana@example.com","password":"queen9takes"}`, "", &reg)
	if status != fiber.StatusCreated || reg.Token == "" || reg.Username != "dana" {
		t.Fatalf("register: %d %+v", status, reg)
	}

	var errResp core.ErrorResponse
	status = call(t, app, fiber.MethodPost, "/api/v1/auth/register",
		`{"username":"dana","password":"queen9takes"}`, "", &errResp)
	if status != fiber.StatusConflict {
		t.Errorf("duplicate register status %d", status)
	}
	status = call(t, app, fiber.MethodPost, "/api/v1/auth/register",
		`{"username":"erin","password":"onlyletters"}`, "", &errResp)
	if status != fiber.StatusBadRequest || errResp.Error != "weak password" {
		t.Errorf("weak password: %d %+v", status, errResp)
	}

	var login AuthResponse
	status = call(t, app, fiber.MethodPost, "/api/v1/auth/login",
		`{"identifier":"DANA@example.com","password":"queen9takes"}`, "", &login)
	if status != fiber.StatusOK || login.UserID != reg.UserID {
		t.Fatalf("login: %d %+v", status, login)
	}

	var me UserResponse
	if status := call(t, app, fiber.MethodGet, "/api/v1/auth/me", "", login.Token, &me); status != fiber.StatusOK || me.Username != "dana" {
		t.Errorf("me: %d %+v", status, me)
	}
	// logging in again replaced the registration session
	if status := call(t, app, fiber.MethodGet, "/api/v1/auth/me", "", reg.Token, nil); status != fiber.StatusUnauthorized {
		t.Errorf("stale token status %d", status)
	}

	// authenticated creator owns the human seat
	var g core.GameResponse
	req := `{"white":{"type":1},"black":{"type":2}}`
	if status := call(t, app, fiber.MethodPost, "/api/v1/games", req, login.Token, &g); status != fiber.StatusCreated {
		t.Fatalf("create status %d", status)
	}
	if g.Players.White.ID != login.UserID {
		t.Errorf("white player = %s, want %s", g.Players.White.ID, login.UserID)
	}

	base := "/api/v1/games/" + g.GameID
	call(t, app, fiber.MethodPost, base+"/save", "", "", nil)
	var result core.ResultResponse
	call(t, app, fiber.MethodPost, base+"/finish", "", "", &result)

	var results []core.ResultResponse
	if status := call(t, app, fiber.MethodGet, "/api/v1/results?winner=draw", "", "", &results); status != fiber.StatusOK {
		t.Fatalf("results status %d", status)
	}
	if len(results) != 1 || results[0].GameID != g.GameID {
		t.Errorf("results = %+v", results)
	}
	if status := call(t, app, fiber.MethodDelete, "/api/v1/results/"+g.GameID, "", "", nil); status != fiber.StatusNoContent {
		t.Errorf("delete result status %d", status)
	}
	if status := call(t, app, fiber.MethodDelete, "/api/v1/results/"+g.GameID, "", "", nil); status != fiber.StatusNotFound {
		t.Errorf("second delete result status %d", status)
	}

	if status := call(t, app, fiber.MethodPost, "/api/v1/auth/logout", "", login.Token, nil); status != fiber.StatusNoContent {
		t.Errorf("logout status %d", status)
	}
	if status := call(t, app, fiber.MethodGet, "/api/v1/auth/me", "", login.Token, nil); status != fiber.StatusUnauthorized {
		t.Errorf("token after logout status %d", status)
	}
}

func TestStreamRequiresUpgrade(t *testing.T) {
	app := newApp(t, false)
	g := newGame(t, app, humanVsHuman)

	var e core.ErrorResponse
	if status := call(t, app, fiber.MethodGet, "/ws/games/"+g.GameID, "", "", &e); status != fiber.StatusUpgradeRequired {
		t.Fatalf("status %d, want %d", status, fiber.StatusUpgradeRequired)
	}
	if e.Code != core.ErrInvalidRequest {
		t.Errorf("code %q, want %q", e.Code, core.ErrInvalidRequest)
	}
}

func TestStreamKeyTracksChanges(t *testing.T) {
	human := &core.Player{Type: core.PlayerHuman}
	computer := &core.Player{Type: core.PlayerComputer}
	base := core.GameResponse{
		Position: "8/8/8/8/8/8/8/K6k w",
		State:    core.StateOngoing.String(),
		Players:  core.PlayersResponse{White: human, Black: human},
	}

	moved := base
	moved.Moves = []string{"a1a2"}
	swapped := base
	swapped.Players = core.PlayersResponse{White: human, Black: computer}

	for name, g := range map[string]core.GameResponse{"move": moved, "players": swapped} {
		if streamKey(&g) == streamKey(&base) {
			t.Errorf("%s: key unchanged", name)
		}
	}
}
