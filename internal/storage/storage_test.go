package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "chess.db"), false)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

const start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w"

func seedGame(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	s.RecordNewGame(GameRecord{
		GameID:          id,
		InitialPosition: start,
		CurrentPosition: start,
		WhitePlayerID:   "white-" + id,
		WhiteType:       1,
		BlackPlayerID:   "black-" + id,
		BlackType:       2,
		StartTimeUTC:    now,
	})
	moves := []struct {
		move, captured, after, color string
		whiteScore                   int
	}{
		{"e2e4", "", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b", "w", 0},
		{"d7d5", "", "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w", "b", 0},
		{"e4d5", "Pawn", "rnbqkbnr/ppp1pppp/8/3P4/8/8/PPPP1PPP/RNBQKBNR b", "w", 1},
	}
	for i, m := range moves {
		s.RecordMove(MoveRecord{
			GameID:        id,
			MoveNumber:    i + 1,
			Move:          m.move,
			Captured:      m.captured,
			PositionAfter: m.after,
			PlayerColor:   m.color,
			MoveTimeUTC:   now,
		}, GameStateRecord{
			GameID:          id,
			CurrentPosition: m.after,
			WhiteScore:      m.whiteScore,
			UpdatedAtUTC:    now,
		})
	}
	flush(t, s)
}

func TestGameLifecycle(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, "g1")

	g, moves, err := s.LoadGame("g1")
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if g.CurrentPosition != "rnbqkbnr/ppp1pppp/8/3P4/8/8/PPPP1PPP/RNBQKBNR b" {
		t.Errorf("current position = %q", g.CurrentPosition)
	}
	if g.WhiteScore != 1 || g.BlackScore != 0 {
		t.Errorf("scores = %d/%d", g.WhiteScore, g.BlackScore)
	}

	var got []string
	for _, m := range moves {
		got = append(got, m.Move+":"+m.Captured)
	}
	if diff := cmp.Diff([]string{"e2e4:", "d7d5:", "e4d5:Pawn"}, got); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}

	s.DeleteUndoneMoves("g1", 1, GameStateRecord{
		GameID:          "g1",
		CurrentPosition: moves[0].PositionAfter,
		UpdatedAtUTC:    time.Now().UTC(),
	})
	flush(t, s)

	g, moves, err = s.LoadGame("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 1 || g.WhiteScore != 0 || g.CurrentPosition != moves[0].PositionAfter {
		t.Errorf("after undo: %d moves, score %d, position %q", len(moves), g.WhiteScore, g.CurrentPosition)
	}

	if err := s.SaveGameState(GameStateRecord{GameID: "g1", CurrentPosition: start, State: 2, UpdatedAtUTC: time.Now().UTC()}); err != nil {
		t.Fatalf("SaveGameState: %v", err)
	}
	if g, _, _ = s.LoadGame("g1"); g.State != 2 {
		t.Errorf("state = %d, want 2", g.State)
	}

	if err := s.DeleteGame("g1"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, _, err := s.LoadGame("g1"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame after delete error = %v", err)
	}
	if moves, _ := s.LoadMoves("g1"); len(moves) != 0 {
		t.Errorf("%d orphaned moves", len(moves))
	}
	if err := s.DeleteGame("g1"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestSaveUnknownGame(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveGameState(GameStateRecord{GameID: "missing", CurrentPosition: start})
	if !errors.Is(err, ErrGameNotFound) {
		t.Errorf("error = %v, want ErrGameNotFound", err)
	}
}

func TestQueryGames(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, "a")
	seedGame(t, s, "b")

	all, err := s.QueryGames("*", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %d games, want 2", len(all))
	}

	byPlayer, err := s.QueryGames("", "black-b")
	if err != nil {
		t.Fatal(err)
	}
	if len(byPlayer) != 1 || byPlayer[0].GameID != "b" {
		t.Errorf("player filter returned %+v", byPlayer)
	}
}

func TestResults(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, r := range []ResultRecord{
		{GameID: "r1", Winner: "white", WhiteScore: 9, BlackScore: 3, TotalMoves: 40},
		{GameID: "r2", Winner: "black", WhiteScore: 1, BlackScore: 5, TotalMoves: 22},
		{GameID: "r3", Winner: "draw", TotalMoves: 10},
	} {
		r.EndedAtUTC = base.Add(time.Duration(i) * time.Hour)
		if err := s.RecordResult(r); err != nil {
			t.Fatalf("RecordResult %s: %v", r.GameID, err)
		}
	}

	all, err := s.QueryResults("", 0)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.GameID)
	}
	if diff := cmp.Diff([]string{"r3", "r2", "r1"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if err := s.UpdateResult(ResultRecord{GameID: "r2", Winner: "white", WhiteScore: 6, BlackScore: 5, TotalMoves: 30, EndedAtUTC: base}); err != nil {
		t.Fatalf("UpdateResult: %v", err)
	}
	white, err := s.QueryResults("WHITE", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(white) != 2 {
		t.Errorf("white wins = %d, want 2", len(white))
	}

	if err := s.DeleteResult("r1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteResult("r1"); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("second delete error = %v", err)
	}
	if err := s.UpdateResult(ResultRecord{GameID: "nope", Winner: "draw"}); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("update missing error = %v", err)
	}

	limited, _ := s.QueryResults("*", 1)
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d", len(limited))
	}
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	if err := s.CreateUser(UserRecord{UserID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "h", CreatedAt: now}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(UserRecord{UserID: "u2", Username: "ALICE", PasswordHash: "h", CreatedAt: now}); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate username error = %v", err)
	}

	u, err := s.GetUserByUsername("Alice")
	if err != nil || u.UserID != "u1" {
		t.Fatalf("GetUserByUsername = %+v, %v", u, err)
	}
	if u.LastLoginAt != nil {
		t.Error("fresh user has a last login")
	}
	if _, err := s.GetUserByID("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user error = %v", err)
	}

	if err := s.UpdateUserLastLogin("u1", now); err != nil {
		t.Fatal(err)
	}
	if u, _ = s.GetUserByEmail("A@EXAMPLE.COM"); u == nil || u.LastLoginAt == nil {
		t.Error("last login not recorded")
	}

	if err := s.CreateSession(SessionRecord{SessionID: "s1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsSessionValid("s1", "u1"); !ok {
		t.Error("fresh session invalid")
	}
	if ok, _ := s.IsSessionValid("s1", "u2"); ok {
		t.Error("session valid for another user")
	}

	// a second login replaces the first session
	if err := s.CreateSession(SessionRecord{SessionID: "s2", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsSessionValid("s1", "u1"); ok {
		t.Error("replaced session still valid")
	}

	if err := s.DeleteUser("u1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsSessionValid("s2", "u1"); ok {
		t.Error("session survived user deletion")
	}
}

func TestExpiredSessionsCleanup(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	if err := s.CreateUser(UserRecord{UserID: "u1", Username: "bob", PasswordHash: "h", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(SessionRecord{SessionID: "old", UserID: "u1", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	n, err := s.DeleteExpiredSessions()
	if err != nil || n != 1 {
		t.Errorf("DeleteExpiredSessions = %d, %v", n, err)
	}
}

func TestDeleteDBRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.db")
	s, err := NewStore(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDB(); err != nil {
		t.Fatalf("DeleteDB: %v", err)
	}
	if matches, _ := filepath.Glob(path + "*"); len(matches) != 0 {
		t.Errorf("left behind %v", matches)
	}
}
