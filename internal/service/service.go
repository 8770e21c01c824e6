// Package service owns the registry of live games and the accounts that play
// them. Every board mutation and every legality simulation runs under the
// service write lock, so a Board is never touched by two goroutines at once.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"chessboard/internal/game"
	"chessboard/internal/storage"
)

const (
	MaxComputerGames   = 10
	SessionTTL         = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
	flushTimeout       = 5 * time.Second
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrStorageDisabled    = errors.New("storage disabled")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrNotPlayersTurn     = errors.New("not this player's turn")
	ErrComputerThinking   = errors.New("computer move in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service coordinates game state, user management, and storage
type Service struct {
	games         map[string]*game.Game
	mu            sync.RWMutex
	store         *storage.Store
	jwtSecret     []byte
	waiter        *WaitRegistry
	computerGames atomic.Int32
}

// New creates a service; store may be nil to run without persistence
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*game.Game),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth returns "disabled", "ok" or "degraded"
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

func (s *Service) HasStorage() bool {
	return s.store != nil
}

// RegisterWait returns a channel closed when the game moves past
// moveCount, changes state, is deleted, or the wait times out
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	notify := s.waiter.RegisterWait(ctx, gameID, moveCount)

	// Catch changes that landed before the waiter was registered
	s.mu.RLock()
	g, ok := s.games[gameID]
	current := 0
	if ok {
		current = len(g.Moves())
	}
	s.mu.RUnlock()

	switch {
	case !ok:
		s.waiter.Broadcast(gameID)
	case current != moveCount:
		s.waiter.NotifyGame(gameID, current)
	}
	return notify
}

func (s *Service) CanCreateComputerGame() bool {
	return s.computerGames.Load() < MaxComputerGames
}

// reserveComputerGame takes one computer game slot, false when none is free
func (s *Service) reserveComputerGame() bool {
	for {
		n := s.computerGames.Load()
		if n >= MaxComputerGames {
			return false
		}
		if s.computerGames.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *Service) GetComputerGameCount() int32 {
	return s.computerGames.Load()
}

// flush waits for queued gameplay writes so synchronous reads and saves
// observe them
func (s *Service) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return s.store.Flush(ctx)
}

// Shutdown releases waiters, drops live games and closes storage
func (s *Service) Shutdown() error {
	var errs []error

	s.waiter.Shutdown()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)
	s.computerGames.Store(0)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically purges expired sessions until ctx is done
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	if deleted, err := s.store.DeleteExpiredSessions(); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}
