package service

import (
	"context"
	"sync"
	"time"
)

// WaitTimeout is the maximum time a client can wait for a change
const WaitTimeout = 25 * time.Second

// WaitRegistry tracks long-polling and streaming clients per game. A
// waiter's channel is closed exactly once: on a change, on timeout, on
// client cancellation or at shutdown.
type WaitRegistry struct {
	mu      sync.Mutex
	waiters map[string][]*waitRequest
	closed  bool
	timeout time.Duration
}

type waitRequest struct {
	moveCount int
	notify    chan struct{}

	mu    sync.Mutex
	done  bool
	stops []func() bool
}

func (r *waitRequest) fire() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	stops := r.stops
	r.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	close(r.notify)
}

// onFire registers a cancel hook for the timer or context watch that would
// otherwise fire later
func (r *waitRequest) onFire(stop func() bool) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		stop()
		return
	}
	r.stops = append(r.stops, stop)
	r.mu.Unlock()
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters: make(map[string][]*waitRequest),
		timeout: WaitTimeout,
	}
}

// RegisterWait registers a client that last saw moveCount moves of gameID
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	req := &waitRequest{
		moveCount: moveCount,
		notify:    make(chan struct{}),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		req.fire()
		return req.notify
	}
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.mu.Unlock()

	release := func() {
		w.remove(gameID, req)
		req.fire()
	}
	req.onFire(time.AfterFunc(w.timeout, release).Stop)
	req.onFire(context.AfterFunc(ctx, release))

	return req.notify
}

// NotifyGame wakes waiters whose last seen move count differs from
// currentMoveCount
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	w.mu.Lock()
	var fired []*waitRequest
	kept := w.waiters[gameID][:0]
	for _, req := range w.waiters[gameID] {
		if req.moveCount != currentMoveCount {
			fired = append(fired, req)
		} else {
			kept = append(kept, req)
		}
	}
	w.store(gameID, kept)
	w.mu.Unlock()

	for _, req := range fired {
		req.fire()
	}
}

// Broadcast wakes every waiter on gameID regardless of move count
func (w *WaitRegistry) Broadcast(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.fire()
	}
}

// RemoveGame releases all waiters before a game is deleted
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.Broadcast(gameID)
}

// Shutdown releases every waiter; later registrations return closed channels
func (w *WaitRegistry) Shutdown() {
	w.mu.Lock()
	w.closed = true
	all := w.waiters
	w.waiters = make(map[string][]*waitRequest)
	w.mu.Unlock()

	for _, waitList := range all {
		for _, req := range waitList {
			req.fire()
		}
	}
}

func (w *WaitRegistry) remove(gameID string, req *waitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[gameID]
	for i, r := range waitList {
		if r == req {
			w.store(gameID, append(waitList[:i], waitList[i+1:]...))
			return
		}
	}
}

// store must be called with mu held
func (w *WaitRegistry) store(gameID string, waitList []*waitRequest) {
	if len(waitList) == 0 {
		delete(w.waiters, gameID)
		return
	}
	w.waiters[gameID] = waitList
}
