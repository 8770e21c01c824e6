package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessboard/internal/core"
	"chessboard/internal/opponent"
	"chessboard/internal/position"
)

const (
	queueCapacity = 100
	resultTimeout = 5 * time.Second
)

var (
	ErrQueueFull     = errors.New("move queue is full")
	ErrQueueShutdown = errors.New("move queue is shutting down")
	errNoLegalMove   = errors.New("no legal move")
)

// MoveTask asks a worker to choose a move for the side to move in Position
type MoveTask struct {
	GameID   string
	Position string
	Response chan<- MoveResult
}

// MoveResult is a worker's answer to a MoveTask
type MoveResult struct {
	GameID string
	Move   core.Move
	Error  error
}

// MoveQueue runs computer move selection on a fixed pool of workers
type MoveQueue struct {
	tasks   chan MoveTask
	workers int
	seed    uint64
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// NewMoveQueue starts workerCount workers. A non-zero seed makes every
// worker's choices reproducible.
func NewMoveQueue(workerCount int, seed uint64) *MoveQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &MoveQueue{
		tasks:   make(chan MoveTask, queueCapacity),
		workers: workerCount,
		seed:    seed,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.start()
	return q
}

func (q *MoveQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// worker owns its opponent; Greedy is not safe for concurrent use
func (q *MoveQueue) worker(id int) {
	defer q.wg.Done()

	opp := opponent.New()
	if q.seed != 0 {
		opp = opponent.NewSeeded(q.seed + uint64(id))
	}

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			result := processTask(opp, task)

			select {
			case task.Response <- result:
			case <-time.After(100 * time.Millisecond):
				log.Printf("Worker %d: result for game %s discarded", id, task.GameID)
			}

		case <-q.ctx.Done():
			return
		}
	}
}

func processTask(opp *opponent.Greedy, task MoveTask) MoveResult {
	result := MoveResult{GameID: task.GameID}

	b, err := position.Decode(task.Position)
	if err != nil {
		result.Error = fmt.Errorf("bad position: %w", err)
		return result
	}

	m, ok := opp.Choose(b)
	if !ok {
		result.Error = errNoLegalMove
		return result
	}
	result.Move = m
	return result
}

// Submit adds a task without blocking
func (q *MoveQueue) Submit(task MoveTask) error {
	select {
	case <-q.ctx.Done():
		return ErrQueueShutdown
	default:
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAsync queues a task and calls callback with its result from a
// separate goroutine
func (q *MoveQueue) SubmitAsync(gameID, pos string, callback func(MoveResult)) error {
	respChan := make(chan MoveResult, 1)

	task := MoveTask{
		GameID:   gameID,
		Position: pos,
		Response: respChan,
	}

	if err := q.Submit(task); err != nil {
		return err
	}

	go func() {
		select {
		case result := <-respChan:
			callback(result)
		case <-time.After(resultTimeout):
			callback(MoveResult{
				GameID: gameID,
				Error:  errors.New("computer move timed out"),
			})
		}
	}()

	return nil
}

// Shutdown stops the workers, waiting at most timeout
func (q *MoveQueue) Shutdown(timeout time.Duration) error {
	q.once.Do(q.cancel)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
