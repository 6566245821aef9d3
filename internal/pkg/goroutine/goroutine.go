package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/goknock/internal/pkg/stacktrace"
)

// DefaultMaxPerCPU scales the fallback concurrency limit by the number of
// CPUs when NewManager receives a non-positive limit.
const DefaultMaxPerCPU int = 100

// Manager runs background tasks with a bounded amount of concurrency.
//
// Errors returned by tasks are collected and surfaced by Wait.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	errMu sync.Mutex
	errs  []error

	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager that runs at most limit tasks at once.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxPerCPU
	}

	return &Manager{slots: make(chan struct{}, limit)} // Buffered channel as semaphore
}

// Go schedules f on a new goroutine when a slot is free.
//
// When the manager is full or already closed the task is dropped with a
// warning instead of blocking the caller.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if m == nil {
		return
	}

	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case m.slots <- struct{}{}: // Acquire a semaphore slot
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, failed to start new goroutine")
		return
	}

	m.wg.Go(func() {
		defer m.release(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			m.errMu.Lock()
			m.errs = append(m.errs, err)
			m.errMu.Unlock()
		}
	})
}

// release gives the semaphore slot back and turns a panicking task into an
// error log instead of crashing the process.
func (m *Manager) release(ctx context.Context) {
	<-m.slots

	if rvr := recover(); rvr != nil {
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
			return
		}

		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
	}
}

// Wait closes the manager to new tasks, blocks until all running tasks
// finish, and returns their errors joined together.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.stateMu.Lock()
	m.closed = true
	m.stateMu.Unlock()

	m.wg.Wait()

	m.errMu.Lock()
	defer m.errMu.Unlock()

	return errors.Join(m.errs...)
}
