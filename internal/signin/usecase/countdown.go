package usecase

import (
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
)

type countdownTask struct {
	ticker clock.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// armCountdown restarts the resend cooldown at seconds and ticks it down
// once per second. A previous task is stopped first so at most one ticker
// exists at a time.
func (s *Flow) armCountdown(seconds int32) {
	s.cdMu.Lock()
	defer s.cdMu.Unlock()

	s.stopTaskLocked()
	s.countdown.Store(seconds)

	if seconds <= 0 {
		return
	}

	task := &countdownTask{
		ticker: s.tickers.NewTicker(time.Second),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.cdTask = task

	go s.runCountdown(task)
}

// resetCountdown stops the tick task and zeroes the remaining seconds.
func (s *Flow) resetCountdown() {
	s.cdMu.Lock()
	defer s.cdMu.Unlock()

	s.stopTaskLocked()
	s.countdown.Store(0)
}

func (s *Flow) runCountdown(task *countdownTask) {
	defer close(task.done)
	defer task.ticker.Stop()

	for {
		select {
		case <-task.ticker.Chan():
			if s.countdown.Dec() <= 0 {
				s.countdown.Store(0)
				return
			}

		case <-task.stop:
			return
		}
	}
}

func (s *Flow) stopTaskLocked() {
	if s.cdTask == nil {
		return
	}

	close(s.cdTask.stop)
	<-s.cdTask.done
	s.cdTask = nil
}
