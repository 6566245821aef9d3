package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	// Chan returns the channel ticks are delivered on.
	Chan() <-chan time.Time
	// Stop ends tick delivery. It does not close the channel.
	Stop()
}

// TickerFactory creates tickers, letting tests substitute a manual tick source.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

// TimeClocker is the production clock implementation backed by the time package.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// NewTicker returns a Ticker backed by time.Ticker.
func (*TimeClocker) NewTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

type timeTicker struct {
	t *time.Ticker
}

func (tt *timeTicker) Chan() <-chan time.Time {
	return tt.t.C
}

func (tt *timeTicker) Stop() {
	tt.t.Stop()
}
