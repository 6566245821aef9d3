package clock

import (
	"testing"
	"time"
)

func TestTimeClockerNow(t *testing.T) {
	c := New()

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Fatalf("Now() = %v outside [%v, %v]", got, before, after)
	}
}

func TestTimeClockerNewTicker(t *testing.T) {
	c := New()

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.Chan():
	case <-time.After(time.Second):
		t.Fatalf("expected a tick within a second")
	}
}
