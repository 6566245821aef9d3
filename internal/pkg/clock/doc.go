// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker and TickerFactory interfaces
// instead of calling time.Now() or time.NewTicker() directly. This makes
// time-driven logic (countdowns, expiry checks) easy to test because a fake
// clock or a manually driven ticker can be swapped in.
package clock
