// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventPollDelay := cfg.EventPollDelay
	if eventPollDelay <= 0 {
		eventPollDelay = 1
	}

	return &Time{
		fps:            cfg.FramesPerSecond,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: eventPollDelay,
		eventTicker:    time.NewTicker(time.Duration(eventPollDelay) * time.Millisecond),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventPollDelay gets the event polling interval
func (t *Time) EventPollDelay() time.Duration {
	return time.Duration(t.eventPollDelay) * time.Millisecond
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops all tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
