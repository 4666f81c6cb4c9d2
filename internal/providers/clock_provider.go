package providers

import "github.com/benbjohnson/clock"

// NewClockProvider returns the wall clock. Tests inject clock.NewMock instead.
func NewClockProvider() clock.Clock {
	return clock.New()
}
