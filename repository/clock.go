package repository

import "time"

// Clock abstracts wall-clock access so cache expiry and timestamp
// behavior can be controlled deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the real wall clock in UTC.
var SystemClock Clock = systemClock{}
