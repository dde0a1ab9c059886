// File: utils/clock.go
package utils

import "time"

// Clock abstracts time.Now so hold expiry can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock returns a clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Test use only.
type FixedClock struct {
	Instant time.Time
}

func (f FixedClock) Now() time.Time {
	return f.Instant.UTC()
}
