// Package clock provides the real-time usecases.Clock implementation used
// outside of tests.
package clock

import "time"

// System is a usecases.Clock backed by the wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time { return time.Now() }
