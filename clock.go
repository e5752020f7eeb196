package snowflake

import "time"

// Clock reports the current time in milliseconds since the Unix epoch.
// Implementations should move forward but the Generator tolerates readings
// that go backwards.
type Clock interface {
	UnixMilli() int64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() int64

func (f ClockFunc) UnixMilli() int64 {
	return f()
}

type systemClock struct{}

func (systemClock) UnixMilli() int64 {
	return time.Now().UnixMilli()
}

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
