package application

import "time"

// Clock lets stores and services take time from somewhere tests control
type Clock interface {
	Now() time.Time
}

// SystemClock is the default, backed by time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
