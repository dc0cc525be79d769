package shopstate

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Callbacks may run on any goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
