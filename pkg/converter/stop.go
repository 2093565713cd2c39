package converter

import "sync/atomic"

// StopController is a single shared "stop requested" signal. Setting it is
// idempotent; reading never blocks. It only prevents new jobs from being
// submitted; work already in flight runs to completion.
type StopController struct {
	stopped atomic.Bool
}

// NewStopController returns a controller in the not-stopped state.
func NewStopController() *StopController {
	return &StopController{}
}

// RequestStop raises the signal. Safe to call any number of times from any
// goroutine.
func (s *StopController) RequestStop() {
	s.stopped.Store(true)
}

// Stopped reports whether a stop has been requested.
func (s *StopController) Stopped() bool {
	return s.stopped.Load()
}
