package shutdown

import (
	"os"
	"sync"
	"syscall"

	"ruserwation/core"
)

// SignalCounter implements "first signal drains, second signal exits".
type SignalCounter struct {
	mu         sync.Mutex
	count      int
	forceAfter int
	onForce    func()
}

// NewSignalCounter calls onForce when the count reaches forceAfter.
func NewSignalCounter(forceAfter int, onForce func()) *SignalCounter {
	if forceAfter < 1 {
		forceAfter = 1
	}
	return &SignalCounter{forceAfter: forceAfter, onForce: onForce}
}

// Increment records one signal and returns the new count. onForce runs under
// the lock, so it should exit the process or return quickly.
func (s *SignalCounter) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if s.count >= s.forceAfter && s.onForce != nil {
		s.onForce()
	}
	return s.count
}

func (s *SignalCounter) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// ExitCodeForSignal maps a shutdown signal to the conventional exit status.
func ExitCodeForSignal(sig os.Signal) int {
	switch sig {
	case os.Interrupt:
		return core.ExitCodeSIGINT
	case syscall.SIGTERM:
		return core.ExitCodeSIGTERM
	default:
		return core.ExitCodeError
	}
}
