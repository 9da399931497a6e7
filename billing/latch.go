package billing

import "sync"

// AutoBillLatch fires once when a timer session runs out. Later ticks past zero do not
// fire again until Reset.
type AutoBillLatch struct {
	fired bool
}

// Observe returns true only on the tick where an expired timer estimate is first seen.
func (l *AutoBillLatch) Observe(est Estimate) bool {
	if est.BookingType != BookingTimer || !est.Expired {
		return false
	}
	if l.fired {
		return false
	}
	l.fired = true
	return true
}

func (l *AutoBillLatch) Fired() bool { return l.fired }

// Reset re-arms the latch, e.g. after minutes were added to the session.
func (l *AutoBillLatch) Reset() { l.fired = false }

// LatchSet keeps one latch per session id.
type LatchSet struct {
	mu      sync.Mutex
	latches map[uint]*AutoBillLatch
}

func NewLatchSet() *LatchSet {
	return &LatchSet{latches: make(map[uint]*AutoBillLatch)}
}

func (s *LatchSet) Observe(sessionID uint, est Estimate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.latches[sessionID]
	if !ok {
		l = &AutoBillLatch{}
		s.latches[sessionID] = l
	}
	return l.Observe(est)
}

// Arm marks a session as already actioned, e.g. when it was billed before this process
// started watching it.
func (s *LatchSet) Arm(sessionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latches[sessionID] = &AutoBillLatch{fired: true}
}

func (s *LatchSet) Reset(sessionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.latches[sessionID]; ok {
		l.Reset()
	}
}

// Forget drops sessions that are no longer running.
func (s *LatchSet) Forget(sessionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.latches, sessionID)
}
