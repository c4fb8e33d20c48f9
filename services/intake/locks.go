package intake

import "sync"

// sessionLocks serializes request handling per session id. Requests for the
// same session never run concurrently; unrelated sessions proceed in
// parallel.
type sessionLocks struct {
	m sync.Map // sessionID -> *sync.Mutex
}

// lock acquires the session's mutex and returns its unlock func.
func (l *sessionLocks) lock(sessionID string) func() {
	v, _ := l.m.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
