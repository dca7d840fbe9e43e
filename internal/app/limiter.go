package app

import "sync"

// SubmissionLimiter serializes grade submissions for the same student within this process.
// The unique index still guards inserts from other instances.
type SubmissionLimiter struct {
	mu   sync.Mutex
	byID map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewSubmissionLimiter() *SubmissionLimiter {
	return &SubmissionLimiter{byID: make(map[int64]*entry)}
}

func (l *SubmissionLimiter) lock(studentID int64) func() {
	l.mu.Lock()
	e, ok := l.byID[studentID]
	if !ok {
		e = &entry{}
		l.byID[studentID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byID, studentID)
		}
		l.mu.Unlock()
	}
}
