// Package queue runs file writes in order on a single background goroutine.
package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted after Close.
var ErrClosed = errors.New("queue closed")

type job struct {
	fn   func() error
	done chan struct{}
}

// Serial executes submitted functions one at a time in FIFO order. The
// first error is sticky: later functions are skipped and the error is
// reported by Err, Flush and Close.
type Serial struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex // guards closed and sends on jobs
	closed bool

	errMu sync.Mutex
	err   error
}

// NewSerial starts a worker with room for buffer pending jobs.
func NewSerial(buffer int) *Serial {
	s := &Serial{jobs: make(chan job, buffer)}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Serial) run() {
	defer s.wg.Done()
	for j := range s.jobs {
		if j.fn != nil && s.Err() == nil {
			if err := j.fn(); err != nil {
				s.errMu.Lock()
				s.err = err
				s.errMu.Unlock()
			}
		}
		if j.done != nil {
			close(j.done)
		}
	}
}

// Submit enqueues fn and returns without waiting for it to run. It blocks
// only while the buffer is full.
func (s *Serial) Submit(fn func() error) error {
	return s.send(job{fn: fn})
}

// Flush waits until every job submitted before it has run and returns the
// sticky error.
func (s *Serial) Flush() error {
	done := make(chan struct{})
	if err := s.send(job{done: done}); err != nil {
		return err
	}
	<-done
	return s.Err()
}

// Err returns the first error returned by a job.
func (s *Serial) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close drains pending jobs, stops the worker and returns the sticky error.
// Close is idempotent.
func (s *Serial) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return s.Err()
}

func (s *Serial) send(j job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.jobs <- j
	return nil
}
