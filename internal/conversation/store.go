// Package conversation holds the ordered question/answer exchanges of one
// chat session and projects them into backend history.
package conversation

import (
	"errors"
	"fmt"
	"sync"

	"callqa/internal/observe"
)

const (
	// PendingAnswer is shown while the backend has not answered yet.
	PendingAnswer = "..."
	// FailedAnswer replaces the pending answer when the backend call fails.
	FailedAnswer = "No response"
)

// ErrBusy rejects an append while an exchange is still pending.
var ErrBusy = errors.New("an answer is still pending")

// Exchange is one question paired with its answer.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Store is the append-only conversation. Only the most recent exchange may
// change, and only once, from pending to resolved or failed.
type Store struct {
	mu        sync.Mutex
	exchanges []Exchange
	pending   bool
	hub       observe.Hub
}

// NewStore returns an empty conversation. The zero Store is also ready to use.
func NewStore() *Store {
	return &Store{}
}

// AppendPending optimistically appends question with the pending answer and
// returns its index.
func (s *Store) AppendPending(question string) (int, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return -1, ErrBusy
	}
	s.exchanges = append(s.exchanges, Exchange{Question: question, Answer: PendingAnswer})
	index := len(s.exchanges) - 1
	s.pending = true
	s.mu.Unlock()

	s.hub.Publish()
	return index, nil
}

// Resolve sets the answer of the pending exchange at index.
func (s *Store) Resolve(index int, answer string) {
	s.settle(index, answer)
}

// Fail marks the pending exchange at index as failed.
func (s *Store) Fail(index int) {
	s.settle(index, FailedAnswer)
}

// settle panics when index is not the pending, most recent exchange: the
// single in-flight rule makes that unreachable from correct callers.
func (s *Store) settle(index int, answer string) {
	s.mu.Lock()
	if !s.pending || index != len(s.exchanges)-1 {
		pending := s.pending
		n := len(s.exchanges)
		s.mu.Unlock()
		panic(fmt.Sprintf("conversation: settle index %d with %d exchanges (pending=%t)", index, n, pending))
	}
	s.exchanges[index].Answer = answer
	s.pending = false
	s.mu.Unlock()

	s.hub.Publish()
}

// Snapshot returns a copy of every exchange in insertion order, including a
// pending one.
func (s *Store) Snapshot() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange{}, s.exchanges...)
}

// Committed is Snapshot without a trailing pending exchange.
func (s *Store) Committed() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.exchanges)
	if s.pending {
		n--
	}
	return append([]Exchange{}, s.exchanges[:n]...)
}

// Len reports the number of exchanges.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}

// Pending reports whether an exchange awaits its answer.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Subscribe registers fn to run after every mutation.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	return s.hub.Subscribe(fn)
}
