// Package session drives the submit-question lifecycle of one chat session.
//
// A submission is split in three steps so a UI event loop can own every
// mutation: Submit validates and optimistically records the question, the
// returned Request performs the single backend call and may run on any
// goroutine, and Settle reconciles its Result back into the conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"callqa/internal/calls"
	"callqa/internal/conversation"
	"callqa/internal/observe"
)

// State is the controller's position in the submit lifecycle.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrEmptyInput rejects a question that is blank after trimming.
	ErrEmptyInput = errors.New("question is empty")
	// ErrBusy rejects a question while another one is in flight.
	ErrBusy = conversation.ErrBusy
)

// Asker is the backend operation the controller depends on.
type Asker interface {
	SubmitQuestion(ctx context.Context, callID, question string, history []calls.QAMessage) (string, error)
}

// Options configures a Controller.
type Options struct {
	CallID         string
	Backend        Asker
	Logger         logrus.FieldLogger
	IncludeHistory bool
	// Store defaults to a fresh conversation.
	Store *conversation.Store
}

// Controller owns one call's conversation, its history toggle, the draft
// question and the busy flag. Every change notifies subscribers
// synchronously.
type Controller struct {
	callID    string
	sessionID string
	backend   Asker
	logger    logrus.FieldLogger
	store     *conversation.Store
	hub       observe.Hub

	mu             sync.Mutex
	state          State
	includeHistory bool
	draft          string
	inflight       *Request
}

// New builds a Controller in the Idle state.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: nil backend")
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	store := opts.Store
	if store == nil {
		store = conversation.NewStore()
	}
	c := &Controller{
		callID:         opts.CallID,
		sessionID:      uuid.NewString(),
		backend:        opts.Backend,
		store:          store,
		includeHistory: opts.IncludeHistory,
	}
	c.logger = logger.WithFields(logrus.Fields{"session_id": c.sessionID, "call_id": c.callID})
	store.Subscribe(c.hub.Publish)
	return c, nil
}

// Request is one submitted question waiting for its backend call.
type Request struct {
	Question string
	History  []calls.QAMessage
	Index    int

	callID  string
	backend Asker
}

// Result is the single outcome of a Request.
type Result struct {
	Request *Request
	Answer  string
	Err     error
}

// Failed reports whether the backend call failed.
func (r Result) Failed() bool { return r.Err != nil }

// Do performs the backend call. It reads no controller state and may run on
// any goroutine; there is no retry.
func (r *Request) Do(ctx context.Context) Result {
	answer, err := r.backend.SubmitQuestion(ctx, r.callID, r.Question, r.History)
	return Result{Request: r, Answer: answer, Err: err}
}

// Submit validates question and, when accepted, appends it as a pending
// exchange, clears the draft and enters Submitting. The history sent with
// the request is projected from the exchanges that existed before the
// append, using the toggle as it is right now.
func (c *Controller) Submit(question string) (*Request, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	prior := c.store.Snapshot()
	history := conversation.Project(prior, c.includeHistory)
	c.state = Submitting
	c.draft = ""
	c.mu.Unlock()

	index, err := c.store.AppendPending(trimmed)
	if err != nil {
		c.mu.Lock()
		c.state = Idle
		c.mu.Unlock()
		c.hub.Publish()
		return nil, err
	}

	req := &Request{
		Question: trimmed,
		History:  history,
		Index:    index,
		callID:   c.callID,
		backend:  c.backend,
	}
	c.mu.Lock()
	c.inflight = req
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"index":         index,
		"history_count": len(history),
	}).Info("question submitted")
	return req, nil
}

// SubmitDraft submits the current draft.
func (c *Controller) SubmitDraft() (*Request, error) {
	return c.Submit(c.Draft())
}

// Settle applies res to its pending exchange and returns to Idle. A failure
// is logged and recorded as the fixed failure answer; it is never returned.
// Settling anything but the in-flight request panics.
func (c *Controller) Settle(res Result) conversation.Exchange {
	c.mu.Lock()
	if res.Request == nil || c.inflight != res.Request {
		c.mu.Unlock()
		panic("session: settle of a request that is not in flight")
	}
	c.inflight = nil
	c.state = Idle
	c.mu.Unlock()

	req := res.Request
	if res.Err != nil {
		c.logger.WithFields(logrus.Fields{"index": req.Index}).WithError(res.Err).Error("question failed")
		c.store.Fail(req.Index)
	} else {
		c.logger.WithFields(logrus.Fields{"index": req.Index}).Info("question answered")
		c.store.Resolve(req.Index, res.Answer)
	}
	return c.store.Snapshot()[req.Index]
}

// Outcome is what Ask reports back.
type Outcome struct {
	Exchange conversation.Exchange
	// Err is the backend failure already reflected in Exchange, if any.
	Err error
}

// Ask runs Submit, Do and Settle in sequence. The returned error is only
// ErrEmptyInput or ErrBusy.
func (c *Controller) Ask(ctx context.Context, question string) (Outcome, error) {
	req, err := c.Submit(question)
	if err != nil {
		return Outcome{}, err
	}
	res := req.Do(ctx)
	return Outcome{Exchange: c.Settle(res), Err: res.Err}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a question is in flight.
func (c *Controller) Busy() bool {
	return c.State() == Submitting
}

// IncludeHistory reports the history toggle.
func (c *Controller) IncludeHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.includeHistory
}

// SetIncludeHistory sets the history toggle. It affects only later
// submissions.
func (c *Controller) SetIncludeHistory(on bool) {
	c.mu.Lock()
	changed := c.includeHistory != on
	c.includeHistory = on
	c.mu.Unlock()
	if changed {
		c.hub.Publish()
	}
}

// ToggleHistory flips the history toggle and returns the new value.
func (c *Controller) ToggleHistory() bool {
	c.mu.Lock()
	c.includeHistory = !c.includeHistory
	on := c.includeHistory
	c.mu.Unlock()
	c.hub.Publish()
	return on
}

// Draft returns the unsent question text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the unsent question text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	changed := c.draft != text
	c.draft = text
	c.mu.Unlock()
	if changed {
		c.hub.Publish()
	}
}

// Conversation returns a snapshot of every exchange, pending included.
func (c *Controller) Conversation() []conversation.Exchange {
	return c.store.Snapshot()
}

// CallID is the call this session asks about.
func (c *Controller) CallID() string { return c.callID }

// SessionID identifies this session in logs.
func (c *Controller) SessionID() string { return c.sessionID }

// Subscribe registers fn to run after any change to the conversation, the
// toggle, the draft or the busy flag.
func (c *Controller) Subscribe(fn func()) (cancel func()) {
	return c.hub.Subscribe(fn)
}
