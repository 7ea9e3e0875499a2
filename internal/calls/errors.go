package calls

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFoundOrNetwork covers every failure of the metadata and id-list
	// fetches: non-2xx status, transport failure, undecodable body.
	ErrNotFoundOrNetwork = errors.New("call not found or backend unreachable")
	// ErrQASubmission covers every failure of a question submission.
	ErrQASubmission = errors.New("question submission failed")
)

// RequestError records which backend operation failed and why. It matches
// its category sentinel under errors.Is.
type RequestError struct {
	Op        string
	CallID    string
	RequestID string
	Status    int
	Err       error

	kind error
}

func (e *RequestError) Error() string {
	target := e.Op
	if e.CallID != "" {
		target += " " + e.CallID
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, target, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: http %d", e.kind, target, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.kind, target)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == e.kind }

func fetchError(op, callID, requestID string, status int, err error) error {
	return &RequestError{Op: op, CallID: callID, RequestID: requestID, Status: status, Err: err, kind: ErrNotFoundOrNetwork}
}

func submitError(callID, requestID string, status int, err error) error {
	return &RequestError{Op: opAsk, CallID: callID, RequestID: requestID, Status: status, Err: err, kind: ErrQASubmission}
}
