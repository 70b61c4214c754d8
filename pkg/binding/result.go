package binding

import (
	"errors"
	"fmt"
)

// CodeReplyFormat is the Rejected code used when the reply body cannot be parsed.
const CodeReplyFormat = -1

// Binding errors.
var (
	ErrBindInProgress  = errors.New("binding: bind already in progress")
	ErrReplyFormat     = errors.New("binding: malformed reply")
	ErrPublishNacked   = errors.New("binding: publish rejected by broker")
	ErrSessionLost     = errors.New("binding: session disconnected")
	ErrSubscribeFailed = errors.New("binding: subscribe not acknowledged")
)

// Outcome is the result of a bind.
type Outcome uint8

const (
	OutcomeConfirmed Outcome = iota
	OutcomeRejected
	OutcomeConnectFailed
	OutcomeSubscribeFailed
	OutcomePublishTimedOut
	OutcomeReplyTimedOut
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "CONFIRMED"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeConnectFailed:
		return "CONNECT_FAILED"
	case OutcomeSubscribeFailed:
		return "SUBSCRIBE_FAILED"
	case OutcomePublishTimedOut:
		return "PUBLISH_TIMED_OUT"
	case OutcomeReplyTimedOut:
		return "REPLY_TIMED_OUT"
	default:
		return fmt.Sprintf("OUTCOME(%d)", o)
	}
}

// Result describes how a bind ended.
type Result struct {
	Outcome Outcome

	// Code is the cloud reply code for OutcomeRejected.
	Code int

	// Attempts is the number of end-to-end attempts made.
	Attempts int

	// SubscribeFailed records that the last attempt published without a
	// subscribe-ack.
	SubscribeFailed bool

	// Err carries the underlying error, if any.
	Err error
}

// String returns a short description of the result.
func (r Result) String() string {
	switch {
	case r.Outcome == OutcomeRejected:
		return fmt.Sprintf("%s(%d)", r.Outcome, r.Code)
	case r.Err != nil:
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	default:
		return r.Outcome.String()
	}
}

// Final reports whether the sequence stops retrying. Only a confirmed
// binding is final; a rejected reply is retried like any other failure.
func (r Result) Final() bool {
	return r.Outcome == OutcomeConfirmed
}
