package listener

import (
	"fmt"
	"net"

	"github.com/mash-protocol/devprov/pkg/credstore"
)

// Outcome is the terminal result of a listener session.
type Outcome uint8

const (
	// OutcomeCredentials means SSID, password and token were received and persisted.
	OutcomeCredentials Outcome = iota
	// OutcomeTokenOnly means only a binding token was received and persisted.
	OutcomeTokenOnly
	// OutcomeStopped means the session ended without credentials: the
	// context was cancelled or the app sent LOG_QUERY.
	OutcomeStopped
	// OutcomeTimedOut means the session budget was used up.
	OutcomeTimedOut
	// OutcomeIOFailure means a socket or store error ended the session.
	OutcomeIOFailure
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCredentials:
		return "CREDENTIALS"
	case OutcomeTokenOnly:
		return "TOKEN_ONLY"
	case OutcomeStopped:
		return "STOPPED"
	case OutcomeTimedOut:
		return "TIMED_OUT"
	case OutcomeIOFailure:
		return "IO_FAILURE"
	default:
		return fmt.Sprintf("OUTCOME(%d)", o)
	}
}

// FailureKind says which operation failed for OutcomeIOFailure.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureBind
	FailureReceive
	FailureWait
	FailurePersist
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "NONE"
	case FailureBind:
		return "BIND"
	case FailureReceive:
		return "RECEIVE"
	case FailureWait:
		return "WAIT"
	case FailurePersist:
		return "PERSIST"
	default:
		return fmt.Sprintf("FAILURE(%d)", k)
	}
}

// Result describes how a listener session ended.
type Result struct {
	Outcome Outcome

	// Record is set for OutcomeCredentials.
	Record credstore.Record

	// Token is set for OutcomeCredentials and OutcomeTokenOnly.
	Token string

	// Peer is the app address the command came from, if any.
	Peer net.Addr

	// Failure and Err are set for OutcomeIOFailure.
	Failure FailureKind
	Err     error
}

// String returns a short description of the result.
func (r Result) String() string {
	if r.Outcome == OutcomeIOFailure {
		return fmt.Sprintf("%s(%s): %v", r.Outcome, r.Failure, r.Err)
	}
	return r.Outcome.String()
}

func ioFailure(kind FailureKind, err error) Result {
	return Result{Outcome: OutcomeIOFailure, Failure: kind, Err: err}
}
