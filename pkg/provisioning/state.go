package provisioning

import "fmt"

// State is the provisioning state of the device.
type State uint8

const (
	StateUnprovisioned State = iota
	StateAwaitingCredentials
	StateCredentialsReceived
	StateApplyingCredentials
	StateBindingInProgress
	StateBound
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnprovisioned:
		return "UNPROVISIONED"
	case StateAwaitingCredentials:
		return "AWAITING_CREDENTIALS"
	case StateCredentialsReceived:
		return "CREDENTIALS_RECEIVED"
	case StateApplyingCredentials:
		return "APPLYING_CREDENTIALS"
	case StateBindingInProgress:
		return "BINDING_IN_PROGRESS"
	case StateBound:
		return "BOUND"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("STATE(%d)", s)
	}
}

// Terminal reports whether the state ends a Run.
func (s State) Terminal() bool {
	return s == StateBound || s == StateFailed
}

// StateChangeHandler is called on every state transition.
type StateChangeHandler func(old, new State)
