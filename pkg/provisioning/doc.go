// Package provisioning drives a device from "not provisioned" to "bound to
// a cloud account".
//
// The Orchestrator owns the provisioning state machine:
//
//	Unprovisioned -> AwaitingCredentials -> CredentialsReceived ->
//	ApplyingCredentials -> BindingInProgress -> Bound
//
// Any step may end in Failed. A device that already holds network
// credentials skips straight to ApplyingCredentials, and one whose stored
// token is empty is treated as already bound.
//
// How credentials are acquired is selected by a Method: SoftAPUDP brings up
// a soft access point and waits for the companion app on the local control
// listener, SmartConfig obtains the network from the radio and then waits
// for the binding token on the joined network.
//
// The orchestrator talks to hardware and the cloud only through the small
// interfaces in deps.go, so tests drive it with the mocks subpackage.
package provisioning
