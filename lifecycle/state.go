package lifecycle

// State is the orchestrator's position in the container lifecycle.
type State string

const (
	// StateNotStarted is the initial state.
	StateNotStarted State = "not_started"
	// StateStarting means the start request is in flight.
	StateStarting State = "starting"
	// StateLaunchFailed means the runtime rejected the container. Terminal;
	// nothing was started so nothing is torn down.
	StateLaunchFailed State = "launch_failed"
	// StateWaitingReady means the container runs but the service has not
	// answered a probe yet.
	StateWaitingReady State = "waiting_ready"
	// StateReady means the service answered a probe.
	StateReady State = "ready"
	// StateExhausted means the attempt budget was spent without an answer.
	StateExhausted State = "exhausted"
	// StateProvisioning means provisioning statements are running.
	StateProvisioning State = "provisioning"
	// StateProvisioned means the credential exists inside the service.
	StateProvisioned State = "provisioned"
	// StateProvisionFailed means a provisioning statement failed on a ready
	// service.
	StateProvisionFailed State = "provision_failed"
	// StateTearingDown means stop and removal are in flight.
	StateTearingDown State = "tearing_down"
	// StateStopped means teardown ran. Terminal.
	StateStopped State = "stopped"
)

var transitions = map[State][]State{
	StateNotStarted:      {StateStarting},
	StateStarting:        {StateLaunchFailed, StateWaitingReady},
	StateWaitingReady:    {StateReady, StateExhausted, StateTearingDown},
	StateReady:           {StateProvisioning, StateTearingDown},
	StateExhausted:       {StateTearingDown},
	StateProvisioning:    {StateProvisioned, StateProvisionFailed},
	StateProvisioned:     {StateTearingDown},
	StateProvisionFailed: {StateTearingDown},
	StateTearingDown:     {StateStopped},
}

func (s State) canTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the lifecycle can move no further.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}
