package lifecycle

import "fmt"

// Phase names the lifecycle phase an error belongs to, so the calling
// pipeline can report which step failed.
type Phase string

const (
	// PhaseLaunch covers the container start request.
	PhaseLaunch Phase = "launch"
	// PhaseReadiness covers the bounded readiness poll.
	PhaseReadiness Phase = "readiness"
	// PhaseProvisioning covers credential provisioning and migrations.
	PhaseProvisioning Phase = "provisioning"
	// PhaseTeardown covers container stop and removal.
	PhaseTeardown Phase = "teardown"
)

// PhaseError is an error attributed to a lifecycle phase.
type PhaseError interface {
	error
	Phase() Phase
}

// LaunchError means the container runtime rejected the start request.
// Nothing was started, so there is nothing to tear down.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("launch failed: %v", e.Err) }

// Unwrap returns the runtime's error.
func (e *LaunchError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *LaunchError) Phase() Phase { return PhaseLaunch }

// ReadinessExhaustedError means the service never answered a probe within
// the attempt budget.
type ReadinessExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ReadinessExhaustedError) Error() string {
	return fmt.Sprintf("service not ready after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last probe failure.
func (e *ReadinessExhaustedError) Unwrap() error { return e.LastErr }

// Phase implements PhaseError.
func (e *ReadinessExhaustedError) Phase() Phase { return PhaseReadiness }

// ProvisionError means the service was ready but an administrative
// statement failed. It is a different failure class from readiness
// exhaustion and points at the statements, not the service's health.
type ProvisionError struct {
	Err error
}

func (e *ProvisionError) Error() string { return fmt.Sprintf("provisioning failed: %v", e.Err) }

// Unwrap returns the failed statement's error.
func (e *ProvisionError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *ProvisionError) Phase() Phase { return PhaseProvisioning }

// TeardownError means cleanup failed. Callers log it and move on; it never
// overrides the build result that earlier phases determined.
type TeardownError struct {
	Err error
}

func (e *TeardownError) Error() string { return fmt.Sprintf("teardown failed: %v", e.Err) }

// Unwrap returns the runtime's error.
func (e *TeardownError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *TeardownError) Phase() Phase { return PhaseTeardown }
