package orchestrator

import "errors"

// State is the orchestrator's phase. Idle is initial; Completed and
// Aborted are terminal.
type State int

const (
	StateIdle State = iota
	StateClassifying
	StateInitializing
	StateMigratingCritical
	StateMigratingImportant
	StateMigratingBackground
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateInitializing:
		return "initializing backend"
	case StateMigratingCritical:
		return "migrating critical data"
	case StateMigratingImportant:
		return "migrating important data"
	case StateMigratingBackground:
		return "migrating background data"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// terminal reports whether no further work is owed in this state.
func (s State) terminal() bool {
	return s == StateIdle || s == StateCompleted || s == StateAborted
}

var (
	// ErrAlreadyRunning is returned when a start request races an active
	// run and WaitIfRunning is disabled.
	ErrAlreadyRunning = errors.New("migration already in progress")
)
