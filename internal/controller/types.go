package controller

import "time"

// State is the controller's view of the engine lifecycle.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateReloading
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateReloading:
		return "reloading"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Serving reports whether callers may rely on the engine carrying traffic.
// Reloading counts: the previous configuration stays active until the
// engine swaps it.
func (s State) Serving() bool { return s == StateRunning || s == StateReloading }

// Transition records one state change.
type Transition struct {
	OpID string
	Op   string
	From State
	To   State
	At   time.Time
	Err  string
}
