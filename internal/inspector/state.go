package inspector

import "github.com/envicheck/envicheck/internal/geo"

// State is the stage of an interaction.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateFetching
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocating:
		return "locating"
	case StateFetching:
		return "fetching"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition describes one state change of an interaction.
type Transition struct {
	Interaction uint64
	From        State
	To          State

	// Coordinate is zero while locating.
	Coordinate geo.Coordinate
}
