package pipeline

import (
	"fmt"

	"github.com/poiesic/enrichit/core"
)

// State is the position of a run in its lifecycle.
type State int

const (
	StateIdle State = iota
	StatePhase1Running
	StatePhase2Running
	StatePhase3Running
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePhase1Running:
		return "phase1_running"
	case StatePhase2Running:
		return "phase2_running"
	case StatePhase3Running:
		return "phase3_running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

var transitions = map[State][]State{
	StateIdle:          {StatePhase1Running, StateFailed},
	StatePhase1Running: {StatePhase2Running, StateFailed},
	StatePhase2Running: {StatePhase3Running, StateFailed},
	StatePhase3Running: {StateCompleted, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// runningState returns the state a run is in while phase executes.
func runningState(phase core.Phase) State {
	switch phase {
	case core.PhaseGeneration:
		return StatePhase1Running
	case core.PhaseEnrichment:
		return StatePhase2Running
	case core.PhaseAssessment:
		return StatePhase3Running
	default:
		return StateFailed
	}
}
