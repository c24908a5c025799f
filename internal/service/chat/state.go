package chat

import "fmt"

// State is a step of a pipeline run.
type State int

// Pipeline states in the order a successful tool-using run visits them.
const (
	Authenticating State = iota
	ContextLoaded
	AwaitingUnderstanding
	NoToolsNeeded
	ToolsRequested
	Executing
	AwaitingFinalUnderstanding
	Responding
	Persisted
	Done
	Failed
)

var stateNames = [...]string{
	Authenticating:             "authenticating",
	ContextLoaded:              "context_loaded",
	AwaitingUnderstanding:      "awaiting_understanding",
	NoToolsNeeded:              "no_tools_needed",
	ToolsRequested:             "tools_requested",
	Executing:                  "executing",
	AwaitingFinalUnderstanding: "awaiting_final_understanding",
	Responding:                 "responding",
	Persisted:                  "persisted",
	Done:                       "done",
	Failed:                     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// transitions lists the legal successors of each state. Failed is reachable
// from every non-terminal state and is not listed.
var transitions = map[State][]State{
	Authenticating:             {ContextLoaded},
	ContextLoaded:              {AwaitingUnderstanding},
	AwaitingUnderstanding:      {NoToolsNeeded, ToolsRequested},
	NoToolsNeeded:              {Responding},
	ToolsRequested:             {Executing},
	Executing:                  {AwaitingFinalUnderstanding},
	AwaitingFinalUnderstanding: {Responding},
	Responding:                 {Persisted},
	Persisted:                  {Done},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Done || s == Failed }

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == Failed {
		return true
	}
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// run tracks one pipeline execution.
type run struct {
	state   State
	history []State
	observe func(State)
}

func newRun(observe func(State)) *run {
	r := &run{state: Authenticating, history: []State{Authenticating}, observe: observe}
	if observe != nil {
		observe(Authenticating)
	}
	return r
}

// to advances the run. An illegal transition is a programming error and is
// reported as such.
func (r *run) to(next State) error {
	if !r.state.CanTransition(next) {
		return fmt.Errorf("illegal pipeline transition %s -> %s", r.state, next)
	}
	r.state = next
	r.history = append(r.history, next)
	if r.observe != nil {
		r.observe(next)
	}
	return nil
}
