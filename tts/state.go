package tts

// IntentState represents where an intent is in its lifecycle.
type IntentState int

const (
	// StateCreated indicates the intent is registered but not yet placed.
	StateCreated IntentState = iota
	// StateActive indicates the intent is driving synthesis and playback.
	StateActive
	// StatePending indicates the intent waits for the active slot.
	StatePending
	// StateEnded indicates the intent's token stream finished normally.
	StateEnded
	// StateCanceled indicates the intent was canceled.
	StateCanceled
)

// String returns the string representation of the state.
func (s IntentState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StatePending:
		return "pending"
	case StateEnded:
		return "ended"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible from s.
func (s IntentState) Terminal() bool {
	return s == StateEnded || s == StateCanceled
}

// StateMachine tracks the lifecycle of a single intent. It is not safe for
// concurrent use; the owner serializes access.
type StateMachine struct {
	current     IntentState
	transitions map[IntentState][]IntentState
	onEnter     map[IntentState]func()
	onExit      map[IntentState]func()
}

// NewStateMachine creates a state machine in StateCreated.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateCreated,
		transitions: map[IntentState][]IntentState{
			StateCreated: {StateActive, StatePending, StateCanceled},
			StatePending: {StateActive, StateCanceled},
			StateActive:  {StatePending, StateEnded, StateCanceled},
		},
		onEnter: make(map[IntentState]func()),
		onExit:  make(map[IntentState]func()),
	}
}

// Transition attempts to move to the given state and reports whether it did.
func (sm *StateMachine) Transition(to IntentState) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	if exitFn := sm.onExit[sm.current]; exitFn != nil {
		exitFn()
	}
	sm.current = to
	if enterFn := sm.onEnter[to]; enterFn != nil {
		enterFn()
	}
	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() IntentState {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state IntentState, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state IntentState, fn func()) {
	sm.onExit[state] = fn
}
