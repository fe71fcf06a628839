// Package statemachine provides a table-driven finite state machine for
// entities whose state lives in a persisted row. The machine itself carries
// no current state: callers pass the stored state in and persist the state
// that comes back, which keeps the machine reusable across many rows and
// free of locking concerns.
package statemachine

import "context"

// Guard evaluates whether a transition is allowed for the given data.
type Guard[S ~string, E ~string] func(ctx context.Context, from S, event E, data any) bool

// Action runs side effects during a transition. Returning an error aborts
// the transition and the caller sees the original state unchanged.
type Action[S ~string, E ~string] func(ctx context.Context, from, to S, event E, data any) error

// Transition declares a state change triggered by an event, with optional
// guards and actions.
type Transition[S ~string, E ~string] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the new state is returned
}

// Machine is an immutable transition table over string-typed states and
// events. Multiple transitions for the same from/event pair are evaluated in
// declaration order; the first one whose guards all pass wins.
type Machine[S ~string, E ~string] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// New builds a Machine from the given transitions.
func New[S ~string, E ~string](transitions ...Transition[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
	for _, t := range transitions {
		if t.From == "" || t.To == "" || t.Event == "" {
			return nil, ErrInvalidTransition
		}
		if m.transitions[t.From] == nil {
			m.transitions[t.From] = make(map[E][]Transition[S, E])
		}
		m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	}
	return m, nil
}

// MustNew builds a Machine and panics on invalid transitions. Intended for
// package-level machine construction where the table is static.
func MustNew[S ~string, E ~string](transitions ...Transition[S, E]) *Machine[S, E] {
	m, err := New(transitions...)
	if err != nil {
		panic(err)
	}
	return m
}

// Fire applies event to the current state and returns the next state.
// When no transition is declared it returns a NoTransitionError; when all
// declared transitions are blocked by guards it returns a
// TransitionRejectedError. Either way the returned state equals current on
// error.
func (m *Machine[S, E]) Fire(ctx context.Context, current S, event E, data any) (S, error) {
	candidates := m.transitions[current][event]
	if len(candidates) == 0 {
		return current, &NoTransitionError{State: string(current), Event: string(event)}
	}

	for i := range candidates {
		t := &candidates[i]
		if !guardsPass(ctx, t, current, event, data) {
			continue
		}
		for _, action := range t.Actions {
			if action == nil {
				continue
			}
			if err := action(ctx, current, t.To, event, data); err != nil {
				return current, err
			}
		}
		return t.To, nil
	}

	return current, &TransitionRejectedError{State: string(current), Event: string(event)}
}

// CanFire reports whether the event would produce a transition from current.
func (m *Machine[S, E]) CanFire(ctx context.Context, current S, event E, data any) bool {
	for i := range m.transitions[current][event] {
		t := &m.transitions[current][event][i]
		if guardsPass(ctx, t, current, event, data) {
			return true
		}
	}
	return false
}

func guardsPass[S ~string, E ~string](ctx context.Context, t *Transition[S, E], from S, event E, data any) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
