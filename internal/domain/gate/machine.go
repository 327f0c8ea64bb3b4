package gate

import (
	"context"
	"fmt"
)

// State is a gate machine state.
type State int

// Gate states.
const (
	Locked State = iota
	Verifying
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "LOCKED"
	case Verifying:
		return "VERIFYING"
	case Unlocked:
		return "UNLOCKED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transport performs the verification round trip.
type Transport interface {
	Verify(ctx context.Context, secret string) error
}

// Machine is the client side of the gate. Submission is only possible from
// Locked; Unlocked is terminal.
type Machine struct {
	state  State
	input  string
	failed bool
	err    error
}

// NewMachine returns a locked machine.
func NewMachine() *Machine {
	return &Machine{state: Locked}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Input returns the typed secret.
func (m *Machine) Input() string { return m.input }

// Failed reports whether the last attempt was rejected. Typing clears it.
func (m *Machine) Failed() bool { return m.failed }

// Err returns why the last attempt failed.
func (m *Machine) Err() error { return m.err }

// CanSubmit reports whether the submit control is enabled.
func (m *Machine) CanSubmit() bool { return m.state == Locked }

// Type replaces the input and clears the error flag.
func (m *Machine) Type(input string) {
	if m.state != Locked {
		return
	}
	m.input = input
	m.failed = false
	m.err = nil
}

// Submit moves Locked to Verifying and returns the secret to send.
func (m *Machine) Submit() (string, error) {
	if m.state != Locked {
		return "", fmt.Errorf("%w: %s", ErrNotLocked, m.state)
	}
	m.state = Verifying
	return m.input, nil
}

// Complete resolves a verification. A nil error unlocks; anything else
// returns to Locked with the error flag set and the input cleared.
func (m *Machine) Complete(err error) {
	if m.state != Verifying {
		return
	}
	if err == nil {
		m.state = Unlocked
		m.input = ""
		m.failed = false
		m.err = nil
		return
	}
	m.state = Locked
	m.input = ""
	m.failed = true
	m.err = err
}

// Bypass unlocks without verification when the server has no secret.
func (m *Machine) Bypass() {
	m.state = Unlocked
	m.input = ""
	m.failed = false
	m.err = nil
}

// Attempt runs a full submit round trip through t synchronously.
func (m *Machine) Attempt(ctx context.Context, t Transport) error {
	secret, err := m.Submit()
	if err != nil {
		return err
	}
	err = t.Verify(ctx, secret)
	m.Complete(err)
	return err
}
